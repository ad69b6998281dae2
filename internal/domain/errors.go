package domain

import "github.com/pkg/errors"

var (
	// ErrMalformedAmount is returned when an amount string cannot be parsed.
	ErrMalformedAmount = errors.New("malformed amount")
	// ErrMalformedTime is returned when a chain timestamp cannot be parsed.
	ErrMalformedTime = errors.New("malformed chain time")
	// ErrZeroTotalVestingShares is returned when converting vests against an empty pool.
	ErrZeroTotalVestingShares = errors.New("total vesting shares is zero")
	// ErrZeroRecentClaims is returned when converting rshares against an empty claims pool.
	ErrZeroRecentClaims = errors.New("recent claims is zero")
	// ErrNoBandwidthAllocated is returned when the account has no bandwidth allocation.
	ErrNoBandwidthAllocated = errors.New("no bandwidth allocated")
	// ErrInvalidVoteWeight is returned for a vote weight outside [-100, 100].
	ErrInvalidVoteWeight = errors.New("vote weight must be within [-100, 100]")
	// ErrPropertiesUnavailable is returned when no chain properties snapshot is available.
	ErrPropertiesUnavailable = errors.New("chain properties unavailable")
	// ErrRefreshFailed is returned when the chain properties refresh fails.
	ErrRefreshFailed = errors.New("chain properties refresh failed")
	// ErrPermalinkLookupFailed is returned when the content existence lookup fails.
	ErrPermalinkLookupFailed = errors.New("permalink lookup failed")
	// ErrUnsupportedOrder is returned for an order option not supported by the ordering.
	ErrUnsupportedOrder = errors.New("unsupported order option")
	// ErrMissingParent is returned when a comment permalink is requested without a parent.
	ErrMissingParent = errors.New("parent author and parent permalink are required")
	// ErrNotFound is returned when the node has no account or content under the requested name.
	ErrNotFound = errors.New("not found")
	// ErrNotLoggedIn is returned by operations that need an account or access token.
	ErrNotLoggedIn = errors.New("account or access token is not set")
)
