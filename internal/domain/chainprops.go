package domain

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// RewardFund is the raw reward fund returned by the node.
type RewardFund struct {
	Name          string    `json:"name"`
	RewardBalance string    `json:"reward_balance"`
	RecentClaims  RawNumber `json:"recent_claims"`
}

// DynamicGlobalProperties holds the subset of the node's dynamic global
// properties used by the calculations.
type DynamicGlobalProperties struct {
	HeadBlockNumber       int64     `json:"head_block_number"`
	Time                  string    `json:"time"`
	TotalVestingFundSteem string    `json:"total_vesting_fund_steem"`
	TotalVestingShares    string    `json:"total_vesting_shares"`
	MaxVirtualBandwidth   RawNumber `json:"max_virtual_bandwidth"`
}

// ChainProperties is a snapshot of the chain-wide constants and exchange
// rates the derived metrics are computed against.
type ChainProperties struct {
	RewardBalance       decimal.Decimal `json:"reward_balance"`
	RecentClaims        decimal.Decimal `json:"recent_claims"`
	TotalVestingFund    decimal.Decimal `json:"total_vesting_fund"`
	TotalVestingShares  decimal.Decimal `json:"total_vesting_shares"`
	MaxVirtualBandwidth decimal.Decimal `json:"max_virtual_bandwidth"`
	// NativeRate is the USD price of the native currency (STEEM).
	NativeRate decimal.Decimal `json:"native_rate"`
	// StableRate is the USD price of the stable currency (SBD).
	StableRate decimal.Decimal `json:"stable_rate"`
	FetchedAt  time.Time       `json:"fetched_at"`
}

// Validate reports ErrPropertiesUnavailable when the snapshot was never
// populated, and the specific degenerate error when a divisor is zero.
func (p ChainProperties) Validate() error {
	if p.FetchedAt.IsZero() {
		return ErrPropertiesUnavailable
	}
	if p.TotalVestingShares.IsZero() {
		return ErrZeroTotalVestingShares
	}
	if p.RecentClaims.IsZero() {
		return ErrZeroRecentClaims
	}
	if p.NativeRate.IsNegative() || p.StableRate.IsNegative() {
		return errors.Wrap(ErrPropertiesUnavailable, "negative exchange rate")
	}
	return nil
}

// Age returns how long ago the snapshot was fetched.
func (p ChainProperties) Age(now time.Time) time.Duration {
	return now.Sub(p.FetchedAt)
}

// ChainPropertiesRecord bundles a persisted snapshot with its log index.
type ChainPropertiesRecord struct {
	Index      uint64
	Properties ChainProperties
}
