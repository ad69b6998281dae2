package chainprops

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// RefreshMode decides when a derived-metric call refreshes the cache first.
type RefreshMode int

const (
	// RefreshIfStale refreshes when the cache is empty or older than MaxAge.
	RefreshIfStale RefreshMode = iota
	// RefreshAlways refreshes on every call.
	RefreshAlways
	// RefreshIfEmpty refreshes only before the first successful refresh.
	RefreshIfEmpty
	// RefreshNever never refreshes; an empty cache is an error.
	RefreshNever
)

// DefaultMaxAge is the staleness threshold used by DefaultPolicy.
const DefaultMaxAge = time.Minute

// RefreshPolicy pairs a RefreshMode with the staleness threshold used by
// RefreshIfStale.
type RefreshPolicy struct {
	Mode   RefreshMode
	MaxAge time.Duration
}

// DefaultPolicy refreshes snapshots older than DefaultMaxAge.
func DefaultPolicy() RefreshPolicy {
	return RefreshPolicy{Mode: RefreshIfStale, MaxAge: DefaultMaxAge}
}

// String returns the config representation of the mode.
func (m RefreshMode) String() string {
	switch m {
	case RefreshIfStale:
		return "if_stale"
	case RefreshAlways:
		return "always"
	case RefreshIfEmpty:
		return "if_empty"
	case RefreshNever:
		return "never"
	default:
		return "unknown"
	}
}

// ParseRefreshMode parses the config representation of a mode.
func ParseRefreshMode(s string) (RefreshMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "if_stale":
		return RefreshIfStale, nil
	case "always":
		return RefreshAlways, nil
	case "if_empty":
		return RefreshIfEmpty, nil
	case "never":
		return RefreshNever, nil
	default:
		return 0, errors.Errorf("unknown refresh policy %q", s)
	}
}

// needsRefresh reports whether the policy requires a refresh given the
// current cache state.
func (p RefreshPolicy) needsRefresh(ready bool, age time.Duration) bool {
	switch p.Mode {
	case RefreshAlways:
		return true
	case RefreshIfEmpty:
		return !ready
	case RefreshNever:
		return false
	default:
		maxAge := p.MaxAge
		if maxAge <= 0 {
			maxAge = DefaultMaxAge
		}
		return !ready || age > maxAge
	}
}
