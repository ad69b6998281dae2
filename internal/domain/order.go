package domain

import "strings"

// OrderOption selects the criterion used to order votes or comments.
type OrderOption string

const (
	OrderReputation OrderOption = "REPUTATION"
	OrderPayout     OrderOption = "PAYOUT"
	OrderPercent    OrderOption = "PERCENT"
	OrderOldest     OrderOption = "OLDEST"
	OrderNewest     OrderOption = "NEWEST"
)

// ParseOrderOption parses a case-insensitive order option.
func ParseOrderOption(s string) (OrderOption, error) {
	o := OrderOption(strings.ToUpper(strings.TrimSpace(s)))
	if !o.IsValid() {
		return "", ErrUnsupportedOrder
	}
	return o, nil
}

// String returns the string representation.
func (o OrderOption) String() string {
	return string(o)
}

// IsValid checks if the OrderOption value is known.
func (o OrderOption) IsValid() bool {
	switch o {
	case OrderReputation, OrderPayout, OrderPercent, OrderOldest, OrderNewest:
		return true
	}
	return false
}

// RewardOption is the payout split requested for a post.
type RewardOption string

const (
	// RewardCentPercentSP pays the author reward fully in Steem Power.
	RewardCentPercentSP RewardOption = "100"
	// RewardFiftyPercentSPSBD is the chain default 50/50 split.
	RewardFiftyPercentSPSBD RewardOption = "50"
	// RewardNone declines the payout.
	RewardNone RewardOption = "0"
)

// IsValid checks if the RewardOption value is known.
func (r RewardOption) IsValid() bool {
	return r == RewardCentPercentSP || r == RewardFiftyPercentSPSBD || r == RewardNone
}
