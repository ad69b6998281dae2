package domain

import "github.com/shopspring/decimal"

// Bandwidth describes an account's bandwidth usage. Percentages and human
// sizes are pre-formatted; the raw byte counts are kept for callers that
// need to compute further.
type Bandwidth struct {
	PercentUsed      string `json:"percent_used"`
	PercentRemaining string `json:"percent_remaining"`
	BytesUsed        string `json:"bytes_used"`
	BytesRemaining   string `json:"bytes_remaining"`
	BytesAllocated   string `json:"bytes_allocated"`

	UsedBytes      int64 `json:"used_bytes"`
	AllocatedBytes int64 `json:"allocated_bytes"`
}

// PayoutDetails summarises the payout state of a post or comment.
// Optional values are nil when they do not apply.
type PayoutDetails struct {
	PayoutLimitHit    bool             `json:"payout_limit_hit"`
	PotentialPayout   *decimal.Decimal `json:"potential_payout,omitempty"`
	PromotionCost     *decimal.Decimal `json:"promotion_cost,omitempty"`
	CashoutInTime     string           `json:"cashout_in_time,omitempty"`
	IsPayoutDeclined  bool             `json:"is_payout_declined,omitempty"`
	MaxAcceptedPayout *decimal.Decimal `json:"max_accepted_payout,omitempty"`
	PastPayouts       *decimal.Decimal `json:"past_payouts,omitempty"`
	AuthorPayouts     *decimal.Decimal `json:"author_payouts,omitempty"`
	CuratorPayouts    *decimal.Decimal `json:"curator_payouts,omitempty"`
}

// AccountReport groups the derived metrics of a single account.
type AccountReport struct {
	Account          string          `json:"account"`
	VotingPower      decimal.Decimal `json:"voting_power"`
	VoteValue        decimal.Decimal `json:"vote_value"`
	NetVestingShares decimal.Decimal `json:"net_vesting_shares"`
	DelegatedNative  decimal.Decimal `json:"delegated_native"`
	AccountValue     decimal.Decimal `json:"account_value"`
	Reputation       string          `json:"reputation"`
	Bandwidth        Bandwidth       `json:"bandwidth"`
}
