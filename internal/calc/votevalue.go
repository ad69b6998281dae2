package calc

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/easysteem/internal/domain"
)

var (
	maxWeight    = decimal.NewFromInt(100)
	powerDivisor = decimal.NewFromInt(50)
)

// VoteValue estimates the USD value a vote of weightPercent (-100..100,
// negative for down-votes) would add to a post.
//
//	power   = vp_bp * weight_bp / 10000 / 50
//	rshares = power * net_vests * 1e6 / 10000
//	value   = rshares / recent_claims * reward_balance * native_rate
//
// props must be a complete snapshot; an incomplete one is rejected rather
// than producing a meaningless number.
func VoteValue(account domain.Account, weightPercent decimal.Decimal, props domain.ChainProperties, now time.Time) (decimal.Decimal, error) {
	if weightPercent.Abs().GreaterThan(maxWeight) {
		return decimal.Zero, errors.Wrapf(domain.ErrInvalidVoteWeight, "got %s", weightPercent)
	}
	if err := props.Validate(); err != nil {
		return decimal.Zero, err
	}

	votingPower, err := VotingPower(account, now)
	if err != nil {
		return decimal.Zero, err
	}
	netVests, err := NetVestingShares(account)
	if err != nil {
		return decimal.Zero, err
	}

	votingPowerBP := votingPower.Mul(hundred)
	weightBP := weightPercent.Mul(hundred)
	vests := netVests.Mul(vestsPrecision).Truncate(0)

	power := votingPowerBP.Mul(weightBP).Div(fullPowerBP).Div(powerDivisor)
	rshares := power.Mul(vests).Div(fullPowerBP)

	return SharesToNative(rshares, props)
}

// SharesToNative converts reward shares into their USD value:
// rshares * reward_balance / recent_claims * native_rate.
func SharesToNative(rshares decimal.Decimal, props domain.ChainProperties) (decimal.Decimal, error) {
	if props.RecentClaims.IsZero() {
		return decimal.Zero, domain.ErrZeroRecentClaims
	}
	return rshares.Mul(props.RewardBalance).Div(props.RecentClaims).Mul(props.NativeRate), nil
}
