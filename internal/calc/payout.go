package calc

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/easysteem/internal/domain"
	"github.com/vadiminshakov/easysteem/internal/units"
)

// uncappedPayout is the max_accepted_payout the chain uses for "no limit".
var uncappedPayout = decimal.NewFromInt(1_000_000)

// PayoutDetails summarises the payout of a post or comment: pending and past
// payouts, promotion cost, cashout time and the accepted payout cap.
func PayoutDetails(comment domain.Comment) (domain.PayoutDetails, error) {
	var parseErr error
	parse := func(name, raw string) decimal.Decimal {
		if parseErr != nil {
			return decimal.Zero
		}
		v, err := units.ParseAmountOrZero(raw)
		if err != nil {
			parseErr = errors.Wrap(err, name)
		}
		return v
	}

	maxPayout := parse("max_accepted_payout", comment.MaxAcceptedPayout)
	pending := parse("pending_payout_value", comment.PendingPayoutValue)
	promoted := parse("promoted", comment.Promoted)
	authorPayout := parse("total_payout_value", comment.TotalPayoutValue)
	curatorPayout := parse("curator_payout_value", comment.CuratorPayoutValue)
	if parseErr != nil {
		return domain.PayoutDetails{}, parseErr
	}

	var details domain.PayoutDetails

	payout := pending.Add(authorPayout).Add(curatorPayout)
	if payout.IsNegative() {
		payout = decimal.Zero
	}
	if payout.GreaterThan(maxPayout) {
		payout = maxPayout
	}
	details.PayoutLimitHit = payout.GreaterThanOrEqual(maxPayout)

	// cashout is active with a pending payout, or with a real cashout time
	// unless the content is a reply nobody voted on
	cashoutActive := pending.IsPositive() ||
		(!strings.HasPrefix(comment.CashoutTime, "1969") && !(comment.IsReply() && len(comment.ActiveVotes) == 0))

	if cashoutActive {
		details.PotentialPayout = &pending
		details.CashoutInTime = comment.CashoutTime + ".000Z"
	}
	if promoted.IsPositive() {
		details.PromotionCost = &promoted
	}

	if maxPayout.IsZero() {
		details.IsPayoutDeclined = true
	} else if maxPayout.LessThan(uncappedPayout) {
		details.MaxAcceptedPayout = &maxPayout
	}

	if authorPayout.IsPositive() {
		past := authorPayout.Add(curatorPayout)
		details.PastPayouts = &past
		details.AuthorPayouts = &authorPayout
		details.CuratorPayouts = &curatorPayout
	}

	return details, nil
}

// ContentPayout is the value used to rank content by payout: the pending
// payout while it is non-zero, otherwise the settled author plus curator payout.
func ContentPayout(comment domain.Comment) (decimal.Decimal, error) {
	pending, err := units.ParseAmountOrZero(comment.PendingPayoutValue)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "pending_payout_value")
	}
	if !pending.IsZero() {
		return pending, nil
	}
	total, err := units.ParseAmountOrZero(comment.TotalPayoutValue)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "total_payout_value")
	}
	curator, err := units.ParseAmountOrZero(comment.CuratorPayoutValue)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "curator_payout_value")
	}
	return total.Add(curator), nil
}
