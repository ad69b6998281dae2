package calc

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/easysteem/internal/domain"
	"github.com/vadiminshakov/easysteem/internal/units"
)

const (
	// VoteRegenerationSeconds is the time needed to regenerate 100% voting power.
	VoteRegenerationSeconds = 432000
	// FullVotingPowerBP is 100% expressed in basis points.
	FullVotingPowerBP = 10000
)

var (
	fullPowerBP    = decimal.NewFromInt(FullVotingPowerBP)
	regenSeconds   = decimal.NewFromInt(VoteRegenerationSeconds)
	hundred        = decimal.NewFromInt(100)
	msPerSecond    = decimal.NewFromInt(1000)
	vestsPrecision = decimal.NewFromInt(1_000_000)
)

// VotingPower returns the account's current voting power as a percentage in
// [0, 100]. Power regenerates linearly from last_vote_time and saturates at 100.
func VotingPower(account domain.Account, now time.Time) (decimal.Decimal, error) {
	lastVote, err := units.ParseChainTime(account.LastVoteTime)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "last_vote_time")
	}

	elapsed := elapsedSeconds(lastVote, now)
	regenerated := fullPowerBP.Mul(elapsed).Div(regenSeconds)

	power := decimal.NewFromInt(account.VotingPower).Add(regenerated)
	power = decimal.Min(power, fullPowerBP)
	if power.IsNegative() {
		power = decimal.Zero
	}

	return power.Div(hundred), nil
}

// elapsedSeconds is now - since in seconds with millisecond resolution,
// clamped at zero for timestamps ahead of the local clock.
func elapsedSeconds(since, now time.Time) decimal.Decimal {
	ms := now.Sub(since).Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return decimal.NewFromInt(ms).Div(msPerSecond)
}
