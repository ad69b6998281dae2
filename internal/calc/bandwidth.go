package calc

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/easysteem/internal/domain"
	"github.com/vadiminshakov/easysteem/internal/units"
)

// BandwidthAverageWindowSeconds is the averaging window of account bandwidth.
const BandwidthAverageWindowSeconds = 60 * 60 * 24 * 7

var (
	bandwidthWindow    = decimal.NewFromInt(BandwidthAverageWindowSeconds)
	bandwidthPrecision = decimal.NewFromInt(1_000_000)
)

// Bandwidth computes the bandwidth allocated to and used by an account.
//
// The allocation is the account's share of total vesting shares applied to
// the chain's max virtual bandwidth. Usage decays linearly from
// average_bandwidth to zero over the averaging window.
//
// An account without allocation yields ErrNoBandwidthAllocated instead of
// dividing by zero.
func Bandwidth(account domain.Account, props domain.ChainProperties, now time.Time, decimals int) (domain.Bandwidth, error) {
	if props.TotalVestingShares.IsZero() {
		return domain.Bandwidth{}, domain.ErrZeroTotalVestingShares
	}

	own, err := units.ParseAmount(account.VestingShares)
	if err != nil {
		return domain.Bandwidth{}, errors.Wrap(err, "vesting_shares")
	}
	received, err := units.ParseAmountOrZero(account.ReceivedVestingShares)
	if err != nil {
		return domain.Bandwidth{}, errors.Wrap(err, "received_vesting_shares")
	}
	average := decimal.Zero
	if account.AverageBandwidth != "" {
		if average, err = account.AverageBandwidth.Decimal(); err != nil {
			return domain.Bandwidth{}, errors.Wrap(err, "average_bandwidth")
		}
	}
	lastUpdate, err := units.ParseChainTime(account.LastBandwidthUpdate)
	if err != nil {
		return domain.Bandwidth{}, errors.Wrap(err, "last_bandwidth_update")
	}

	allocated := props.MaxVirtualBandwidth.Mul(own.Add(received)).Div(props.TotalVestingShares)
	allocated = allocated.Div(bandwidthPrecision).Round(0)

	used := decimal.Zero
	elapsed := elapsedSeconds(lastUpdate, now)
	if elapsed.LessThan(bandwidthWindow) {
		used = bandwidthWindow.Sub(elapsed).Mul(average).Div(bandwidthWindow)
	}
	used = used.Div(bandwidthPrecision).Round(0)

	if allocated.IsZero() {
		return domain.Bandwidth{}, domain.ErrNoBandwidthAllocated
	}

	percentUsed := hundred.Mul(used).Div(allocated)
	percentRemaining := hundred.Sub(percentUsed)

	allocatedBytes := allocated.IntPart()
	usedBytes := used.IntPart()

	return domain.Bandwidth{
		PercentUsed:      units.Fixed(percentUsed, decimals),
		PercentRemaining: units.Fixed(percentRemaining, decimals),
		BytesUsed:        units.BytesToHuman(usedBytes, decimals),
		BytesRemaining:   units.BytesToHuman(allocatedBytes-usedBytes, decimals),
		BytesAllocated:   units.BytesToHuman(allocatedBytes, decimals),
		UsedBytes:        usedBytes,
		AllocatedBytes:   allocatedBytes,
	}, nil
}
