// Package units converts raw chain field representations (amount strings,
// vesting shares, byte counts, timestamps) into normalized values.
package units

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/easysteem/internal/domain"
)

// ChainTimeLayout is the timestamp format used by the node (UTC, no zone).
const ChainTimeLayout = "2006-01-02T15:04:05"

var (
	amountSuffix = regexp.MustCompile(`\s+[A-Za-z]+$`)
	byteSizes    = []string{"B", "KB", "MB", "GB", "TB"}
)

// ParseAmount strips the trailing currency symbol of an asset string and
// parses the remaining number: "12.345 STEEM" -> 12.345.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = amountSuffix.ReplaceAllString(s, "")
	if s == "" {
		return decimal.Zero, errors.Wrapf(domain.ErrMalformedAmount, "%q", raw)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrapf(domain.ErrMalformedAmount, "%q", raw)
	}
	return d, nil
}

// ParseAmountOrZero parses optional amount fields where an empty string
// means the value is absent.
func ParseAmountOrZero(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	return ParseAmount(raw)
}

// VestingToNative converts vesting shares into the native currency using the
// pool ratio totalVestingFund / totalVestingShares.
func VestingToNative(vestingShares, totalVestingShares, totalVestingFund decimal.Decimal) (decimal.Decimal, error) {
	if totalVestingShares.IsZero() {
		return decimal.Zero, domain.ErrZeroTotalVestingShares
	}
	return totalVestingFund.Mul(vestingShares).Div(totalVestingShares), nil
}

// BytesToHuman formats a byte count with base-1024 units. Zero is reported
// as "n/a" because the node reports zero bandwidth for unknown accounts.
func BytesToHuman(bytes int64, decimals int) string {
	if bytes == 0 {
		return "n/a"
	}

	abs := bytes
	if abs < 0 {
		abs = -abs
	}

	i := 0
	for abs >= 1024 && i < len(byteSizes)-1 {
		abs /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d %s", bytes, byteSizes[0])
	}

	value := decimal.NewFromInt(bytes).Div(decimal.NewFromInt(int64(1) << (10 * i)))
	return fmt.Sprintf("%s %s", value.StringFixed(int32(decimals)), byteSizes[i])
}

// ParseChainTime parses a node timestamp as UTC. A trailing "Z" is tolerated.
func ParseChainTime(raw string) (time.Time, error) {
	s := strings.TrimSuffix(strings.TrimSpace(raw), "Z")
	t, err := time.ParseInLocation(ChainTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, errors.Wrapf(domain.ErrMalformedTime, "%q", raw)
	}
	return t, nil
}

// Fixed formats d with exactly decimals digits after the point.
func Fixed(d decimal.Decimal, decimals int) string {
	return d.StringFixed(int32(decimals))
}
