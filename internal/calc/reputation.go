package calc

import (
	"math"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/easysteem/internal/domain"
	"github.com/vadiminshakov/easysteem/internal/units"
)

// ReputationValue rescales a raw reputation score to the familiar display
// scale: max(log10(|raw|) - 9, 0) * ±9 + 25.
//
// A raw score of 0 has log10 = -Inf, which the floor at 0 turns into the
// neutral 25.
func ReputationValue(raw int64) decimal.Decimal {
	rep := math.Max(math.Log10(math.Abs(float64(raw)))-9, 0)
	if raw < 0 {
		rep *= -9
	} else {
		rep *= 9
	}
	return decimal.NewFromFloat(rep + 25)
}

// Reputation is ReputationValue formatted with a fixed number of decimals.
func Reputation(raw int64, decimals int) string {
	return units.Fixed(ReputationValue(raw), decimals)
}

// ParseReputation reads a raw reputation field. A missing field counts as 0.
func ParseReputation(raw domain.RawNumber) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := raw.Int64()
	if err != nil {
		return 0, errors.Wrap(err, "reputation")
	}
	return v, nil
}
