package ordering

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/easysteem/internal/calc"
	"github.com/vadiminshakov/easysteem/internal/domain"
	"github.com/vadiminshakov/easysteem/internal/units"
)

// Votes returns the votes ordered by option, highest first.
//
// OrderPayout attaches VotePayout and needs a complete props snapshot.
// OrderReputation attaches VoteReputation. OrderPercent ranks by the stored
// percent. Any other option returns domain.ErrUnsupportedOrder.
func Votes(votes []domain.Vote, option domain.OrderOption, props domain.ChainProperties) ([]domain.Vote, error) {
	switch option {
	case domain.OrderPayout:
		if err := props.Validate(); err != nil {
			return nil, err
		}
		return rank(votes, descending, func(v *domain.Vote) (decimal.Decimal, error) {
			rshares, err := v.Rshares.Decimal()
			if err != nil {
				return decimal.Zero, errors.Wrapf(err, "rshares of %s", v.Voter)
			}
			payout, err := calc.SharesToNative(rshares, props)
			if err != nil {
				return decimal.Zero, err
			}
			v.VotePayout = units.Fixed(payout, payoutDecimals)
			return payout, nil
		})

	case domain.OrderReputation:
		return rank(votes, descending, func(v *domain.Vote) (decimal.Decimal, error) {
			raw, err := calc.ParseReputation(v.Reputation)
			if err != nil {
				return decimal.Zero, errors.Wrapf(err, "voter %s", v.Voter)
			}
			v.VoteReputation = calc.Reputation(raw, reputationDecimals)
			return calc.ReputationValue(raw), nil
		})

	case domain.OrderPercent:
		return rank(votes, descending, func(v *domain.Vote) (decimal.Decimal, error) {
			return decimal.NewFromInt(v.Percent), nil
		})

	default:
		return nil, errors.Wrapf(domain.ErrUnsupportedOrder, "%q for votes", string(option))
	}
}
