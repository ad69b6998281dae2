package ordering

import (
	"slices"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/easysteem/internal/calc"
	"github.com/vadiminshakov/easysteem/internal/domain"
	"github.com/vadiminshakov/easysteem/internal/units"
)

// Comments returns the comments ordered by option.
//
// OrderNewest and OrderOldest rank by creation time. OrderPayout ranks by
// the pending payout, or the settled author plus curator payout once the
// pending payout is zero, and attaches CommentPayout. OrderReputation ranks
// by author reputation and attaches CommentReputation.
func Comments(comments []domain.Comment, option domain.OrderOption) ([]domain.Comment, error) {
	switch option {
	case domain.OrderNewest:
		return rank(comments, descending, commentKey(createdKey))
	case domain.OrderOldest:
		return rank(comments, ascending, commentKey(createdKey))

	case domain.OrderPayout:
		return rank(comments, descending, commentKey(func(c *domain.Comment) (decimal.Decimal, error) {
			payout, err := calc.ContentPayout(*c)
			if err != nil {
				return decimal.Zero, errors.Wrapf(err, "%s/%s", c.Author, c.Permlink)
			}
			c.CommentPayout = units.Fixed(payout, payoutDecimals)
			return payout, nil
		}))

	case domain.OrderReputation:
		return rank(comments, descending, commentKey(func(c *domain.Comment) (decimal.Decimal, error) {
			raw, err := calc.ParseReputation(c.AuthorReputation)
			if err != nil {
				return decimal.Zero, errors.Wrapf(err, "author %s", c.Author)
			}
			c.CommentReputation = calc.Reputation(raw, reputationDecimals)
			return calc.ReputationValue(raw), nil
		}))

	default:
		return nil, errors.Wrapf(domain.ErrUnsupportedOrder, "%q for comments", string(option))
	}
}

// commentKey detaches the copy's vote list from the caller's before key runs.
func commentKey(key func(c *domain.Comment) (decimal.Decimal, error)) func(c *domain.Comment) (decimal.Decimal, error) {
	return func(c *domain.Comment) (decimal.Decimal, error) {
		c.ActiveVotes = slices.Clone(c.ActiveVotes)
		return key(c)
	}
}

func createdKey(c *domain.Comment) (decimal.Decimal, error) {
	created, err := units.ParseChainTime(c.Created)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "created of %s/%s", c.Author, c.Permlink)
	}
	return decimal.NewFromInt(created.UnixMilli()), nil
}
