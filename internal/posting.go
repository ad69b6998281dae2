package internal

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/easysteem/internal/domain"
	"github.com/vadiminshakov/easysteem/internal/operations"
)

// Draft is a new post.
type Draft struct {
	Title    string
	Body     string
	Category string
	Tags     []string
	// RewardOption defaults to the 50/50 split.
	RewardOption  domain.RewardOption
	Beneficiaries []domain.Beneficiary
	Metadata      map[string]any
}

// Upvote votes for author/permlink with weightPercent (0..100).
func (c *Client) Upvote(ctx context.Context, author, permlink string, weightPercent decimal.Decimal) (domain.BroadcastResult, error) {
	return c.vote(ctx, author, permlink, weightPercent.Abs())
}

// Downvote flags author/permlink with weightPercent (0..100).
func (c *Client) Downvote(ctx context.Context, author, permlink string, weightPercent decimal.Decimal) (domain.BroadcastResult, error) {
	return c.vote(ctx, author, permlink, weightPercent.Abs().Neg())
}

func (c *Client) vote(ctx context.Context, author, permlink string, weightPercent decimal.Decimal) (domain.BroadcastResult, error) {
	op, err := operations.Vote(c.account, author, permlink, weightPercent)
	if err != nil {
		return domain.BroadcastResult{}, err
	}
	return c.broadcast(ctx, op)
}

// CreatePost publishes a new post under the draft's category. The category
// becomes the first tag.
func (c *Client) CreatePost(ctx context.Context, d Draft) (domain.BroadcastResult, error) {
	if c.account == "" {
		return domain.BroadcastResult{}, domain.ErrNotLoggedIn
	}
	if d.Category == "" {
		return domain.BroadcastResult{}, errors.New("post category is required")
	}

	link, err := c.permalinks.ForPost(ctx, c.account, d.Title)
	if err != nil {
		return domain.BroadcastResult{}, err
	}

	reward := d.RewardOption
	if reward == "" {
		reward = domain.RewardFiftyPercentSPSBD
	}

	ops, err := operations.Publish(operations.Post{
		ParentPermlink: d.Category,
		Author:         c.account,
		Permlink:       link,
		Title:          d.Title,
		Body:           d.Body,
		Tags:           append([]string{d.Category}, d.Tags...),
		App:            c.app,
		RewardOption:   reward,
		Beneficiaries:  d.Beneficiaries,
		Metadata:       d.Metadata,
	})
	if err != nil {
		return domain.BroadcastResult{}, err
	}
	return c.broadcast(ctx, ops...)
}

// UpdatePost edits an existing post of the logged in account. The category
// cannot change; when empty it is read from the node.
func (c *Client) UpdatePost(ctx context.Context, permlink, title, body string, tags []string, metadata map[string]any, category string) (domain.BroadcastResult, error) {
	if category == "" {
		content, err := c.ownContent(ctx, permlink)
		if err != nil {
			return domain.BroadcastResult{}, err
		}
		category = content.ParentPermlink
	}

	ops, err := operations.Publish(operations.Post{
		ParentPermlink: category,
		Author:         c.account,
		Permlink:       permlink,
		Title:          title,
		Body:           body,
		Tags:           tags,
		App:            c.app,
		Metadata:       metadata,
	})
	if err != nil {
		return domain.BroadcastResult{}, err
	}
	return c.broadcast(ctx, ops...)
}

// CreateComment replies to parentAuthor/parentPermlink.
func (c *Client) CreateComment(ctx context.Context, parentAuthor, parentPermlink, body string) (domain.BroadcastResult, error) {
	link, err := c.permalinks.ForReply(parentAuthor, parentPermlink)
	if err != nil {
		return domain.BroadcastResult{}, err
	}

	ops, err := operations.Publish(operations.Post{
		ParentAuthor:   parentAuthor,
		ParentPermlink: parentPermlink,
		Author:         c.account,
		Permlink:       link,
		Body:           body,
		App:            c.app,
		RewardOption:   domain.RewardFiftyPercentSPSBD,
	})
	if err != nil {
		return domain.BroadcastResult{}, err
	}
	return c.broadcast(ctx, ops...)
}

// UpdateComment edits a reply of the logged in account. The parent is read
// from the node unless both parentAuthor and parentPermlink are given.
func (c *Client) UpdateComment(ctx context.Context, permlink, body, parentAuthor, parentPermlink string) (domain.BroadcastResult, error) {
	if parentAuthor == "" || parentPermlink == "" {
		content, err := c.ownContent(ctx, permlink)
		if err != nil {
			return domain.BroadcastResult{}, err
		}
		parentAuthor, parentPermlink = content.ParentAuthor, content.ParentPermlink
	}

	ops, err := operations.Publish(operations.Post{
		ParentAuthor:   parentAuthor,
		ParentPermlink: parentPermlink,
		Author:         c.account,
		Permlink:       permlink,
		Body:           body,
		App:            c.app,
	})
	if err != nil {
		return domain.BroadcastResult{}, err
	}
	return c.broadcast(ctx, ops...)
}

// DeletePostOrComment deletes content of the logged in account.
func (c *Client) DeletePostOrComment(ctx context.Context, permlink string) (domain.BroadcastResult, error) {
	return c.broadcast(ctx, operations.DeleteComment(c.account, permlink))
}

// Follow follows account.
func (c *Client) Follow(ctx context.Context, account string) (domain.BroadcastResult, error) {
	return c.broadcastBuilt(ctx, func() (domain.Operation, error) { return operations.Follow(c.account, account) })
}

// Unfollow stops following or ignoring account.
func (c *Client) Unfollow(ctx context.Context, account string) (domain.BroadcastResult, error) {
	return c.broadcastBuilt(ctx, func() (domain.Operation, error) { return operations.Unfollow(c.account, account) })
}

// Ignore mutes account.
func (c *Client) Ignore(ctx context.Context, account string) (domain.BroadcastResult, error) {
	return c.broadcastBuilt(ctx, func() (domain.Operation, error) { return operations.Ignore(c.account, account) })
}

// Reblog shares author/permlink on the logged in account's blog.
func (c *Client) Reblog(ctx context.Context, author, permlink string) (domain.BroadcastResult, error) {
	return c.broadcastBuilt(ctx, func() (domain.Operation, error) { return operations.Reblog(c.account, author, permlink) })
}

func (c *Client) ownContent(ctx context.Context, permlink string) (domain.Comment, error) {
	if c.account == "" {
		return domain.Comment{}, domain.ErrNotLoggedIn
	}
	content, err := c.chain.GetContent(ctx, c.account, permlink)
	if err != nil {
		return domain.Comment{}, errors.Wrapf(err, "get content %s/%s", c.account, permlink)
	}
	if content.ParentPermlink == "" {
		return domain.Comment{}, fmt.Errorf("%w: content %s/%s", domain.ErrNotFound, c.account, permlink)
	}
	return content, nil
}

func (c *Client) broadcastBuilt(ctx context.Context, build func() (domain.Operation, error)) (domain.BroadcastResult, error) {
	op, err := build()
	if err != nil {
		return domain.BroadcastResult{}, err
	}
	return c.broadcast(ctx, op)
}

func (c *Client) broadcast(ctx context.Context, ops ...domain.Operation) (domain.BroadcastResult, error) {
	if c.account == "" || c.broadcaster == nil {
		return domain.BroadcastResult{}, domain.ErrNotLoggedIn
	}

	names := make([]string, 0, len(ops))
	for _, op := range ops {
		names = append(names, op.Name)
	}

	result, err := c.broadcaster.Broadcast(ctx, ops)
	if err != nil {
		c.logger.Error("broadcast failed", zap.String("account", c.account), zap.Strings("operations", names), zap.Error(err))
		return domain.BroadcastResult{}, errors.Wrap(err, "broadcast")
	}
	c.logger.Info("broadcast", zap.String("account", c.account), zap.Strings("operations", names), zap.String("trx_id", result.ID))
	return result, nil
}
