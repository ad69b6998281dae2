package clients

import (
	"context"
	"time"

	jrpc "github.com/AdamSLevy/jsonrpc2/v14"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vadiminshakov/easysteem/internal/domain"
	"github.com/vadiminshakov/easysteem/pkg/retrier"
)

const (
	// DefaultSteemNode is the public node used when none is configured.
	DefaultSteemNode = "https://api.steemit.com"

	defaultRPCTimeout = 15 * time.Second
	defaultRateLimit  = 10
	followPageSize    = 1000
	followTypeBlog    = "blog"
)

// SteemClient reads chain state from a Steem node over JSON-RPC using the
// condenser_api methods.
type SteemClient struct {
	url     string
	rpc     jrpc.Client
	limiter *rate.Limiter
	retrier *retrier.Retrier
	logger  *zap.Logger
}

// SteemOption configures the SteemClient.
type SteemOption func(*SteemClient)

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(perSecond float64, burst int) SteemOption {
	return func(c *SteemClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRetries sets how many times a failed transport call is retried.
// Errors returned by the node itself are never retried.
func WithRetries(n int) SteemOption {
	return func(c *SteemClient) {
		c.retrier = newRPCRetrier(n)
	}
}

// WithRPCTimeout sets the HTTP timeout of a single request.
func WithRPCTimeout(d time.Duration) SteemOption {
	return func(c *SteemClient) {
		c.rpc.Timeout = d
	}
}

// WithSteemLogger sets the logger.
func WithSteemLogger(l *zap.Logger) SteemOption {
	return func(c *SteemClient) {
		c.logger = l
	}
}

// NewSteemClient creates a client for the node at url.
func NewSteemClient(url string, opts ...SteemOption) *SteemClient {
	if url == "" {
		url = DefaultSteemNode
	}
	c := &SteemClient{
		url:     url,
		limiter: rate.NewLimiter(defaultRateLimit, defaultRateLimit),
		retrier: newRPCRetrier(2),
		logger:  zap.NewNop(),
	}
	c.rpc.Timeout = defaultRPCTimeout
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newRPCRetrier(retries int) *retrier.Retrier {
	return retrier.New(
		retrier.WithMaxRetries(retries),
		retrier.WithInitialInterval(200*time.Millisecond),
		retrier.WithMaxInterval(2*time.Second),
		retrier.WithRetryable(isTransportError),
	)
}

// isTransportError reports whether err came from the transport rather than
// from the node rejecting the call.
func isTransportError(err error) bool {
	var rpcErr jrpc.Error
	if errors.As(err, &rpcErr) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *SteemClient) call(ctx context.Context, method string, params, result any) error {
	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return c.rpc.Request(ctx, c.url, method, params, result)
	})
	if err != nil {
		c.logger.Debug("steem rpc call failed", zap.String("method", method), zap.Error(err))
		return errors.Wrapf(err, "steem %s", method)
	}
	return nil
}

// GetRewardFund returns the named reward fund.
func (c *SteemClient) GetRewardFund(ctx context.Context, name string) (domain.RewardFund, error) {
	var fund domain.RewardFund
	err := c.call(ctx, "condenser_api.get_reward_fund", []any{name}, &fund)
	return fund, err
}

// GetDynamicGlobalProperties returns the dynamic global properties.
func (c *SteemClient) GetDynamicGlobalProperties(ctx context.Context) (domain.DynamicGlobalProperties, error) {
	var props domain.DynamicGlobalProperties
	err := c.call(ctx, "condenser_api.get_dynamic_global_properties", []any{}, &props)
	return props, err
}

// GetAccounts returns the accounts that exist among names.
func (c *SteemClient) GetAccounts(ctx context.Context, names ...string) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := c.call(ctx, "condenser_api.get_accounts", []any{names}, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetAccount returns a single account or domain.ErrNotFound.
func (c *SteemClient) GetAccount(ctx context.Context, name string) (domain.Account, error) {
	accounts, err := c.GetAccounts(ctx, name)
	if err != nil {
		return domain.Account{}, err
	}
	if len(accounts) == 0 {
		return domain.Account{}, errors.Wrapf(domain.ErrNotFound, "account %s", name)
	}
	return accounts[0], nil
}

// GetContent returns a post or comment. Unknown content comes back empty,
// see domain.Comment.Exists.
func (c *SteemClient) GetContent(ctx context.Context, author, permlink string) (domain.Comment, error) {
	var content domain.Comment
	err := c.call(ctx, "condenser_api.get_content", []any{author, permlink}, &content)
	return content, err
}

// ContentExists reports whether account already has content at permlink.
func (c *SteemClient) ContentExists(ctx context.Context, account, permlink string) (bool, error) {
	content, err := c.GetContent(ctx, account, permlink)
	if err != nil {
		return false, err
	}
	return content.Exists(), nil
}

// GetActiveVotes returns the votes cast on a post or comment.
func (c *SteemClient) GetActiveVotes(ctx context.Context, author, permlink string) ([]domain.Vote, error) {
	var votes []domain.Vote
	if err := c.call(ctx, "condenser_api.get_active_votes", []any{author, permlink}, &votes); err != nil {
		return nil, err
	}
	return votes, nil
}

// GetContentReplies returns the direct replies to a post or comment.
func (c *SteemClient) GetContentReplies(ctx context.Context, author, permlink string) ([]domain.Comment, error) {
	var replies []domain.Comment
	if err := c.call(ctx, "condenser_api.get_content_replies", []any{author, permlink}, &replies); err != nil {
		return nil, err
	}
	return replies, nil
}

// GetFollowCount returns how many accounts follow and are followed by account.
func (c *SteemClient) GetFollowCount(ctx context.Context, account string) (domain.FollowCount, error) {
	var count domain.FollowCount
	err := c.call(ctx, "condenser_api.get_follow_count", []any{account}, &count)
	return count, err
}

// GetFollowers returns every account following account.
func (c *SteemClient) GetFollowers(ctx context.Context, account string) ([]domain.Follow, error) {
	return c.pageFollows(ctx, "condenser_api.get_followers", account,
		func(f domain.Follow) string { return f.Follower })
}

// GetFollowing returns every account followed by account.
func (c *SteemClient) GetFollowing(ctx context.Context, account string) ([]domain.Follow, error) {
	return c.pageFollows(ctx, "condenser_api.get_following", account,
		func(f domain.Follow) string { return f.Following })
}

// pageFollows walks a follow list. The node includes the start entry in
// each page, so every page after the first drops its first element.
func (c *SteemClient) pageFollows(ctx context.Context, method, account string, cursor func(domain.Follow) string) ([]domain.Follow, error) {
	var (
		all   []domain.Follow
		start string
	)
	for {
		var page []domain.Follow
		if err := c.call(ctx, method, []any{account, start, followTypeBlog, followPageSize}, &page); err != nil {
			return nil, err
		}

		full := len(page) == followPageSize
		if start != "" && len(page) > 0 && cursor(page[0]) == start {
			page = page[1:]
		}
		all = append(all, page...)

		if !full || len(page) == 0 {
			return all, nil
		}
		start = cursor(page[len(page)-1])
	}
}
