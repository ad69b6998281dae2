package internal

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/easysteem/internal/calc"
	"github.com/vadiminshakov/easysteem/internal/chainprops"
	"github.com/vadiminshakov/easysteem/internal/domain"
	"github.com/vadiminshakov/easysteem/internal/ordering"
	"github.com/vadiminshakov/easysteem/internal/permalink"
)

const defaultDecimals = 2

var fullWeight = decimal.NewFromInt(100)

// ChainReader is the subset of the node API the client reads from.
type ChainReader interface {
	GetAccount(ctx context.Context, name string) (domain.Account, error)
	GetContent(ctx context.Context, author, permlink string) (domain.Comment, error)
	ContentExists(ctx context.Context, account, permlink string) (bool, error)
	GetActiveVotes(ctx context.Context, author, permlink string) ([]domain.Vote, error)
	GetContentReplies(ctx context.Context, author, permlink string) ([]domain.Comment, error)
}

// Broadcaster submits operations for signing and broadcasting on behalf of
// the logged in account.
type Broadcaster interface {
	Broadcast(ctx context.Context, ops []domain.Operation) (domain.BroadcastResult, error)
}

// Client ties the chain properties cache to the derived metrics and wraps
// the common posting operations.
type Client struct {
	props       *chainprops.Cache
	chain       ChainReader
	broadcaster Broadcaster
	permalinks  *permalink.Generator
	policy      chainprops.RefreshPolicy
	account     string
	app         string
	logger      *zap.Logger
	now         func() time.Time
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBroadcaster enables the posting wrappers.
func WithBroadcaster(b Broadcaster) ClientOption {
	return func(c *Client) {
		c.broadcaster = b
	}
}

// WithAccount sets the account operations are signed for.
func WithAccount(name string) ClientOption {
	return func(c *Client) {
		c.account = name
	}
}

// WithApp sets the app written to post metadata, e.g. "easysteem/1.0.0".
func WithApp(name, version string) ClientOption {
	return func(c *Client) {
		c.app = name
		if version != "" {
			c.app = name + "/" + version
		}
	}
}

// WithDefaultPolicy sets the refresh policy used when a call does not pass one.
func WithDefaultPolicy(p chainprops.RefreshPolicy) ClientOption {
	return func(c *Client) {
		c.policy = p
	}
}

// WithPermalinks replaces the permalink generator.
func WithPermalinks(g *permalink.Generator) ClientOption {
	return func(c *Client) {
		c.permalinks = g
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithClientClock sets the time source for voting power and bandwidth.
func WithClientClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a client over props and chain.
func NewClient(props *chainprops.Cache, chain ChainReader, opts ...ClientOption) *Client {
	c := &Client{
		props:  props,
		chain:  chain,
		policy: chainprops.DefaultPolicy(),
		app:    "easysteem",
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.permalinks == nil {
		c.permalinks = permalink.New(chain, permalink.WithLogger(c.logger), permalink.WithClock(c.now))
	}
	return c
}

// Account returns the account operations are signed for.
func (c *Client) Account() string {
	return c.account
}

// SetAccount changes the account operations are signed for.
func (c *Client) SetAccount(name string) {
	c.account = name
}

type callOptions struct {
	decimals int
	policy   chainprops.RefreshPolicy
	at       time.Time
}

// CallOption adjusts a single call.
type CallOption func(*callOptions)

// WithDecimals sets the number of decimals of formatted results.
func WithDecimals(n int) CallOption {
	return func(o *callOptions) {
		o.decimals = n
	}
}

// WithRefreshPolicy overrides the client's refresh policy for one call.
func WithRefreshPolicy(p chainprops.RefreshPolicy) CallOption {
	return func(o *callOptions) {
		o.policy = p
	}
}

// WithForceRefresh refreshes the chain properties before computing.
func WithForceRefresh() CallOption {
	return WithRefreshPolicy(chainprops.RefreshPolicy{Mode: chainprops.RefreshAlways})
}

// WithoutRefresh computes against the cached chain properties only.
func WithoutRefresh() CallOption {
	return WithRefreshPolicy(chainprops.RefreshPolicy{Mode: chainprops.RefreshNever})
}

// At computes time dependent metrics at t instead of now.
func At(t time.Time) CallOption {
	return func(o *callOptions) {
		o.at = t
	}
}

func (c *Client) options(opts []CallOption) callOptions {
	o := callOptions{decimals: defaultDecimals, policy: c.policy}
	for _, opt := range opts {
		opt(&o)
	}
	if o.at.IsZero() {
		o.at = c.now()
	}
	if o.decimals < 0 {
		o.decimals = 0
	}
	return o
}

// RefreshChainProperties fetches a new chain properties snapshot.
func (c *Client) RefreshChainProperties(ctx context.Context) error {
	return c.props.Refresh(ctx)
}

// ChainProperties returns the snapshot the metrics are computed against,
// refreshing it according to the refresh policy.
func (c *Client) ChainProperties(ctx context.Context, opts ...CallOption) (domain.ChainProperties, error) {
	return c.props.Ensure(ctx, c.options(opts).policy)
}

// VotingPower returns the account's current voting power in percent.
func (c *Client) VotingPower(account domain.Account, opts ...CallOption) (decimal.Decimal, error) {
	return calc.VotingPower(account, c.options(opts).at)
}

// NetVestingShares returns own plus received minus delegated vesting shares.
func (c *Client) NetVestingShares(account domain.Account) (decimal.Decimal, error) {
	return calc.NetVestingShares(account)
}

// VoteValue returns the USD value of a vote of weightPercent cast now.
func (c *Client) VoteValue(ctx context.Context, account domain.Account, weightPercent decimal.Decimal, opts ...CallOption) (decimal.Decimal, error) {
	o := c.options(opts)
	props, err := c.props.Ensure(ctx, o.policy)
	if err != nil {
		return decimal.Zero, err
	}
	return calc.VoteValue(account, weightPercent, props, o.at)
}

// Bandwidth returns the account's bandwidth usage.
func (c *Client) Bandwidth(ctx context.Context, account domain.Account, opts ...CallOption) (domain.Bandwidth, error) {
	o := c.options(opts)
	props, err := c.props.Ensure(ctx, o.policy)
	if err != nil {
		return domain.Bandwidth{}, err
	}
	return calc.Bandwidth(account, props, o.at, o.decimals)
}

// Reputation formats a raw reputation score.
func (c *Client) Reputation(raw int64, opts ...CallOption) string {
	return calc.Reputation(raw, c.options(opts).decimals)
}

// AccountValue returns the USD value of the account's liquid and vested holdings.
func (c *Client) AccountValue(ctx context.Context, account domain.Account, opts ...CallOption) (decimal.Decimal, error) {
	props, err := c.props.Ensure(ctx, c.options(opts).policy)
	if err != nil {
		return decimal.Zero, err
	}
	return calc.AccountValue(account, props)
}

// DelegatedNative returns the native value of received minus delegated shares.
func (c *Client) DelegatedNative(ctx context.Context, account domain.Account, opts ...CallOption) (decimal.Decimal, error) {
	props, err := c.props.Ensure(ctx, c.options(opts).policy)
	if err != nil {
		return decimal.Zero, err
	}
	return calc.DelegatedNative(account, props)
}

// PayoutDetails summarises the payout state of a post or comment.
func (c *Client) PayoutDetails(comment domain.Comment) (domain.PayoutDetails, error) {
	return calc.PayoutDetails(comment)
}

// OrderVotes returns a sorted copy of votes. PAYOUT ordering needs chain
// properties and fetches them when the cache is empty, even under
// WithoutRefresh.
func (c *Client) OrderVotes(ctx context.Context, votes []domain.Vote, option domain.OrderOption, opts ...CallOption) ([]domain.Vote, error) {
	var props domain.ChainProperties
	if option == domain.OrderPayout {
		policy := c.options(opts).policy
		if policy.Mode == chainprops.RefreshNever {
			policy.Mode = chainprops.RefreshIfEmpty
		}
		var err error
		if props, err = c.props.Ensure(ctx, policy); err != nil {
			return nil, err
		}
	}
	return ordering.Votes(votes, option, props)
}

// OrderComments returns a sorted copy of comments.
func (c *Client) OrderComments(comments []domain.Comment, option domain.OrderOption) ([]domain.Comment, error) {
	return ordering.Comments(comments, option)
}

// CreatePermalink returns a permalink for a new post titled title, or for a
// reply to parentAuthor/parentPermlink when title is blank.
func (c *Client) CreatePermalink(ctx context.Context, title, parentAuthor, parentPermlink string) (string, error) {
	if strings.TrimSpace(title) != "" && c.account == "" {
		return "", domain.ErrNotLoggedIn
	}
	return c.permalinks.Create(ctx, c.account, title, parentAuthor, parentPermlink)
}

// AccountReport fetches name and computes all of its derived metrics.
func (c *Client) AccountReport(ctx context.Context, name string, opts ...CallOption) (domain.AccountReport, error) {
	account, err := c.chain.GetAccount(ctx, name)
	if err != nil {
		return domain.AccountReport{}, errors.Wrapf(err, "get account %s", name)
	}

	o := c.options(opts)
	props, err := c.props.Ensure(ctx, o.policy)
	if err != nil {
		return domain.AccountReport{}, err
	}

	report := domain.AccountReport{Account: account.Name}
	if report.VotingPower, err = calc.VotingPower(account, o.at); err != nil {
		return domain.AccountReport{}, err
	}
	if report.NetVestingShares, err = calc.NetVestingShares(account); err != nil {
		return domain.AccountReport{}, err
	}
	if report.VoteValue, err = calc.VoteValue(account, fullWeight, props, o.at); err != nil {
		return domain.AccountReport{}, err
	}
	if report.DelegatedNative, err = calc.DelegatedNative(account, props); err != nil {
		return domain.AccountReport{}, err
	}
	if report.AccountValue, err = calc.AccountValue(account, props); err != nil {
		return domain.AccountReport{}, err
	}
	raw, err := calc.ParseReputation(account.Reputation)
	if err != nil {
		return domain.AccountReport{}, err
	}
	report.Reputation = calc.Reputation(raw, o.decimals)

	report.Bandwidth, err = calc.Bandwidth(account, props, o.at, o.decimals)
	if err != nil && !errors.Is(err, domain.ErrNoBandwidthAllocated) {
		return domain.AccountReport{}, err
	}
	return report, nil
}

// Votes fetches the votes of a post or comment in the requested order.
func (c *Client) Votes(ctx context.Context, author, permlink string, option domain.OrderOption, opts ...CallOption) ([]domain.Vote, error) {
	votes, err := c.chain.GetActiveVotes(ctx, author, permlink)
	if err != nil {
		return nil, errors.Wrapf(err, "get votes of %s/%s", author, permlink)
	}
	return c.OrderVotes(ctx, votes, option, opts...)
}

// Comments fetches the direct replies of a post or comment in the requested order.
func (c *Client) Comments(ctx context.Context, author, permlink string, option domain.OrderOption) ([]domain.Comment, error) {
	replies, err := c.chain.GetContentReplies(ctx, author, permlink)
	if err != nil {
		return nil, errors.Wrapf(err, "get replies of %s/%s", author, permlink)
	}
	return c.OrderComments(replies, option)
}
