// Package chainprops caches the chain-wide properties and exchange rates the
// derived metrics are computed against.
package chainprops

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/vadiminshakov/easysteem/internal/domain"
	"github.com/vadiminshakov/easysteem/internal/units"
)

const (
	// RewardFundName is the reward fund used for post payouts.
	RewardFundName = "post"

	defaultNativeSymbol = "STEEM"
	defaultStableSymbol = "SBD"
	defaultFetchTimeout = 10 * time.Second
	refreshKey          = "refresh"
)

// ChainFetcher reads the chain-wide values from a node.
type ChainFetcher interface {
	GetRewardFund(ctx context.Context, name string) (domain.RewardFund, error)
	GetDynamicGlobalProperties(ctx context.Context) (domain.DynamicGlobalProperties, error)
}

// Pricer quotes the USD price of a currency symbol.
type Pricer interface {
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// SnapshotStore persists published snapshots so a restarted process can
// start from the last known values.
type SnapshotStore interface {
	Save(props domain.ChainProperties) error
	Latest() (domain.ChainProperties, bool, error)
}

// Recorder observes refresh outcomes.
type Recorder interface {
	ObserveRefresh(success bool, duration time.Duration)
}

// Cache holds the last successfully fetched snapshot.
//
// A refresh fetches all four sources concurrently and publishes a new
// snapshot only when every fetch succeeded. Concurrent refreshes share one
// in-flight fetch. Readers always see a complete snapshot.
type Cache struct {
	chain        ChainFetcher
	pricer       Pricer
	nativeSymbol string
	stableSymbol string
	fetchTimeout time.Duration
	staleOnError bool
	store        SnapshotStore
	recorder     Recorder
	logger       *zap.Logger
	now          func() time.Time

	current atomic.Pointer[domain.ChainProperties]
	group   singleflight.Group
}

// Option configures the Cache.
type Option func(*Cache)

// WithSymbols sets the native and stable currency symbols quoted by the pricer.
func WithSymbols(native, stable string) Option {
	return func(c *Cache) {
		c.nativeSymbol = native
		c.stableSymbol = stable
	}
}

// WithFetchTimeout bounds every refresh.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) {
		c.fetchTimeout = d
	}
}

// WithStaleOnError makes Ensure fall back to the last known snapshot when a
// refresh fails.
func WithStaleOnError(enabled bool) Option {
	return func(c *Cache) {
		c.staleOnError = enabled
	}
}

// WithStore persists every published snapshot.
func WithStore(store SnapshotStore) Option {
	return func(c *Cache) {
		c.store = store
	}
}

// WithRecorder reports refresh outcomes.
func WithRecorder(r Recorder) Option {
	return func(c *Cache) {
		c.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// WithClock overrides the clock used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates an empty cache.
func New(chain ChainFetcher, pricer Pricer, opts ...Option) *Cache {
	c := &Cache{
		chain:        chain,
		pricer:       pricer,
		nativeSymbol: defaultNativeSymbol,
		stableSymbol: defaultStableSymbol,
		fetchTimeout: defaultFetchTimeout,
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ready reports whether a snapshot has been published.
func (c *Cache) Ready() bool {
	return c.current.Load() != nil
}

// Snapshot returns the current snapshot or ErrPropertiesUnavailable.
func (c *Cache) Snapshot() (domain.ChainProperties, error) {
	p := c.current.Load()
	if p == nil {
		return domain.ChainProperties{}, domain.ErrPropertiesUnavailable
	}
	return *p, nil
}

// Restore loads the newest persisted snapshot into an empty cache.
func (c *Cache) Restore() error {
	if c.store == nil {
		return nil
	}
	props, ok, err := c.store.Latest()
	if err != nil {
		return errors.Wrap(err, "restore chain properties")
	}
	if !ok {
		return nil
	}
	if err := props.Validate(); err != nil {
		c.logger.Warn("ignoring invalid persisted chain properties", zap.Error(err))
		return nil
	}
	if c.current.CompareAndSwap(nil, &props) {
		c.logger.Info("restored chain properties", zap.Time("fetched_at", props.FetchedAt))
	}
	return nil
}

// Refresh fetches a new snapshot and publishes it. On failure the previous
// snapshot is kept and the returned error matches domain.ErrRefreshFailed.
// Concurrent callers share the in-flight refresh and its result.
func (c *Cache) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do(refreshKey, func() (any, error) {
		return nil, c.refresh(ctx)
	})
	return err
}

// Ensure returns a snapshot that satisfies the policy, refreshing first
// when the policy requires it.
func (c *Cache) Ensure(ctx context.Context, policy RefreshPolicy) (domain.ChainProperties, error) {
	current, err := c.Snapshot()
	ready := err == nil

	if !policy.needsRefresh(ready, current.Age(c.now())) {
		return current, err
	}

	if rerr := c.Refresh(ctx); rerr != nil {
		if ready && c.staleOnError {
			c.logger.Warn("chain properties refresh failed, using last known snapshot",
				zap.Time("fetched_at", current.FetchedAt), zap.Error(rerr))
			return current, nil
		}
		return domain.ChainProperties{}, rerr
	}

	return c.Snapshot()
}

func (c *Cache) refresh(ctx context.Context) error {
	start := time.Now()
	logger := c.logger.With(zap.String("refresh_id", uuid.NewString()))

	props, err := c.fetch(ctx)
	if err == nil {
		err = props.Validate()
	}
	if c.recorder != nil {
		c.recorder.ObserveRefresh(err == nil, time.Since(start))
	}
	if err != nil {
		logger.Error("chain properties refresh failed", zap.Error(err))
		return fmt.Errorf("%w: %w", domain.ErrRefreshFailed, err)
	}

	c.current.Store(&props)
	logger.Debug("chain properties refreshed",
		zap.String("native_rate", props.NativeRate.String()),
		zap.String("stable_rate", props.StableRate.String()),
		zap.Duration("took", time.Since(start)))

	if c.store != nil {
		if err := c.store.Save(props); err != nil {
			logger.Warn("failed to persist chain properties", zap.Error(err))
		}
	}
	return nil
}

// fetch runs the four fetches concurrently and builds a snapshot from their
// results. Nothing is published here.
func (c *Cache) fetch(ctx context.Context) (domain.ChainProperties, error) {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	var (
		fund                   domain.RewardFund
		global                 domain.DynamicGlobalProperties
		nativeRate, stableRate decimal.Decimal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		fund, err = c.chain.GetRewardFund(gctx, RewardFundName)
		return errors.Wrap(err, "fetch reward fund")
	})
	g.Go(func() (err error) {
		global, err = c.chain.GetDynamicGlobalProperties(gctx)
		return errors.Wrap(err, "fetch dynamic global properties")
	})
	g.Go(func() (err error) {
		nativeRate, err = c.pricer.GetPrice(gctx, c.nativeSymbol)
		return errors.Wrapf(err, "fetch %s price", c.nativeSymbol)
	})
	g.Go(func() (err error) {
		stableRate, err = c.pricer.GetPrice(gctx, c.stableSymbol)
		return errors.Wrapf(err, "fetch %s price", c.stableSymbol)
	})
	if err := g.Wait(); err != nil {
		return domain.ChainProperties{}, err
	}

	return buildSnapshot(fund, global, nativeRate, stableRate, c.now())
}

func buildSnapshot(fund domain.RewardFund, global domain.DynamicGlobalProperties,
	nativeRate, stableRate decimal.Decimal, fetchedAt time.Time) (domain.ChainProperties, error) {

	rewardBalance, err := units.ParseAmount(fund.RewardBalance)
	if err != nil {
		return domain.ChainProperties{}, errors.Wrap(err, "reward_balance")
	}
	recentClaims, err := fund.RecentClaims.Decimal()
	if err != nil {
		return domain.ChainProperties{}, errors.Wrap(err, "recent_claims")
	}
	totalVestingFund, err := units.ParseAmount(global.TotalVestingFundSteem)
	if err != nil {
		return domain.ChainProperties{}, errors.Wrap(err, "total_vesting_fund_steem")
	}
	totalVestingShares, err := units.ParseAmount(global.TotalVestingShares)
	if err != nil {
		return domain.ChainProperties{}, errors.Wrap(err, "total_vesting_shares")
	}

	// nodes past the resource-credit hardfork no longer report bandwidth
	maxVirtualBandwidth := decimal.Zero
	if global.MaxVirtualBandwidth != "" {
		if maxVirtualBandwidth, err = global.MaxVirtualBandwidth.Decimal(); err != nil {
			return domain.ChainProperties{}, errors.Wrap(err, "max_virtual_bandwidth")
		}
	}

	return domain.ChainProperties{
		RewardBalance:       rewardBalance,
		RecentClaims:        recentClaims,
		TotalVestingFund:    totalVestingFund,
		TotalVestingShares:  totalVestingShares,
		MaxVirtualBandwidth: maxVirtualBandwidth,
		NativeRate:          nativeRate,
		StableRate:          stableRate,
		FetchedAt:           fetchedAt,
	}, nil
}
