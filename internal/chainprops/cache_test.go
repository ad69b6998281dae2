package chainprops

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/easysteem/internal/domain"
)

type fakeChain struct {
	mu        sync.Mutex
	fund      domain.RewardFund
	global    domain.DynamicGlobalProperties
	fundErr   error
	globalErr error
	block     chan struct{}
	calls     atomic.Int32
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		fund: domain.RewardFund{
			Name:          "post",
			RewardBalance: "800000.000 STEEM",
			RecentClaims:  "400000000000000000",
		},
		global: domain.DynamicGlobalProperties{
			TotalVestingFundSteem: "200000000.000 STEEM",
			TotalVestingShares:    "400000000000.000000 VESTS",
			MaxVirtualBandwidth:   "264241152000000000000",
		},
	}
}

func (f *fakeChain) GetRewardFund(ctx context.Context, name string) (domain.RewardFund, error) {
	f.calls.Add(1)
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return domain.RewardFund{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fund, f.fundErr
}

func (f *fakeChain) GetDynamicGlobalProperties(_ context.Context) (domain.DynamicGlobalProperties, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.global, f.globalErr
}

func (f *fakeChain) set(fn func(f *fakeChain)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

type fakePricer struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
	errs   map[string]error
}

func newFakePricer() *fakePricer {
	return &fakePricer{
		prices: map[string]decimal.Decimal{
			"STEEM": decimal.NewFromInt(2),
			"SBD":   decimal.NewFromInt(1),
		},
		errs: map[string]error{},
	}
}

func (p *fakePricer) GetPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.errs[symbol]; err != nil {
		return decimal.Zero, err
	}
	price, ok := p.prices[symbol]
	if !ok {
		return decimal.Zero, errors.Errorf("no price for %s", symbol)
	}
	return price, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memStore struct {
	saved []domain.ChainProperties
}

func (s *memStore) Save(props domain.ChainProperties) error {
	s.saved = append(s.saved, props)
	return nil
}

func (s *memStore) Latest() (domain.ChainProperties, bool, error) {
	if len(s.saved) == 0 {
		return domain.ChainProperties{}, false, nil
	}
	return s.saved[len(s.saved)-1], true, nil
}

type countingRecorder struct {
	successes, failures atomic.Int32
}

func (r *countingRecorder) ObserveRefresh(success bool, _ time.Duration) {
	if success {
		r.successes.Add(1)
	} else {
		r.failures.Add(1)
	}
}

var t0 = time.Date(2018, 3, 20, 12, 0, 0, 0, time.UTC)

func newTestCache(chain *fakeChain, pricer *fakePricer, opts ...Option) (*Cache, *fakeClock) {
	clock := &fakeClock{now: t0}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(chain, pricer, opts...), clock
}

func TestCache_EmptySnapshot(t *testing.T) {
	cache, _ := newTestCache(newFakeChain(), newFakePricer())

	assert.False(t, cache.Ready())
	_, err := cache.Snapshot()
	require.ErrorIs(t, err, domain.ErrPropertiesUnavailable)
}

func TestCache_Refresh(t *testing.T) {
	cache, _ := newTestCache(newFakeChain(), newFakePricer())

	require.NoError(t, cache.Refresh(context.Background()))
	require.True(t, cache.Ready())

	props, err := cache.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "800000", props.RewardBalance.String())
	assert.Equal(t, "400000000000000000", props.RecentClaims.String())
	assert.Equal(t, "200000000", props.TotalVestingFund.String())
	assert.Equal(t, "400000000000", props.TotalVestingShares.String())
	assert.Equal(t, "264241152000000000000", props.MaxVirtualBandwidth.String())
	assert.Equal(t, "2", props.NativeRate.String())
	assert.Equal(t, "1", props.StableRate.String())
	assert.True(t, t0.Equal(props.FetchedAt))
}

func TestCache_RefreshIsAtomic(t *testing.T) {
	fetchErr := errors.New("node unavailable")

	tests := []struct {
		name    string
		breakFn func(chain *fakeChain, pricer *fakePricer)
	}{
		{
			name: "reward fund fails",
			breakFn: func(chain *fakeChain, _ *fakePricer) {
				chain.set(func(f *fakeChain) { f.fundErr = fetchErr })
			},
		},
		{
			name: "global properties fail",
			breakFn: func(chain *fakeChain, _ *fakePricer) {
				chain.set(func(f *fakeChain) { f.globalErr = fetchErr })
			},
		},
		{
			name: "native price fails",
			breakFn: func(_ *fakeChain, pricer *fakePricer) {
				pricer.errs["STEEM"] = fetchErr
			},
		},
		{
			name: "stable price fails",
			breakFn: func(_ *fakeChain, pricer *fakePricer) {
				pricer.errs["SBD"] = fetchErr
			},
		},
		{
			name: "malformed reward balance",
			breakFn: func(chain *fakeChain, _ *fakePricer) {
				chain.set(func(f *fakeChain) { f.fund.RewardBalance = "lots STEEM" })
			},
		},
		{
			name: "zero total vesting shares",
			breakFn: func(chain *fakeChain, _ *fakePricer) {
				chain.set(func(f *fakeChain) { f.global.TotalVestingShares = "0.000000 VESTS" })
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, pricer := newFakeChain(), newFakePricer()
			cache, clock := newTestCache(chain, pricer)

			require.NoError(t, cache.Refresh(context.Background()))
			before, err := cache.Snapshot()
			require.NoError(t, err)

			tt.breakFn(chain, pricer)
			pricer.prices["STEEM"] = decimal.NewFromInt(3)
			clock.Advance(time.Hour)

			err = cache.Refresh(context.Background())
			require.ErrorIs(t, err, domain.ErrRefreshFailed)

			after, err := cache.Snapshot()
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestCache_RefreshFailureKeepsEmptyCacheEmpty(t *testing.T) {
	chain := newFakeChain()
	chain.fund.RewardBalance = "n/a"
	cache, _ := newTestCache(chain, newFakePricer())

	err := cache.Refresh(context.Background())
	require.ErrorIs(t, err, domain.ErrRefreshFailed)
	require.ErrorIs(t, err, domain.ErrMalformedAmount)
	assert.False(t, cache.Ready())
}

func TestCache_RefreshTimeout(t *testing.T) {
	chain := newFakeChain()
	chain.block = make(chan struct{})
	cache, _ := newTestCache(chain, newFakePricer(), WithFetchTimeout(20*time.Millisecond))

	err := cache.Refresh(context.Background())
	require.ErrorIs(t, err, domain.ErrRefreshFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCache_ConcurrentRefreshesCoalesce(t *testing.T) {
	chain := newFakeChain()
	chain.block = make(chan struct{})
	cache, _ := newTestCache(chain, newFakePricer())

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- cache.Refresh(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return chain.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(chain.block)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), chain.calls.Load())
	assert.True(t, cache.Ready())
}

func TestCache_Ensure(t *testing.T) {
	t.Run("never on empty cache", func(t *testing.T) {
		chain := newFakeChain()
		cache, _ := newTestCache(chain, newFakePricer())

		_, err := cache.Ensure(context.Background(), RefreshPolicy{Mode: RefreshNever})
		require.ErrorIs(t, err, domain.ErrPropertiesUnavailable)
		assert.Equal(t, int32(0), chain.calls.Load())
	})

	t.Run("if empty refreshes once", func(t *testing.T) {
		chain := newFakeChain()
		cache, _ := newTestCache(chain, newFakePricer())
		policy := RefreshPolicy{Mode: RefreshIfEmpty}

		for i := 0; i < 3; i++ {
			_, err := cache.Ensure(context.Background(), policy)
			require.NoError(t, err)
		}
		assert.Equal(t, int32(1), chain.calls.Load())
	})

	t.Run("always refreshes", func(t *testing.T) {
		chain := newFakeChain()
		cache, _ := newTestCache(chain, newFakePricer())
		policy := RefreshPolicy{Mode: RefreshAlways}

		for i := 0; i < 3; i++ {
			_, err := cache.Ensure(context.Background(), policy)
			require.NoError(t, err)
		}
		assert.Equal(t, int32(3), chain.calls.Load())
	})

	t.Run("if stale honours max age", func(t *testing.T) {
		chain := newFakeChain()
		cache, clock := newTestCache(chain, newFakePricer())
		policy := RefreshPolicy{Mode: RefreshIfStale, MaxAge: time.Minute}

		_, err := cache.Ensure(context.Background(), policy)
		require.NoError(t, err)
		assert.Equal(t, int32(1), chain.calls.Load())

		clock.Advance(30 * time.Second)
		_, err = cache.Ensure(context.Background(), policy)
		require.NoError(t, err)
		assert.Equal(t, int32(1), chain.calls.Load())

		clock.Advance(time.Minute)
		props, err := cache.Ensure(context.Background(), policy)
		require.NoError(t, err)
		assert.Equal(t, int32(2), chain.calls.Load())
		assert.True(t, t0.Add(90*time.Second).Equal(props.FetchedAt))
	})

	t.Run("refresh failure surfaces", func(t *testing.T) {
		chain := newFakeChain()
		cache, _ := newTestCache(chain, newFakePricer())
		require.NoError(t, cache.Refresh(context.Background()))

		chain.set(func(f *fakeChain) { f.fundErr = errors.New("down") })
		_, err := cache.Ensure(context.Background(), RefreshPolicy{Mode: RefreshAlways})
		require.ErrorIs(t, err, domain.ErrRefreshFailed)
	})

	t.Run("stale on error reuses last known", func(t *testing.T) {
		chain := newFakeChain()
		cache, _ := newTestCache(chain, newFakePricer(), WithStaleOnError(true))
		require.NoError(t, cache.Refresh(context.Background()))
		before, err := cache.Snapshot()
		require.NoError(t, err)

		chain.set(func(f *fakeChain) { f.fundErr = errors.New("down") })
		props, err := cache.Ensure(context.Background(), RefreshPolicy{Mode: RefreshAlways})
		require.NoError(t, err)
		assert.Equal(t, before, props)
	})

	t.Run("stale on error still fails on empty cache", func(t *testing.T) {
		chain := newFakeChain()
		chain.fundErr = errors.New("down")
		cache, _ := newTestCache(chain, newFakePricer(), WithStaleOnError(true))

		_, err := cache.Ensure(context.Background(), DefaultPolicy())
		require.ErrorIs(t, err, domain.ErrRefreshFailed)
	})
}

func TestCache_StoreAndRestore(t *testing.T) {
	store := &memStore{}
	cache, _ := newTestCache(newFakeChain(), newFakePricer(), WithStore(store))
	require.NoError(t, cache.Refresh(context.Background()))
	require.Len(t, store.saved, 1)

	failing := newFakeChain()
	failing.fundErr = errors.New("down")
	restored, _ := newTestCache(failing, newFakePricer(), WithStore(store))
	require.NoError(t, restored.Restore())
	require.True(t, restored.Ready())

	props, err := restored.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, store.saved[0], props)
}

func TestCache_Recorder(t *testing.T) {
	chain := newFakeChain()
	recorder := &countingRecorder{}
	cache, _ := newTestCache(chain, newFakePricer(), WithRecorder(recorder))

	require.NoError(t, cache.Refresh(context.Background()))
	chain.set(func(f *fakeChain) { f.globalErr = errors.New("down") })
	require.Error(t, cache.Refresh(context.Background()))

	assert.Equal(t, int32(1), recorder.successes.Load())
	assert.Equal(t, int32(1), recorder.failures.Load())
}

func TestParseRefreshMode(t *testing.T) {
	for _, mode := range []RefreshMode{RefreshIfStale, RefreshAlways, RefreshIfEmpty, RefreshNever} {
		parsed, err := ParseRefreshMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, parsed)
	}

	parsed, err := ParseRefreshMode("")
	require.NoError(t, err)
	assert.Equal(t, RefreshIfStale, parsed)

	_, err = ParseRefreshMode("sometimes")
	require.Error(t, err)
}
