package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "werss-client/internal/core/errors"
	corelog "werss-client/internal/core/log"
	"werss-client/internal/core/store/memory"
)

type fakeFetcher struct {
	calls   int32
	release chan struct{}
	payload string
	err     error
	mode    string
}

func (f *fakeFetcher) GetRuntimeSettings(ctx context.Context) (json.RawMessage, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.payload), nil
}

func (f *fakeFetcher) UpdateRuntimeMode(ctx context.Context, mode string) (json.RawMessage, error) {
	f.mode = mode
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"product_mode":"` + mode + `","is_all_free":false,"billing_visible":true}`), nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newCache(t *testing.T, f *fakeFetcher) (*Cache, *memory.MemoryStore[string, string], *clock) {
	t.Helper()
	st := memory.NewMemoryStore[string, string]()
	clk := &clock{now: time.UnixMilli(1_700_000_000_000)}
	c := NewCache(f, st, Options{Logger: corelog.NewTestLogger(t), Now: clk.Now})
	return c, st, clk
}

func TestCache_MergesOverDefaultsAndPersists(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{payload: `{"product_mode":"commercial","is_all_free":false}`}
	c, st, clk := newCache(t, f)

	s := c.Load(ctx, false)
	assert.Equal(t, ModeCommercial, s.ProductMode)
	assert.False(t, s.IsAllFree)
	assert.False(t, s.BillingVisible)
	assert.True(t, s.AnalyticsEnabled)

	ts, err := st.Get(ctx, KeyTimestamp)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(clk.Now().UnixMilli(), 10), ts)

	// 缓存命中不再请求
	assert.Equal(t, s, c.Load(ctx, false))
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.calls))

	// force 绕过缓存
	c.Load(ctx, true)
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.calls))
}

func TestCache_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{payload: `{"analytics_enabled":false}`}
	c, _, clk := newCache(t, f)

	c.Load(ctx, false)
	clk.Advance(60 * time.Second)
	c.Load(ctx, false)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.calls), "exactly 60s is still fresh")

	clk.Advance(time.Millisecond)
	c.Load(ctx, false)
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.calls))
}

func TestCache_ConcurrentLoadsShareOneFetch(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{payload: `{"billing_visible":true}`, release: make(chan struct{})}
	c, _, _ := newCache(t, f)

	const n = 20
	results := make([]Settings, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Load(ctx, false)
		}(i)
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&f.calls) == 1 }, time.Second, time.Millisecond)
	// 等待其余调用方进入 singleflight
	time.Sleep(20 * time.Millisecond)
	close(f.release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&f.calls))
	for _, r := range results {
		assert.True(t, r.BillingVisible)
	}
}

func TestCache_FailureFallsBack(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{payload: `{"product_mode":"commercial","is_all_free":false}`}
	c, _, clk := newCache(t, f)

	// 无缓存时返回默认值
	f.err = errors.New("connection refused")
	assert.Equal(t, Defaults(), c.Load(ctx, false))

	// 有新鲜缓存时 force 失败返回缓存
	f.err = nil
	c.Load(ctx, true)
	f.err = errors.New("connection refused")
	s := c.Load(ctx, true)
	assert.Equal(t, ModeCommercial, s.ProductMode)

	// 缓存过期后失败返回默认值
	clk.Advance(2 * time.Minute)
	assert.Equal(t, Defaults(), c.Load(ctx, false))
}

func TestCache_InvalidPayloadFallsBack(t *testing.T) {
	f := &fakeFetcher{payload: `"not an object"`}
	c, _, _ := newCache(t, f)
	assert.Equal(t, Defaults(), c.Load(context.Background(), false))
}

func TestCache_CallerCancellation(t *testing.T) {
	f := &fakeFetcher{payload: `{"product_mode":"commercial"}`, release: make(chan struct{})}
	c, st, _ := newCache(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Settings, 1)
	go func() { done <- c.Load(ctx, false) }()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&f.calls) == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.Equal(t, Defaults(), <-done)

	// 请求在后台完成并写入缓存
	close(f.release)
	require.Eventually(t, func() bool {
		ok, _ := st.Exists(context.Background(), KeySettings)
		return ok
	}, time.Second, time.Millisecond)
}

func TestCache_ClearAndUpdateMode(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{payload: `{}`}
	c, st, _ := newCache(t, f)

	c.Load(ctx, false)
	c.Clear(ctx)
	ok, err := st.Exists(ctx, KeySettings)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.UpdateMode(ctx, "freemium")
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeInvalidParam))

	s, err := c.UpdateMode(ctx, ModeCommercial)
	require.NoError(t, err)
	assert.Equal(t, ModeCommercial, f.mode)
	assert.True(t, s.BillingVisible)

	// 更新后的值进入缓存
	assert.Equal(t, s, c.Load(ctx, false))

	f.err = coreerrors.New(coreerrors.CodeForbidden, "admin only")
	_, err = c.UpdateMode(ctx, ModeAllFree)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeForbidden))
}
