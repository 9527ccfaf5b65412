// Package tracker 实现客户端埋点事件的批量上报队列
package tracker

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"werss-client/internal/client/api"
	corelog "werss-client/internal/core/log"
	"werss-client/internal/core/safe"
)

const (
	DefaultBatchLimit    = 30
	DefaultMaxQueue      = 400
	DefaultFlushInterval = 6 * time.Second

	defaultDeliveryTimeout = 15 * time.Second

	// createdAtLayout UTC 毫秒精度
	createdAtLayout = "2006-01-02T15:04:05.000Z"
)

// Transport 上报通道
type Transport interface {
	ReportEvents(ctx context.Context, events []api.Event) error
}

// Beacon 即发即弃通道，接受即视为成功
type Beacon interface {
	SendBeacon(url string, payload []byte) bool
}

// Options 队列选项
type Options struct {
	BatchLimit      int
	MaxQueue        int
	FlushInterval   time.Duration
	DeliveryTimeout time.Duration

	// Beacon 与 BeaconURL 同时设置时，隐藏状态下优先使用 beacon
	Beacon    Beacon
	BeaconURL string

	// Page 返回当前页面路径，用于补全事件的 page
	Page func() string
	Now  func() time.Time

	Registerer prometheus.Registerer
	Logger     corelog.Logger
}

// Tracker 埋点队列
type Tracker struct {
	transport Transport
	opts      Options
	logger    corelog.Logger
	metrics   *metrics

	mu    sync.Mutex
	queue []api.Event

	enabled  atomic.Bool
	hidden   atomic.Bool
	flushing atomic.Bool

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	loopDone    chan struct{}
	inflight    sync.WaitGroup
}

// New 创建埋点队列，默认启用
func New(transport Transport, opts Options) *Tracker {
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = DefaultBatchLimit
	}
	if opts.MaxQueue <= 0 {
		opts.MaxQueue = DefaultMaxQueue
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultFlushInterval
	}
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = defaultDeliveryTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	t := &Tracker{
		transport: transport,
		opts:      opts,
		logger:    corelog.OrDefault(opts.Logger),
		metrics:   newMetrics(opts.Registerer),
	}
	t.enabled.Store(true)
	return t
}

// SetEnabled 设置启用状态（启动时根据运行时设置决定一次）
func (t *Tracker) SetEnabled(enabled bool) {
	t.enabled.Store(enabled)
}

// Enabled 是否启用
func (t *Tracker) Enabled() bool {
	return t.enabled.Load()
}

// Len 当前队列长度
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

// Snapshot 返回队列副本
func (t *Tracker) Snapshot() []api.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]api.Event, len(t.queue))
	copy(out, t.queue)
	return out
}

// Track 入队事件，达到批量阈值时异步触发上报
func (t *Tracker) Track(ev api.Event) {
	if !t.enabled.Load() {
		return
	}

	ev = ev.Clone()
	if ev.Page == "" && t.opts.Page != nil {
		ev.Page = t.opts.Page()
	}
	if ev.CreatedAt == "" {
		ev.CreatedAt = t.opts.Now().UTC().Format(createdAtLayout)
	}

	t.mu.Lock()
	t.queue = append(t.queue, ev)
	n := len(t.queue)
	t.mu.Unlock()

	t.metrics.enqueued.Inc()
	t.metrics.queueLength.Set(float64(n))

	if n >= t.opts.BatchLimit {
		t.flushAsync()
	}
}

// SetHidden 更新页面可见性，进入隐藏状态时触发上报
func (t *Tracker) SetHidden(hidden bool) {
	t.hidden.Store(hidden)
	if hidden {
		t.flushAsync()
	}
}

// Hidden 是否处于隐藏状态
func (t *Tracker) Hidden() bool {
	return t.hidden.Load()
}

func (t *Tracker) flushAsync() {
	t.inflight.Add(1)
	safe.Go("tracker-flush", func() {
		defer t.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), t.opts.DeliveryTimeout)
		defer cancel()
		_ = t.Flush(ctx)
	})
}

// Flush 上报队首最多 BatchLimit 条事件
// 已有上报进行中、队列为空或未启用时直接返回
// 失败时该批事件放回队首，队列截断到 MaxQueue
func (t *Tracker) Flush(ctx context.Context) error {
	if !t.enabled.Load() {
		return nil
	}
	if !t.flushing.CompareAndSwap(false, true) {
		return nil
	}
	defer t.flushing.Store(false)

	t.mu.Lock()
	if len(t.queue) == 0 {
		t.mu.Unlock()
		return nil
	}
	n := min(len(t.queue), t.opts.BatchLimit)
	batch := make([]api.Event, n)
	copy(batch, t.queue[:n])
	t.queue = append([]api.Event(nil), t.queue[n:]...)
	remaining := len(t.queue)
	t.mu.Unlock()
	t.metrics.queueLength.Set(float64(remaining))

	err := t.deliver(ctx, batch)
	if err == nil {
		t.metrics.delivered.Add(float64(n))
		return nil
	}

	t.mu.Lock()
	combined := make([]api.Event, 0, len(batch)+len(t.queue))
	combined = append(combined, batch...)
	combined = append(combined, t.queue...)
	dropped := 0
	if len(combined) > t.opts.MaxQueue {
		dropped = len(combined) - t.opts.MaxQueue
		combined = combined[:t.opts.MaxQueue]
	}
	t.queue = combined
	size := len(t.queue)
	t.mu.Unlock()

	t.metrics.flushFailures.Inc()
	t.metrics.queueLength.Set(float64(size))
	if dropped > 0 {
		t.metrics.dropped.Add(float64(dropped))
	}
	t.logger.WithError(err).Debugf("tracker: flush of %d events failed, requeued (queue=%d, dropped=%d)", n, size, dropped)
	return err
}

// Drain 连续上报直到队列为空或上报失败
func (t *Tracker) Drain(ctx context.Context) error {
	for t.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if t.flushing.Load() {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if err := t.Flush(ctx); err != nil {
			return err
		}
		if !t.enabled.Load() {
			return nil
		}
	}
	return nil
}

// deliver 隐藏状态优先 beacon，被拒绝时退回 POST
func (t *Tracker) deliver(ctx context.Context, batch []api.Event) error {
	if t.hidden.Load() && t.opts.Beacon != nil && t.opts.BeaconURL != "" {
		payload, err := json.Marshal(api.EventBatch{Events: batch})
		if err == nil && t.opts.Beacon.SendBeacon(t.opts.BeaconURL, payload) {
			return nil
		}
	}
	return t.transport.ReportEvents(ctx, batch)
}

// Start 启动定时上报
func (t *Tracker) Start(ctx context.Context) {
	t.lifecycleMu.Lock()
	defer t.lifecycleMu.Unlock()
	if t.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.loopDone = make(chan struct{})
	done := t.loopDone
	safe.Go("tracker-loop", func() { t.loop(loopCtx, done) })
}

func (t *Tracker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(t.opts.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			flushCtx, cancel := context.WithTimeout(ctx, t.opts.DeliveryTimeout)
			_ = t.Flush(flushCtx)
			cancel()
		}
	}
}

// Stop 停止定时上报并做最后一次尽力上报，可重复调用
func (t *Tracker) Stop() {
	t.lifecycleMu.Lock()
	cancel, done := t.cancel, t.loopDone
	t.cancel, t.loopDone = nil, nil
	t.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	t.inflight.Wait()

	ctx, cancelFlush := context.WithTimeout(context.Background(), t.opts.DeliveryTimeout)
	defer cancelFlush()
	if err := t.Flush(ctx); err != nil {
		t.logger.Debugf("tracker: final flush failed: %v", err)
	}
}
