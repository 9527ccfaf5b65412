// Package qrlogin 微信扫码授权轮询
//
// 两个流程：二维码就绪检测（StartReady）与扫码授权检测（StartStatus）。
// 每个流程同一时刻只有一个任务，新任务启动时取消旧任务。
package qrlogin

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"werss-client/internal/client/api"
	coreerrors "werss-client/internal/core/errors"
	corelog "werss-client/internal/core/log"
	"werss-client/internal/core/safe"
)

const (
	DefaultReadyInterval     = time.Second
	DefaultReadyMaxAttempts  = 18
	DefaultStatusInterval    = 3 * time.Second
	DefaultStatusMaxAttempts = 60

	notifySource = "qrlogin"
)

var (
	ErrCancelled = coreerrors.New(coreerrors.CodeCancelled, "qr polling cancelled")

	// ErrReadyTimeout 轮询次数超限
	ErrReadyTimeout = coreerrors.New(coreerrors.CodeTimeout,
		"qr code generation timed out, check the server's WeChat authorization dependencies and retry")
	// ErrReadyExhausted 最后一次探测仍未就绪
	ErrReadyExhausted = coreerrors.New(coreerrors.CodeTimeout, "qr code generation failed, please retry later")
	// ErrAuthTimeout 扫码授权超时
	ErrAuthTimeout = coreerrors.New(coreerrors.CodeTimeout, "scan authorization timed out, please fetch a new qr code")

	defaultCodeMessage = "failed to fetch qr code, please retry later"
)

// API 轮询依赖的服务端接口
type API interface {
	GetQRCode(ctx context.Context) (*api.QRCodeResult, error)
	GetQRStatus(ctx context.Context) (*api.QRStatus, error)
	Head(ctx context.Context, url string) (int, error)
}

// Notifier 授权成功提示
type Notifier interface {
	Success(source, message string)
}

// Options 轮询参数
type Options struct {
	ReadyInterval     time.Duration
	ReadyMaxAttempts  int
	StatusInterval    time.Duration
	StatusMaxAttempts int

	Notifier Notifier
	Logger   corelog.Logger
}

// Poller 扫码授权轮询器
type Poller struct {
	api    API
	opts   Options
	logger corelog.Logger

	mu     sync.Mutex
	ready  *Task[*api.QRCodeResult]
	status *Task[*api.QRStatus]
}

// NewPoller 创建轮询器
func NewPoller(client API, opts Options) *Poller {
	if opts.ReadyInterval <= 0 {
		opts.ReadyInterval = DefaultReadyInterval
	}
	if opts.ReadyMaxAttempts <= 0 {
		opts.ReadyMaxAttempts = DefaultReadyMaxAttempts
	}
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = DefaultStatusInterval
	}
	if opts.StatusMaxAttempts <= 0 {
		opts.StatusMaxAttempts = DefaultStatusMaxAttempts
	}
	return &Poller{
		api:    client,
		opts:   opts,
		logger: corelog.OrDefault(opts.Logger).WithField("component", "qrlogin"),
	}
}

// StartReady 获取二维码并等待其可用
func (p *Poller) StartReady(ctx context.Context) *Task[*api.QRCodeResult] {
	task := newTask[*api.QRCodeResult](ctx)

	p.mu.Lock()
	prev := p.ready
	p.ready = task
	p.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}

	safe.Go("qr-ready", func() { p.runReady(task) })
	return task
}

func (p *Poller) runReady(task *Task[*api.QRCodeResult]) {
	defer p.releaseReady(task)

	res, err := p.api.GetQRCode(task.ctx)
	if task.ctx.Err() != nil {
		task.Cancel()
		return
	}
	if err != nil {
		task.finish(nil, err)
		return
	}
	if res.Code == "" {
		msg := res.Msg
		if msg == "" {
			msg = defaultCodeMessage
		}
		task.finish(nil, coreerrors.New(coreerrors.CodeRemoteError, msg))
		return
	}
	if res.IsExists {
		task.finish(res, nil)
		return
	}

	ticker := time.NewTicker(p.opts.ReadyInterval)
	defer ticker.Stop()

	for {
		select {
		case <-task.ctx.Done():
			task.Cancel()
			return
		case <-ticker.C:
		}

		n := int(task.attempts.Add(1))
		if n > p.opts.ReadyMaxAttempts {
			task.finish(nil, ErrReadyTimeout)
			return
		}

		probe := p.probe(task.ctx, res.Code)
		if task.ctx.Err() != nil {
			task.Cancel()
			return
		}

		if probe.statusErr == nil && probe.status != nil {
			if probe.status.ErrorMessage != "" {
				task.finish(nil, coreerrors.New(coreerrors.CodeRemoteError, probe.status.ErrorMessage))
				return
			}
			if probe.status.LoginStatus {
				task.finish(res, nil)
				return
			}
		}
		if probe.headErr == nil && probe.headCode == http.StatusOK {
			task.finish(res, nil)
			return
		}

		if n >= p.opts.ReadyMaxAttempts {
			task.finish(nil, ErrReadyExhausted)
			return
		}
		p.logger.Debugf("qr code not ready yet (attempt %d/%d)", n, p.opts.ReadyMaxAttempts)
	}
}

type probeResult struct {
	headCode  int
	headErr   error
	status    *api.QRStatus
	statusErr error
}

// probe 并发探测二维码图片与授权状态，两者都完成后返回
func (p *Poller) probe(ctx context.Context, imageURL string) probeResult {
	var (
		out probeResult
		g   errgroup.Group
	)
	g.Go(func() error {
		out.headCode, out.headErr = p.api.Head(ctx, imageURL)
		return nil
	})
	g.Go(func() error {
		out.status, out.statusErr = p.api.GetQRStatus(ctx)
		return nil
	})
	_ = g.Wait()
	return out
}

// StartStatus 等待用户扫码授权
func (p *Poller) StartStatus(ctx context.Context) *Task[*api.QRStatus] {
	task := newTask[*api.QRStatus](ctx)

	p.mu.Lock()
	prev := p.status
	p.status = task
	p.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}

	safe.Go("qr-status", func() { p.runStatus(task) })
	return task
}

func (p *Poller) runStatus(task *Task[*api.QRStatus]) {
	defer p.releaseStatus(task)

	ticker := time.NewTicker(p.opts.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-task.ctx.Done():
			task.Cancel()
			return
		case <-ticker.C:
		}

		n := int(task.attempts.Add(1))
		if n > p.opts.StatusMaxAttempts {
			task.finish(nil, ErrAuthTimeout)
			return
		}

		st, err := p.api.GetQRStatus(task.ctx)
		if task.ctx.Err() != nil {
			task.Cancel()
			return
		}
		if err != nil {
			if n >= p.opts.StatusMaxAttempts {
				task.finish(nil, err)
				return
			}
			p.logger.WithError(err).Debugf("qr status check failed (attempt %d/%d)", n, p.opts.StatusMaxAttempts)
			continue
		}
		if st.ErrorMessage != "" {
			task.finish(nil, coreerrors.New(coreerrors.CodeRemoteError, st.ErrorMessage))
			return
		}
		if st.LoginStatus {
			if p.opts.Notifier != nil {
				p.opts.Notifier.Success(notifySource, "authorization succeeded")
			}
			task.finish(st, nil)
			return
		}
	}
}

// StopStatus 停止授权检测
func (p *Poller) StopStatus() {
	p.mu.Lock()
	task := p.status
	p.status = nil
	p.mu.Unlock()
	if task != nil {
		task.Cancel()
	}
}

// Stop 停止全部轮询，可重复调用
func (p *Poller) Stop() {
	p.mu.Lock()
	ready := p.ready
	p.ready = nil
	p.mu.Unlock()
	if ready != nil {
		ready.Cancel()
	}
	p.StopStatus()
}

func (p *Poller) releaseReady(task *Task[*api.QRCodeResult]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready == task {
		p.ready = nil
	}
}

func (p *Poller) releaseStatus(task *Task[*api.QRStatus]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == task {
		p.status = nil
	}
}
