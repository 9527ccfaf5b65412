package qrlogin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"werss-client/internal/client/api"
	coreerrors "werss-client/internal/core/errors"
	corelog "werss-client/internal/core/log"
)

const tick = 5 * time.Millisecond

type fakeAPI struct {
	mu sync.Mutex

	code    *api.QRCodeResult
	codeErr error

	// 第 n 次调用（从 1 开始）的返回
	head   func(n int) (int, error)
	status func(n int) (*api.QRStatus, error)

	headCalls   int
	statusCalls int
}

func (f *fakeAPI) GetQRCode(ctx context.Context) (*api.QRCodeResult, error) {
	return f.code, f.codeErr
}

func (f *fakeAPI) GetQRStatus(ctx context.Context) (*api.QRStatus, error) {
	f.mu.Lock()
	f.statusCalls++
	n := f.statusCalls
	fn := f.status
	f.mu.Unlock()
	if fn == nil {
		return &api.QRStatus{}, nil
	}
	return fn(n)
}

func (f *fakeAPI) Head(ctx context.Context, url string) (int, error) {
	f.mu.Lock()
	f.headCalls++
	n := f.headCalls
	fn := f.head
	f.mu.Unlock()
	if fn == nil {
		return 404, nil
	}
	return fn(n)
}

func (f *fakeAPI) calls() (head, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.headCalls, f.statusCalls
}

type successRecorder struct {
	mu       sync.Mutex
	messages []string
}

func (s *successRecorder) Success(source, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, source+":"+message)
}

func newTestPoller(t *testing.T, f *fakeAPI, n Notifier) *Poller {
	return NewPoller(f, Options{
		ReadyInterval:  tick,
		StatusInterval: tick,
		Notifier:       n,
		Logger:         corelog.NewTestLogger(t),
	})
}

func waitCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestReady_ResolvesOnThirdTickWithoutFurtherTicks(t *testing.T) {
	f := &fakeAPI{
		code: &api.QRCodeResult{Code: "http://localhost/static/qr.png"},
		head: func(n int) (int, error) {
			if n == 3 {
				return 200, nil
			}
			return 404, nil
		},
	}
	p := newTestPoller(t, f, nil)

	task := p.StartReady(context.Background())
	res, err := task.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/static/qr.png", res.Code)
	assert.Equal(t, 3, task.Attempts())

	time.Sleep(5 * tick)
	head, status := f.calls()
	assert.Equal(t, 3, head)
	assert.Equal(t, 3, status)
}

func TestReady_LoginStatusResolvesOnThirdTick(t *testing.T) {
	f := &fakeAPI{
		code: &api.QRCodeResult{Code: "/static/qr.png"},
		status: func(n int) (*api.QRStatus, error) {
			return &api.QRStatus{LoginStatus: n == 3}, nil
		},
	}
	p := newTestPoller(t, f, nil)

	task := p.StartReady(context.Background())
	res, err := task.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "/static/qr.png", res.Code)
	assert.Equal(t, 3, task.Attempts())

	time.Sleep(5 * tick)
	head, status := f.calls()
	assert.Equal(t, 3, head)
	assert.Equal(t, 3, status)
}

func TestReady_SilentTicksTimeOut(t *testing.T) {
	f := &fakeAPI{code: &api.QRCodeResult{Code: "http://localhost/static/qr.png"}}
	p := newTestPoller(t, f, nil)

	task := p.StartReady(context.Background())
	_, err := task.Wait(waitCtx(t))
	require.Error(t, err)
	assert.True(t, coreerrors.IsTimeout(err))
	assert.Equal(t, DefaultReadyMaxAttempts, task.Attempts())

	time.Sleep(5 * tick)
	head, _ := f.calls()
	assert.Equal(t, DefaultReadyMaxAttempts, head)
}

func TestReady_TransientErrorsAreSwallowed(t *testing.T) {
	f := &fakeAPI{
		code: &api.QRCodeResult{Code: "http://localhost/static/qr.png"},
		head: func(n int) (int, error) { return 0, coreerrors.ErrNetwork },
		status: func(n int) (*api.QRStatus, error) {
			if n < 4 {
				return nil, coreerrors.ErrNetwork
			}
			return &api.QRStatus{LoginStatus: true}, nil
		},
	}
	p := newTestPoller(t, f, nil)

	task := p.StartReady(context.Background())
	_, err := task.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 4, task.Attempts())
}

func TestReady_StatusErrorMessageRejects(t *testing.T) {
	f := &fakeAPI{
		code: &api.QRCodeResult{Code: "http://localhost/static/qr.png"},
		head: func(n int) (int, error) { return 200, nil },
		status: func(n int) (*api.QRStatus, error) {
			return &api.QRStatus{ErrorMessage: "driver missing"}, nil
		},
	}
	p := newTestPoller(t, f, nil)

	_, err := p.StartReady(context.Background()).Wait(waitCtx(t))
	require.Error(t, err)
	assert.True(t, coreerrors.IsRemote(err))
	assert.Equal(t, "driver missing", coreerrors.Message(err))
}

func TestReady_ImmediateOutcomes(t *testing.T) {
	t.Run("exists", func(t *testing.T) {
		f := &fakeAPI{code: &api.QRCodeResult{Code: "u", IsExists: true}}
		task := newTestPoller(t, f, nil).StartReady(context.Background())
		res, err := task.Wait(waitCtx(t))
		require.NoError(t, err)
		assert.True(t, res.IsExists)
		assert.Equal(t, 0, task.Attempts())
	})
	t.Run("empty code uses server message", func(t *testing.T) {
		f := &fakeAPI{code: &api.QRCodeResult{Msg: "busy"}}
		_, err := newTestPoller(t, f, nil).StartReady(context.Background()).Wait(waitCtx(t))
		require.Error(t, err)
		assert.Equal(t, "busy", coreerrors.Message(err))
	})
	t.Run("empty code default message", func(t *testing.T) {
		f := &fakeAPI{code: &api.QRCodeResult{}}
		_, err := newTestPoller(t, f, nil).StartReady(context.Background()).Wait(waitCtx(t))
		require.Error(t, err)
		assert.Equal(t, defaultCodeMessage, coreerrors.Message(err))
	})
	t.Run("transport error", func(t *testing.T) {
		f := &fakeAPI{codeErr: coreerrors.ErrNetwork}
		_, err := newTestPoller(t, f, nil).StartReady(context.Background()).Wait(waitCtx(t))
		assert.True(t, errors.Is(err, coreerrors.ErrNetwork))
	})
}

func TestReady_NewStartCancelsPrevious(t *testing.T) {
	f := &fakeAPI{code: &api.QRCodeResult{Code: "u"}}
	p := NewPoller(f, Options{ReadyInterval: time.Hour})

	first := p.StartReady(context.Background())
	second := p.StartReady(context.Background())

	_, err := first.Wait(waitCtx(t))
	assert.True(t, errors.Is(err, ErrCancelled))

	select {
	case <-second.Done():
		t.Fatal("second task should still be running")
	default:
	}
	p.Stop()
	_, err = second.Wait(waitCtx(t))
	assert.True(t, coreerrors.IsCancelled(err))
	p.Stop()
}

func TestStatus_SuccessNotifies(t *testing.T) {
	f := &fakeAPI{status: func(n int) (*api.QRStatus, error) {
		return &api.QRStatus{LoginStatus: n == 2}, nil
	}}
	rec := &successRecorder{}
	p := newTestPoller(t, f, rec)

	task := p.StartStatus(context.Background())
	st, err := task.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.True(t, st.LoginStatus)
	assert.Equal(t, 2, task.Attempts())
	assert.Equal(t, []string{"qrlogin:authorization succeeded"}, rec.messages)
}

func TestStatus_ErrorOnFinalAttemptRejects(t *testing.T) {
	f := &fakeAPI{status: func(n int) (*api.QRStatus, error) {
		return nil, coreerrors.ErrNetwork
	}}
	p := NewPoller(f, Options{StatusInterval: tick, StatusMaxAttempts: 4})

	task := p.StartStatus(context.Background())
	_, err := task.Wait(waitCtx(t))
	assert.True(t, errors.Is(err, coreerrors.ErrNetwork))
	assert.Equal(t, 4, task.Attempts())
}

func TestStatus_ExhaustionTimesOut(t *testing.T) {
	f := &fakeAPI{}
	p := NewPoller(f, Options{StatusInterval: tick, StatusMaxAttempts: 3})

	task := p.StartStatus(context.Background())
	_, err := task.Wait(waitCtx(t))
	assert.True(t, errors.Is(err, ErrAuthTimeout))
	_, status := f.calls()
	assert.Equal(t, 3, status)
}

func TestStatus_ErrorMessageRejects(t *testing.T) {
	f := &fakeAPI{status: func(n int) (*api.QRStatus, error) {
		return &api.QRStatus{ErrorMessage: "expired"}, nil
	}}
	_, err := newTestPoller(t, f, nil).StartStatus(context.Background()).Wait(waitCtx(t))
	assert.True(t, coreerrors.IsRemote(err))
}

func TestTask_ParentContextCancellation(t *testing.T) {
	f := &fakeAPI{}
	p := NewPoller(f, Options{StatusInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	task := p.StartStatus(ctx)
	cancel()

	_, err := task.Wait(waitCtx(t))
	assert.True(t, errors.Is(err, ErrCancelled))
}

func TestTask_WaitContextExpires(t *testing.T) {
	f := &fakeAPI{}
	p := NewPoller(f, Options{StatusInterval: time.Hour})
	defer p.Stop()

	task := p.StartStatus(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), tick)
	defer cancel()
	_, err := task.Wait(ctx)
	assert.True(t, coreerrors.IsCancelled(err))

	select {
	case <-task.Done():
		t.Fatal("task should keep running after Wait gives up")
	default:
	}
}
