package qrlogin

import (
	"context"
	"sync"
	"sync/atomic"

	coreerrors "werss-client/internal/core/errors"
)

// Task 一次轮询任务的句柄
// 任务在成功、失败或取消时结束，结束后其 context 被取消
type Task[T any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	result T
	err    error

	attempts atomic.Int32
}

func newTask[T any](parent context.Context) *Task[T] {
	ctx, cancel := context.WithCancel(parent)
	return &Task[T]{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// finish 只生效一次，返回是否由本次调用结束任务
func (t *Task[T]) finish(v T, err error) bool {
	finished := false
	t.once.Do(func() {
		t.result, t.err = v, err
		finished = true
		t.cancel()
		close(t.done)
	})
	return finished
}

// Cancel 取消任务，等待方收到 ErrCancelled
func (t *Task[T]) Cancel() {
	var zero T
	t.finish(zero, ErrCancelled)
}

// Done 任务结束时关闭
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait 等待任务结束；ctx 结束时返回 ctx 错误，任务本身继续运行
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		var zero T
		return zero, coreerrors.Wrap(ctx.Err(), coreerrors.CodeCancelled, "wait for qr task")
	}
}

// Attempts 已执行的轮询次数
func (t *Task[T]) Attempts() int {
	return int(t.attempts.Load())
}
