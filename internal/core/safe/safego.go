// Package safe 带 panic 恢复的 goroutine 启动
package safe

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	corelog "werss-client/internal/core/log"
)

var (
	activeCount atomic.Int64
	totalCount  atomic.Int64
	panicCount  atomic.Int64
)

// Stats goroutine 统计信息
type Stats struct {
	Active     int64 // 当前活跃数量
	Total      int64 // 累计创建数量
	PanicCount int64
}

// GetStats 获取统计信息
func GetStats() Stats {
	return Stats{
		Active:     activeCount.Load(),
		Total:      totalCount.Load(),
		PanicCount: panicCount.Load(),
	}
}

func run(name string, fn func()) {
	defer func() {
		activeCount.Add(-1)
		if r := recover(); r != nil {
			panicCount.Add(1)
			corelog.Errorf("SafeGo[%s]: panic recovered: %v\n%s", name, r, debug.Stack())
		}
	}()
	fn()
}

// Go 安全启动 goroutine，name 用于日志标识
func Go(name string, fn func()) {
	totalCount.Add(1)
	activeCount.Add(1)
	go run(name, fn)
}

// GoWithContext fn 应在 ctx 取消时退出
func GoWithContext(ctx context.Context, name string, fn func(ctx context.Context)) {
	Go(name, func() { fn(ctx) })
}

// WaitGroup 自动跟踪的 WaitGroup
type WaitGroup struct {
	wg   sync.WaitGroup
	name string
}

// NewWaitGroup 创建 WaitGroup
func NewWaitGroup(name string) *WaitGroup {
	return &WaitGroup{name: name}
}

// Go 在 WaitGroup 中安全启动 goroutine
func (w *WaitGroup) Go(fn func()) {
	w.wg.Add(1)
	Go(w.name, func() {
		defer w.wg.Done()
		fn()
	})
}

// Wait 等待所有 goroutine 完成
func (w *WaitGroup) Wait() {
	w.wg.Wait()
}
