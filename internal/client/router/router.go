// Package router 控制台路由：路由表匹配、导航守卫与导航后钩子
package router

import (
	"context"
	"sync"

	coreerrors "werss-client/internal/core/errors"
	corelog "werss-client/internal/core/log"
)

const DefaultMaxRedirects = 10

var (
	// ErrDuplicated 目标与当前位置相同
	ErrDuplicated = coreerrors.New(coreerrors.CodeInvalidParam, "navigation to the current location")
	// ErrTooManyRedirects 守卫重定向次数超限
	ErrTooManyRedirects = coreerrors.New(coreerrors.CodeInternal, "too many redirects during navigation")
)

// AfterEachHook 导航结束回调，failure 非空表示导航未生效（如重复导航）
type AfterEachHook func(to, from Location, failure error)

// Options 路由选项
type Options struct {
	MaxRedirects int
	Logger       corelog.Logger
}

// Router 单实例路由状态
type Router struct {
	table  *Table
	guard  *Guard
	opts   Options
	logger corelog.Logger

	mu      sync.Mutex
	current Location
	started bool
	history []string
	hooks   []AfterEachHook
}

// New 创建路由，guard 为 nil 时放行所有导航
func New(table *Table, guard *Guard, opts Options) *Router {
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}
	return &Router{
		table:   table,
		guard:   guard,
		opts:    opts,
		logger:  corelog.OrDefault(opts.Logger),
		current: Location{Path: "/"},
	}
}

// AfterEach 注册导航后钩子
func (r *Router) AfterEach(h AfterEachHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, h)
}

// Current 当前位置
func (r *Router) Current() Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Started 是否完成过导航
func (r *Router) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// History 历史记录（FullPath），replace 导航覆盖最后一条
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}

// Push 导航到 raw，依次执行守卫并跟随重定向，返回最终位置
func (r *Router) Push(ctx context.Context, raw string) (Location, error) {
	r.mu.Lock()
	from, started := r.current, r.started
	r.mu.Unlock()

	to := r.table.Resolve(raw)
	replace := false
	for redirects := 0; ; redirects++ {
		if redirects > r.opts.MaxRedirects {
			r.logger.Warnf("navigation to %s aborted after %d redirects", raw, redirects-1)
			return from, ErrTooManyRedirects
		}
		if started && to.FullPath() == from.FullPath() {
			r.fire(to, from, ErrDuplicated)
			return from, ErrDuplicated
		}
		if r.guard == nil {
			break
		}
		d := r.guard.Check(ctx, to)
		if d.Allowed() {
			break
		}
		if err := ctx.Err(); err != nil {
			return from, coreerrors.Wrap(err, coreerrors.CodeCancelled, "navigation cancelled")
		}
		r.logger.Debugf("navigation %s redirected to %s", to.FullPath(), d.Target)
		to = r.table.Resolve(d.Target)
		replace = replace || d.Replace
	}

	r.mu.Lock()
	r.current = to
	r.started = true
	if replace && len(r.history) > 0 {
		r.history[len(r.history)-1] = to.FullPath()
	} else {
		r.history = append(r.history, to.FullPath())
	}
	r.mu.Unlock()

	r.fire(to, from, nil)
	return to, nil
}

func (r *Router) fire(to, from Location, failure error) {
	r.mu.Lock()
	hooks := append([]AfterEachHook(nil), r.hooks...)
	r.mu.Unlock()
	for _, h := range hooks {
		h(to, from, failure)
	}
}
