// Package health 客户端组件健康检查
package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// ComponentStatus 组件状态
type ComponentStatus string

const (
	ComponentStatusHealthy   ComponentStatus = "healthy"
	ComponentStatusDegraded  ComponentStatus = "degraded"  // 降级，部分功能不可用
	ComponentStatusUnhealthy ComponentStatus = "unhealthy" // 不健康，完全不可用
)

// ComponentHealth 组件健康信息
type ComponentHealth struct {
	Name      string          `json:"name"`
	Status    ComponentStatus `json:"status"`
	Message   string          `json:"message,omitempty"`
	LastCheck time.Time       `json:"last_check"`
}

// HealthChecker 健康检查器接口
type HealthChecker interface {
	// Check 执行健康检查，返回组件健康信息
	Check(ctx context.Context) (*ComponentHealth, error)
}

// Report 一次完整检查的结果
type Report struct {
	Status     ComponentStatus    `json:"status"`
	Components []*ComponentHealth `json:"components"`
}

// CompositeHealthChecker 组合健康检查器
// 各组件并发检查，单个组件超时不影响其他组件
type CompositeHealthChecker struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
	timeout  time.Duration
}

// NewCompositeHealthChecker 创建组合健康检查器
func NewCompositeHealthChecker(timeout time.Duration) *CompositeHealthChecker {
	return &CompositeHealthChecker{
		checkers: make(map[string]HealthChecker),
		timeout:  timeout,
	}
}

// RegisterChecker 注册健康检查器，同名覆盖
func (c *CompositeHealthChecker) RegisterChecker(name string, checker HealthChecker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkers[name] = checker
}

// CheckAll 检查所有注册的组件
func (c *CompositeHealthChecker) CheckAll(ctx context.Context) map[string]*ComponentHealth {
	c.mu.RLock()
	checkers := make(map[string]HealthChecker, len(c.checkers))
	for name, checker := range c.checkers {
		checkers[name] = checker
	}
	c.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]*ComponentHealth, len(checkers))
	)
	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker HealthChecker) {
			defer wg.Done()
			h := c.checkOne(ctx, name, checker)
			mu.Lock()
			results[name] = h
			mu.Unlock()
		}(name, checker)
	}
	wg.Wait()
	return results
}

func (c *CompositeHealthChecker) checkOne(ctx context.Context, name string, checker HealthChecker) *ComponentHealth {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	h, err := checker.Check(checkCtx)
	if err != nil {
		return &ComponentHealth{
			Name:      name,
			Status:    ComponentStatusUnhealthy,
			Message:   err.Error(),
			LastCheck: time.Now(),
		}
	}
	if h == nil {
		h = &ComponentHealth{Status: ComponentStatusHealthy, LastCheck: time.Now()}
	}
	if h.Name == "" {
		h.Name = name
	}
	return h
}

// Report 检查全部组件，按名称排序并汇总整体状态
func (c *CompositeHealthChecker) Report(ctx context.Context) Report {
	results := c.CheckAll(ctx)
	r := Report{Components: make([]*ComponentHealth, 0, len(results))}
	for _, h := range results {
		r.Components = append(r.Components, h)
	}
	sort.Slice(r.Components, func(i, j int) bool { return r.Components[i].Name < r.Components[j].Name })
	r.Status = overall(r.Components)
	return r
}

// GetOverallStatus 获取整体健康状态
// 有组件不健康返回 unhealthy，有组件降级返回 degraded，否则 healthy
func (c *CompositeHealthChecker) GetOverallStatus(ctx context.Context) ComponentStatus {
	return c.Report(ctx).Status
}

func overall(components []*ComponentHealth) ComponentStatus {
	hasDegraded := false
	for _, h := range components {
		switch h.Status {
		case ComponentStatusUnhealthy:
			return ComponentStatusUnhealthy
		case ComponentStatusDegraded:
			hasDegraded = true
		}
	}
	if hasDegraded {
		return ComponentStatusDegraded
	}
	return ComponentStatusHealthy
}
