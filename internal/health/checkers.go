package health

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"werss-client/internal/core/store"
)

const storeProbeKey = "werss:health:check"

// StorageHealthChecker 状态存储健康检查器
// 存储实现了 Ping 时直接调用，否则用 Exists 探测
type StorageHealthChecker struct {
	storage store.StringStore
}

// NewStorageHealthChecker 创建存储健康检查器
func NewStorageHealthChecker(storage store.StringStore) *StorageHealthChecker {
	return &StorageHealthChecker{storage: storage}
}

// Check 检查存储健康状态
func (c *StorageHealthChecker) Check(ctx context.Context) (*ComponentHealth, error) {
	if c.storage == nil {
		return unhealthy("storage", "storage not configured"), nil
	}

	var err error
	if p, ok := c.storage.(store.HealthChecker); ok {
		err = p.Ping(ctx)
	} else {
		_, err = c.storage.Exists(ctx, storeProbeKey)
	}
	if err != nil {
		return unhealthy("storage", err.Error()), nil
	}
	return healthy("storage"), nil
}

// RuntimeFetcher 后端运行时设置接口（公开接口，无需登录）
type RuntimeFetcher interface {
	GetRuntimeSettings(ctx context.Context) (json.RawMessage, error)
}

// BackendHealthChecker 后端可达性检查器
type BackendHealthChecker struct {
	backend RuntimeFetcher
}

// NewBackendHealthChecker 创建后端健康检查器
func NewBackendHealthChecker(backend RuntimeFetcher) *BackendHealthChecker {
	return &BackendHealthChecker{backend: backend}
}

// Check 请求运行时设置，失败视为不健康
func (c *BackendHealthChecker) Check(ctx context.Context) (*ComponentHealth, error) {
	if c.backend == nil {
		return unhealthy("backend", "backend not configured"), nil
	}
	start := time.Now()
	if _, err := c.backend.GetRuntimeSettings(ctx); err != nil {
		return unhealthy("backend", err.Error()), nil
	}
	h := healthy("backend")
	h.Message = fmt.Sprintf("runtime settings in %s", time.Since(start).Round(time.Millisecond))
	return h, nil
}

// QueueHealthChecker 埋点队列积压检查器
type QueueHealthChecker struct {
	length    func() int
	capacity  int
	threshold float64
}

// NewQueueHealthChecker 队列长度达到 capacity*threshold 时降级
func NewQueueHealthChecker(length func() int, capacity int, threshold float64) *QueueHealthChecker {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.9
	}
	return &QueueHealthChecker{length: length, capacity: capacity, threshold: threshold}
}

// Check 检查队列积压
func (c *QueueHealthChecker) Check(ctx context.Context) (*ComponentHealth, error) {
	n := c.length()
	h := healthy("tracker")
	h.Message = fmt.Sprintf("%d/%d queued", n, c.capacity)
	if c.capacity > 0 && float64(n) >= float64(c.capacity)*c.threshold {
		h.Status = ComponentStatusDegraded
	}
	return h, nil
}

func healthy(name string) *ComponentHealth {
	return &ComponentHealth{Name: name, Status: ComponentStatusHealthy, LastCheck: time.Now()}
}

func unhealthy(name, message string) *ComponentHealth {
	return &ComponentHealth{Name: name, Status: ComponentStatusUnhealthy, Message: message, LastCheck: time.Now()}
}
