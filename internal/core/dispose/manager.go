package dispose

import (
	"fmt"
	"sync"
	"time"

	corelog "werss-client/internal/core/log"
)

// ResourceManager 资源管理器，负责统一管理所有可释放资源
type ResourceManager struct {
	resources map[string]Disposable
	mu        sync.Mutex
	order     []string // 资源释放顺序
	logger    corelog.Logger
}

// NewResourceManager 创建新的资源管理器
func NewResourceManager(logger corelog.Logger) *ResourceManager {
	return &ResourceManager{
		resources: make(map[string]Disposable),
		order:     make([]string, 0),
		logger:    corelog.OrDefault(logger),
	}
}

// Register 注册资源，按注册的相反顺序释放
func (rm *ResourceManager) Register(name string, resource Disposable) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if _, exists := rm.resources[name]; exists {
		return fmt.Errorf("resource %s already registered", name)
	}
	rm.resources[name] = resource
	rm.order = append(rm.order, name)
	rm.logger.Debugf("Registered resource: %s", name)
	return nil
}

// ListResources 列出所有资源名称
func (rm *ResourceManager) ListResources() []string {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	names := make([]string, len(rm.order))
	copy(names, rm.order)
	return names
}

// DisposeAll 释放所有资源，可重复调用
func (rm *ResourceManager) DisposeAll() *DisposeResult {
	rm.mu.Lock()
	resources := rm.resources
	order := rm.order
	rm.resources = make(map[string]Disposable)
	rm.order = make([]string, 0)
	rm.mu.Unlock()

	result := &DisposeResult{Errors: make([]*DisposeError, 0)}
	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		resource := resources[name]
		if resource == nil {
			continue
		}
		if err := resource.Dispose(); err != nil {
			result.Errors = append(result.Errors, &DisposeError{ResourceName: name, Err: err})
			rm.logger.Errorf("Failed to dispose resource %s: %v", name, err)
		} else {
			rm.logger.Debugf("Successfully disposed resource: %s", name)
		}
	}
	return result
}

// DisposeWithTimeout 带超时的资源释放，超时后剩余资源在后台继续释放
func (rm *ResourceManager) DisposeWithTimeout(timeout time.Duration) *DisposeResult {
	resultChan := make(chan *DisposeResult, 1)
	go func() {
		resultChan <- rm.DisposeAll()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case result := <-resultChan:
		return result
	case <-timer.C:
		return &DisposeResult{
			Errors: []*DisposeError{{
				ResourceName: "timeout",
				Err:          fmt.Errorf("dispose timeout after %v", timeout),
			}},
		}
	}
}
