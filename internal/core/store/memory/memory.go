// Package memory 提供内存存储实现
package memory

import (
	"context"
	"sync"

	"werss-client/internal/core/store"
)

// MemoryStore 内存存储实现
type MemoryStore[K comparable, V any] struct {
	data   map[K]V
	mu     sync.RWMutex
	closed bool
}

// NewMemoryStore 创建内存存储
func NewMemoryStore[K comparable, V any]() *MemoryStore[K, V] {
	return &MemoryStore[K, V]{
		data: make(map[K]V),
	}
}

// Get 获取值
func (s *MemoryStore[K, V]) Get(ctx context.Context, key K) (V, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero V
	if s.closed {
		return zero, store.ErrClosed
	}
	value, ok := s.data[key]
	if !ok {
		return zero, store.ErrNotFound
	}
	return value, nil
}

// Set 设置值
func (s *MemoryStore[K, V]) Set(ctx context.Context, key K, value V) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrClosed
	}
	s.data[key] = value
	return nil
}

// Delete 删除值
func (s *MemoryStore[K, V]) Delete(ctx context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrClosed
	}
	delete(s.data, key)
	return nil
}

// Exists 检查键是否存在
func (s *MemoryStore[K, V]) Exists(ctx context.Context, key K) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, store.ErrClosed
	}
	_, ok := s.data[key]
	return ok, nil
}

// Len 返回键数量
func (s *MemoryStore[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Close 关闭存储，之后的操作返回 ErrClosed
func (s *MemoryStore[K, V]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.data = make(map[K]V)
	return nil
}

var _ store.Store[string, string] = (*MemoryStore[string, string])(nil)
