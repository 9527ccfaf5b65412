// Package store 提供客户端持久化状态的统一存储抽象
//
// 浏览器中的 localStorage 在这里被抽象为 Store[K,V]：
//   - memory: 进程内存储（测试、临时会话）
//   - file: JSON 文件存储（默认的持久化后端）
//   - redis: 外部 Redis（多个客户端实例共享状态）
//   - embedded: 内嵌 miniredis（无外部依赖的 Redis 语义）
package store

import (
	"context"
)

// Store 基础键值存储接口（所有存储必须实现）
type Store[K comparable, V any] interface {
	// Get 获取值，不存在返回 ErrNotFound
	Get(ctx context.Context, key K) (V, error)

	// Set 设置值
	Set(ctx context.Context, key K, value V) error

	// Delete 删除值，不存在不返回错误
	Delete(ctx context.Context, key K) error

	// Exists 检查键是否存在
	Exists(ctx context.Context, key K) (bool, error)
}

// StringStore 客户端状态使用的字符串键值存储
type StringStore = Store[string, string]

// Closer 关闭接口
type Closer interface {
	Close() error
}

// HealthChecker 健康检查接口
type HealthChecker interface {
	Ping(ctx context.Context) error
}
