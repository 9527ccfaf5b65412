// Package embedded 提供内嵌 Redis (miniredis) 实现
package embedded

import (
	"fmt"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	redisstore "werss-client/internal/core/store/redis"
)

// EmbeddedRedis 内嵌 Redis 服务（基于 miniredis）
// 用于无外部 Redis 的场景，数据仅存在于进程内
type EmbeddedRedis struct {
	server *miniredis.Miniredis
	client *redis.Client
}

// NewEmbeddedRedis 创建内嵌 Redis
func NewEmbeddedRedis() (*EmbeddedRedis, error) {
	server, err := miniredis.Run()
	if err != nil {
		return nil, fmt.Errorf("start miniredis failed: %w", err)
	}
	client := redis.NewClient(&redis.Options{
		Addr: server.Addr(),
	})
	return &EmbeddedRedis{
		server: server,
		client: client,
	}, nil
}

// Client 获取 Redis 客户端
func (e *EmbeddedRedis) Client() *redis.Client {
	return e.client
}

// Addr 获取服务地址
func (e *EmbeddedRedis) Addr() string {
	return e.server.Addr()
}

// Close 关闭服务
func (e *EmbeddedRedis) Close() error {
	err := e.client.Close()
	e.server.Close()
	return err
}

// EmbeddedStore 内嵌 Redis 存储
type EmbeddedStore[K comparable, V any] struct {
	*redisstore.RedisStore[K, V]
	embedded *EmbeddedRedis
}

// NewEmbeddedStore 创建内嵌 Redis 存储
func NewEmbeddedStore[K comparable, V any](keyPrefix string) (*EmbeddedStore[K, V], error) {
	e, err := NewEmbeddedRedis()
	if err != nil {
		return nil, err
	}
	return &EmbeddedStore[K, V]{
		RedisStore: redisstore.NewRedisStore[K, V](e.Client(), keyPrefix),
		embedded:   e,
	}, nil
}

// Embedded 返回内嵌服务
func (s *EmbeddedStore[K, V]) Embedded() *EmbeddedRedis {
	return s.embedded
}

// Close 关闭存储和内嵌服务
func (s *EmbeddedStore[K, V]) Close() error {
	return s.embedded.Close()
}
