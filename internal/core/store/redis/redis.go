// Package redis 提供 Redis 存储实现
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"werss-client/internal/core/store"
)

const storeType = "redis"

// RedisStore Redis 存储实现
type RedisStore[K comparable, V any] struct {
	client    *redis.Client
	keyPrefix string
	ownClient bool
}

// NewRedisStore 使用已有客户端创建 Redis 存储
func NewRedisStore[K comparable, V any](client *redis.Client, keyPrefix string) *RedisStore[K, V] {
	return &RedisStore[K, V]{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// NewRedisStoreFromConfig 从配置创建 Redis 存储
func NewRedisStoreFromConfig[K comparable, V any](cfg store.RedisConfig, keyPrefix string) (*RedisStore[K, V], error) {
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	s := NewRedisStore[K, V](client, keyPrefix)
	s.ownClient = true
	return s, nil
}

// buildKey 构建 Redis 键
func (s *RedisStore[K, V]) buildKey(key K) string {
	return fmt.Sprintf("%s%v", s.keyPrefix, key)
}

// Client 返回底层客户端
func (s *RedisStore[K, V]) Client() *redis.Client {
	return s.client
}

// Get 获取值
func (s *RedisStore[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V
	data, err := s.client.Get(ctx, s.buildKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, store.ErrNotFound
		}
		return zero, store.NewStoreError(storeType, "Get", s.buildKey(key), err)
	}

	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, store.NewStoreError(storeType, "Get", s.buildKey(key), store.ErrDeserializationFailed)
	}
	return value, nil
}

// Set 设置值
func (s *RedisStore[K, V]) Set(ctx context.Context, key K, value V) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL 设置值并指定 TTL，ttl<=0 表示不过期
func (s *RedisStore[K, V]) SetWithTTL(ctx context.Context, key K, value V, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return store.NewStoreError(storeType, "Set", s.buildKey(key), store.ErrSerializationFailed)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.buildKey(key), data, ttl).Err(); err != nil {
		return store.NewStoreError(storeType, "Set", s.buildKey(key), err)
	}
	return nil
}

// Delete 删除值
func (s *RedisStore[K, V]) Delete(ctx context.Context, key K) error {
	if err := s.client.Del(ctx, s.buildKey(key)).Err(); err != nil {
		return store.NewStoreError(storeType, "Delete", s.buildKey(key), err)
	}
	return nil
}

// Exists 检查键是否存在
func (s *RedisStore[K, V]) Exists(ctx context.Context, key K) (bool, error) {
	n, err := s.client.Exists(ctx, s.buildKey(key)).Result()
	if err != nil {
		return false, store.NewStoreError(storeType, "Exists", s.buildKey(key), err)
	}
	return n > 0, nil
}

// Ping 健康检查
func (s *RedisStore[K, V]) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close 关闭存储，仅关闭自己创建的客户端
func (s *RedisStore[K, V]) Close() error {
	if s.ownClient {
		return s.client.Close()
	}
	return nil
}

var (
	_ store.StringStore   = (*RedisStore[string, string])(nil)
	_ store.HealthChecker = (*RedisStore[string, string])(nil)
)
