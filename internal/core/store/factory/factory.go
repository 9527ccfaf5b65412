// Package factory 根据配置创建存储后端
package factory

import (
	"fmt"

	corelog "werss-client/internal/core/log"
	"werss-client/internal/core/store"
	"werss-client/internal/core/store/embedded"
	"werss-client/internal/core/store/file"
	"werss-client/internal/core/store/memory"
	redisstore "werss-client/internal/core/store/redis"
)

// Backend 带关闭能力的字符串存储
type Backend interface {
	store.StringStore
	store.Closer
}

// NewStringStore 根据配置创建客户端状态存储
func NewStringStore(cfg store.Config) (Backend, error) {
	switch cfg.Type {
	case store.TypeMemory:
		return memory.NewMemoryStore[string, string](), nil

	case store.TypeFile, "":
		s, err := file.NewFileStore(cfg.FilePath)
		if err != nil {
			return nil, fmt.Errorf("create file store: %w", err)
		}
		corelog.Debugf("store: using file backend %s", cfg.FilePath)
		return s, nil

	case store.TypeRedis:
		s, err := redisstore.NewRedisStoreFromConfig[string, string](cfg.Redis, cfg.KeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		corelog.Debugf("store: using redis backend %s", cfg.Redis.Addr)
		return s, nil

	case store.TypeEmbedded:
		s, err := embedded.NewEmbeddedStore[string, string](cfg.KeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("create embedded store: %w", err)
		}
		corelog.Debugf("store: using embedded redis backend %s", s.Embedded().Addr())
		return s, nil

	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
}
