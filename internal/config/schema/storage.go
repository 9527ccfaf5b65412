package schema

import (
	"time"

	"werss-client/internal/core/store"
)

// StorageConfig 客户端持久化状态存储配置
type StorageConfig struct {
	Type      string      `yaml:"type" json:"type"` // file/memory/redis/embedded
	File      string      `yaml:"file" json:"file"`
	KeyPrefix string      `yaml:"key_prefix" json:"key_prefix"`
	Redis     RedisConfig `yaml:"redis" json:"redis"`
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Addr        string        `yaml:"addr" json:"addr"`
	Password    Secret        `yaml:"password" json:"password"`
	DB          int           `yaml:"db" json:"db"`
	DialTimeout time.Duration `yaml:"dial_timeout" json:"dial_timeout"`
}

// StoreConfig 转换为存储层配置
func (c StorageConfig) StoreConfig() store.Config {
	return store.Config{
		Type:      store.Type(c.Type),
		FilePath:  c.File,
		KeyPrefix: c.KeyPrefix,
		Redis: store.RedisConfig{
			Addr:        c.Redis.Addr,
			Password:    c.Redis.Password.Value(),
			DB:          c.Redis.DB,
			DialTimeout: c.Redis.DialTimeout,
		},
	}
}
