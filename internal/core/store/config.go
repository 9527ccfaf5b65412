package store

import "time"

// Type 存储后端类型
type Type string

const (
	TypeMemory   Type = "memory"
	TypeFile     Type = "file"
	TypeRedis    Type = "redis"
	TypeEmbedded Type = "embedded"
)

// Config 存储配置
type Config struct {
	Type      Type
	FilePath  string // file 后端使用
	KeyPrefix string // redis / embedded 后端使用
	Redis     RedisConfig
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// DefaultRedisConfig 默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:        "localhost:6379",
		DialTimeout: 5 * time.Second,
	}
}
