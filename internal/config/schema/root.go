// Package schema 定义客户端配置结构
package schema

import "time"

// Root 顶层配置
type Root struct {
	Client    ClientConfig    `yaml:"client" json:"client"`
	Analytics AnalyticsConfig `yaml:"analytics" json:"analytics"`
	Runtime   RuntimeConfig   `yaml:"runtime" json:"runtime"`
	QRLogin   QRLoginConfig   `yaml:"qr_login" json:"qr_login"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Log       LogConfig       `yaml:"log" json:"log"`
}

// ClientConfig 后端连接配置
type ClientConfig struct {
	// BaseURL 后端根地址，请求路径为 BaseURL + "api/v1/"
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	// Token 预置访问令牌，非空时启动时写入令牌存储
	Token Secret `yaml:"token" json:"token"`
}

// AnalyticsConfig 埋点上报配置
type AnalyticsConfig struct {
	Enabled         bool          `yaml:"enabled" json:"enabled"` // 本地总开关
	Endpoint        string        `yaml:"endpoint" json:"endpoint"`
	BatchLimit      int           `yaml:"batch_limit" json:"batch_limit"`
	MaxQueue        int           `yaml:"max_queue" json:"max_queue"`
	FlushInterval   time.Duration `yaml:"flush_interval" json:"flush_interval"`
	InputThrottle   time.Duration `yaml:"input_throttle" json:"input_throttle"`
	ThrottleEntries int           `yaml:"throttle_entries" json:"throttle_entries"`
	ButtonClass     string        `yaml:"button_class" json:"button_class"`
	BeaconQueue     int           `yaml:"beacon_queue" json:"beacon_queue"`
}

// RuntimeConfig 运行时设置缓存配置
type RuntimeConfig struct {
	TTL          time.Duration `yaml:"ttl" json:"ttl"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
}

// QRLoginConfig 扫码登录轮询配置
type QRLoginConfig struct {
	ReadyInterval     time.Duration `yaml:"ready_interval" json:"ready_interval"`
	ReadyMaxAttempts  int           `yaml:"ready_max_attempts" json:"ready_max_attempts"`
	StatusInterval    time.Duration `yaml:"status_interval" json:"status_interval"`
	StatusMaxAttempts int           `yaml:"status_max_attempts" json:"status_max_attempts"`
}
