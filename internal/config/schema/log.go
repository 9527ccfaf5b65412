package schema

import corelog "werss-client/internal/core/log"

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug/info/warn/error
	Format string `yaml:"format" json:"format"` // text/json
	File   string `yaml:"file" json:"file"`     // 为空时输出到 stderr
}

// LoggerConfig 转换为日志层配置
func (c LogConfig) LoggerConfig() corelog.Config {
	return corelog.Config{
		Level:  c.Level,
		Format: c.Format,
		File:   c.File,
	}
}
