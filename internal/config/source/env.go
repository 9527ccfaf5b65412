package source

import (
	"os"
	"strconv"
	"time"

	"werss-client/internal/config/schema"
)

// EnvSource loads configuration from environment variables
type EnvSource struct {
	prefix string
}

// NewEnvSource creates a new EnvSource with the specified prefix
func NewEnvSource(prefix string) *EnvSource {
	return &EnvSource{
		prefix: prefix,
	}
}

// Name returns the source name
func (s *EnvSource) Name() string {
	return "env"
}

// Priority returns the source priority
func (s *EnvSource) Priority() int {
	return PriorityEnv
}

// LoadInto loads environment variables into the config structure
func (s *EnvSource) LoadInto(cfg *schema.Root) error {
	// Client
	s.loadString("API_BASE_URL", &cfg.Client.BaseURL)
	s.loadDuration("CLIENT_TIMEOUT", &cfg.Client.Timeout)
	s.loadString("CLIENT_USER_AGENT", &cfg.Client.UserAgent)
	s.loadSecret("TOKEN", &cfg.Client.Token)

	// Analytics
	s.loadBool("ANALYTICS_ENABLED", &cfg.Analytics.Enabled)
	s.loadString("ANALYTICS_ENDPOINT", &cfg.Analytics.Endpoint)
	s.loadInt("ANALYTICS_BATCH_LIMIT", &cfg.Analytics.BatchLimit)
	s.loadInt("ANALYTICS_MAX_QUEUE", &cfg.Analytics.MaxQueue)
	s.loadDuration("ANALYTICS_FLUSH_INTERVAL", &cfg.Analytics.FlushInterval)
	s.loadDuration("ANALYTICS_INPUT_THROTTLE", &cfg.Analytics.InputThrottle)
	s.loadInt("ANALYTICS_THROTTLE_ENTRIES", &cfg.Analytics.ThrottleEntries)
	s.loadString("ANALYTICS_BUTTON_CLASS", &cfg.Analytics.ButtonClass)
	s.loadInt("ANALYTICS_BEACON_QUEUE", &cfg.Analytics.BeaconQueue)

	// Runtime
	s.loadDuration("RUNTIME_TTL", &cfg.Runtime.TTL)
	s.loadDuration("RUNTIME_FETCH_TIMEOUT", &cfg.Runtime.FetchTimeout)

	// QR login
	s.loadDuration("QR_READY_INTERVAL", &cfg.QRLogin.ReadyInterval)
	s.loadInt("QR_READY_MAX_ATTEMPTS", &cfg.QRLogin.ReadyMaxAttempts)
	s.loadDuration("QR_STATUS_INTERVAL", &cfg.QRLogin.StatusInterval)
	s.loadInt("QR_STATUS_MAX_ATTEMPTS", &cfg.QRLogin.StatusMaxAttempts)

	// Storage
	s.loadString("STORAGE_TYPE", &cfg.Storage.Type)
	s.loadString("STORAGE_FILE", &cfg.Storage.File)
	s.loadString("STORAGE_KEY_PREFIX", &cfg.Storage.KeyPrefix)
	s.loadString("REDIS_ADDR", &cfg.Storage.Redis.Addr)
	s.loadSecret("REDIS_PASSWORD", &cfg.Storage.Redis.Password)
	s.loadInt("REDIS_DB", &cfg.Storage.Redis.DB)
	s.loadDuration("REDIS_DIAL_TIMEOUT", &cfg.Storage.Redis.DialTimeout)

	// Log
	s.loadString("LOG_LEVEL", &cfg.Log.Level)
	s.loadString("LOG_FORMAT", &cfg.Log.Format)
	s.loadString("LOG_FILE", &cfg.Log.File)

	return nil
}

// getEnv gets environment variable with the configured prefix
func (s *EnvSource) getEnv(key string) (string, bool) {
	prefixedKey := s.prefix + "_" + key
	if v := os.Getenv(prefixedKey); v != "" {
		return v, true
	}
	return "", false
}

func (s *EnvSource) loadString(key string, target *string) {
	if v, ok := s.getEnv(key); ok {
		*target = v
	}
}

func (s *EnvSource) loadSecret(key string, target *schema.Secret) {
	if v, ok := s.getEnv(key); ok {
		*target = schema.Secret(v)
	}
}

func (s *EnvSource) loadBool(key string, target *bool) {
	if v, ok := s.getEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}

func (s *EnvSource) loadInt(key string, target *int) {
	if v, ok := s.getEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			*target = i
		}
	}
}

func (s *EnvSource) loadDuration(key string, target *time.Duration) {
	if v, ok := s.getEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*target = d
		}
	}
}
