package source

import (
	"os"
	"path/filepath"
	"time"

	"werss-client/internal/config/schema"
)

// DefaultSource provides default configuration values
type DefaultSource struct{}

// NewDefaultSource creates a new DefaultSource
func NewDefaultSource() *DefaultSource {
	return &DefaultSource{}
}

// Name returns the source name
func (s *DefaultSource) Name() string {
	return "defaults"
}

// Priority returns the source priority
func (s *DefaultSource) Priority() int {
	return PriorityDefaults
}

// LoadInto loads default values into the configuration
func (s *DefaultSource) LoadInto(cfg *schema.Root) error {
	// Client
	cfg.Client.BaseURL = "http://localhost:8001/"
	cfg.Client.Timeout = 15 * time.Second
	cfg.Client.UserAgent = "werss-client"

	// Analytics
	cfg.Analytics.Enabled = true
	cfg.Analytics.Endpoint = "wx/analytics/events"
	cfg.Analytics.BatchLimit = 30
	cfg.Analytics.MaxQueue = 400
	cfg.Analytics.FlushInterval = 6 * time.Second
	cfg.Analytics.InputThrottle = 12 * time.Second
	cfg.Analytics.ThrottleEntries = 1024
	cfg.Analytics.ButtonClass = "arco-btn"
	cfg.Analytics.BeaconQueue = 64

	// Runtime settings cache
	cfg.Runtime.TTL = 60 * time.Second
	cfg.Runtime.FetchTimeout = 10 * time.Second

	// QR login
	cfg.QRLogin.ReadyInterval = time.Second
	cfg.QRLogin.ReadyMaxAttempts = 18
	cfg.QRLogin.StatusInterval = 3 * time.Second
	cfg.QRLogin.StatusMaxAttempts = 60

	// Storage
	cfg.Storage.Type = "file"
	cfg.Storage.File = defaultStateFile()
	cfg.Storage.KeyPrefix = "werss:"
	cfg.Storage.Redis.Addr = "localhost:6379"
	cfg.Storage.Redis.DialTimeout = 5 * time.Second

	// Log
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"

	return nil
}

// defaultStateFile returns ~/.werss/state.json, or a relative path when home is unknown
func defaultStateFile() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".werss", "state.json")
	}
	return filepath.Join(".werss", "state.json")
}
