// Package validator provides configuration validation
package validator

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"werss-client/internal/config/schema"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string // Field path (e.g., "analytics.batch_limit")
	Value   string // Current value (masked for secrets)
	Message string // Error message
	Hint    string // Fix suggestion
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult contains all validation errors
type ValidationResult struct {
	Errors []ValidationError
}

// IsValid returns true if there are no validation errors
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Error returns a formatted error message
func (r *ValidationResult) Error() string {
	if r.IsValid() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n\n")
	for i, err := range r.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Field)
		if err.Value != "" {
			fmt.Fprintf(&sb, "     Current value: %s\n", err.Value)
		}
		fmt.Fprintf(&sb, "     Error: %s\n", err.Message)
		if err.Hint != "" {
			fmt.Fprintf(&sb, "     Hint: %s\n", err.Hint)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// AddError adds a validation error
func (r *ValidationResult) AddError(field, value, message, hint string) {
	r.Errors = append(r.Errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
		Hint:    hint,
	})
}

// ValidationRule is a function that validates configuration
type ValidationRule func(cfg *schema.Root, result *ValidationResult)

// Validator validates configuration
type Validator struct {
	rules []ValidationRule
}

// NewValidator creates a new Validator with default rules
func NewValidator() *Validator {
	v := &Validator{
		rules: make([]ValidationRule, 0),
	}

	v.AddRule(validateClient)
	v.AddRule(validateAnalytics)
	v.AddRule(validateRuntime)
	v.AddRule(validateQRLogin)
	v.AddRule(validateStorage)
	v.AddRule(validateLog)

	return v
}

// AddRule adds a validation rule
func (v *Validator) AddRule(rule ValidationRule) {
	v.rules = append(v.rules, rule)
}

// Validate validates the configuration
func (v *Validator) Validate(cfg *schema.Root) *ValidationResult {
	result := &ValidationResult{
		Errors: make([]ValidationError, 0),
	}
	for _, rule := range v.rules {
		rule(cfg, result)
	}
	return result
}

// ValidateConfig is a convenience function that creates a validator and validates
func ValidateConfig(cfg *schema.Root) *ValidationResult {
	return NewValidator().Validate(cfg)
}

// ============================================================================
// Validation Rules
// ============================================================================

func validateClient(cfg *schema.Root, result *ValidationResult) {
	u, err := url.Parse(cfg.Client.BaseURL)
	if cfg.Client.BaseURL == "" || err != nil || u.Scheme == "" || u.Host == "" {
		result.AddError("client.base_url", cfg.Client.BaseURL,
			"base_url must be an absolute http(s) URL",
			"Set e.g. https://rss.example.com/")
	} else if u.Scheme != "http" && u.Scheme != "https" {
		result.AddError("client.base_url", cfg.Client.BaseURL,
			"unsupported scheme "+u.Scheme,
			"Use http or https")
	}
	validatePositiveDuration("client.timeout", cfg.Client.Timeout, result)
}

func validateAnalytics(cfg *schema.Root, result *ValidationResult) {
	a := cfg.Analytics
	validatePositiveInt("analytics.batch_limit", a.BatchLimit, result)
	validatePositiveInt("analytics.max_queue", a.MaxQueue, result)
	validatePositiveInt("analytics.throttle_entries", a.ThrottleEntries, result)
	validatePositiveInt("analytics.beacon_queue", a.BeaconQueue, result)
	validatePositiveDuration("analytics.flush_interval", a.FlushInterval, result)
	validatePositiveDuration("analytics.input_throttle", a.InputThrottle, result)

	if a.BatchLimit > 0 && a.MaxQueue > 0 && a.MaxQueue < a.BatchLimit {
		result.AddError("analytics.max_queue", fmt.Sprintf("%d", a.MaxQueue),
			"max_queue must not be smaller than batch_limit",
			"Set max_queue >= batch_limit")
	}
	if strings.TrimSpace(a.Endpoint) == "" {
		result.AddError("analytics.endpoint", "", "endpoint is required", "Set e.g. wx/analytics/events")
	}
}

func validateRuntime(cfg *schema.Root, result *ValidationResult) {
	validatePositiveDuration("runtime.ttl", cfg.Runtime.TTL, result)
	validatePositiveDuration("runtime.fetch_timeout", cfg.Runtime.FetchTimeout, result)
}

func validateQRLogin(cfg *schema.Root, result *ValidationResult) {
	q := cfg.QRLogin
	validatePositiveDuration("qr_login.ready_interval", q.ReadyInterval, result)
	validatePositiveDuration("qr_login.status_interval", q.StatusInterval, result)
	validatePositiveInt("qr_login.ready_max_attempts", q.ReadyMaxAttempts, result)
	validatePositiveInt("qr_login.status_max_attempts", q.StatusMaxAttempts, result)
}

func validateStorage(cfg *schema.Root, result *ValidationResult) {
	switch cfg.Storage.Type {
	case "memory", "embedded":
	case "file":
		if cfg.Storage.File == "" {
			result.AddError("storage.file", "", "file path is required for file storage",
				"Set storage.file, e.g. ~/.werss/state.json")
		}
	case "redis":
		if cfg.Storage.Redis.Addr == "" {
			result.AddError("storage.redis.addr", "", "addr is required for redis storage",
				"Set storage.redis.addr, e.g. localhost:6379")
		}
	default:
		result.AddError("storage.type", cfg.Storage.Type,
			"unknown storage type",
			"Use one of: file, memory, redis, embedded")
	}
}

func validateLog(cfg *schema.Root, result *ValidationResult) {
	switch strings.ToLower(cfg.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		result.AddError("log.level", cfg.Log.Level, "invalid log level", "Use debug, info, warn or error")
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "text", "json":
	default:
		result.AddError("log.format", cfg.Log.Format, "invalid log format", "Use text or json")
	}
}

func validatePositiveInt(field string, v int, result *ValidationResult) {
	if v <= 0 {
		result.AddError(field, fmt.Sprintf("%d", v), field[strings.LastIndex(field, ".")+1:]+" must be positive", "Set a value > 0")
	}
}

func validatePositiveDuration(field string, d time.Duration, result *ValidationResult) {
	if d <= 0 {
		result.AddError(field, d.String(), field[strings.LastIndex(field, ".")+1:]+" must be positive", "Set a duration > 0, e.g. 5s")
	}
}
