package validator

import (
	"strings"
	"testing"

	"werss-client/internal/config/schema"
	"werss-client/internal/config/source"
)

func defaultConfig(t *testing.T) *schema.Root {
	t.Helper()
	cfg := &schema.Root{}
	if err := source.NewDefaultSource().LoadInto(cfg); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestValidateConfig_Defaults(t *testing.T) {
	result := ValidateConfig(defaultConfig(t))
	if !result.IsValid() {
		t.Errorf("defaults should be valid:\n%s", result.Error())
	}
	if result.Error() != "" {
		t.Error("Error() should be empty for valid config")
	}
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *schema.Root)
		field  string
	}{
		{"empty base url", func(c *schema.Root) { c.Client.BaseURL = "" }, "client.base_url"},
		{"relative base url", func(c *schema.Root) { c.Client.BaseURL = "/api" }, "client.base_url"},
		{"ftp base url", func(c *schema.Root) { c.Client.BaseURL = "ftp://x.example.com/" }, "client.base_url"},
		{"zero batch", func(c *schema.Root) { c.Analytics.BatchLimit = 0 }, "analytics.batch_limit"},
		{"queue below batch", func(c *schema.Root) { c.Analytics.MaxQueue = 10 }, "analytics.max_queue"},
		{"negative flush", func(c *schema.Root) { c.Analytics.FlushInterval = -1 }, "analytics.flush_interval"},
		{"empty endpoint", func(c *schema.Root) { c.Analytics.Endpoint = " " }, "analytics.endpoint"},
		{"zero ttl", func(c *schema.Root) { c.Runtime.TTL = 0 }, "runtime.ttl"},
		{"zero qr attempts", func(c *schema.Root) { c.QRLogin.ReadyMaxAttempts = 0 }, "qr_login.ready_max_attempts"},
		{"unknown storage", func(c *schema.Root) { c.Storage.Type = "etcd" }, "storage.type"},
		{"file without path", func(c *schema.Root) { c.Storage.File = "" }, "storage.file"},
		{"redis without addr", func(c *schema.Root) { c.Storage.Type = "redis"; c.Storage.Redis.Addr = "" }, "storage.redis.addr"},
		{"bad log level", func(c *schema.Root) { c.Log.Level = "verbose" }, "log.level"},
		{"bad log format", func(c *schema.Root) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tt.mutate(cfg)
			result := ValidateConfig(cfg)
			if result.IsValid() {
				t.Fatal("expected validation error")
			}
			found := false
			for _, e := range result.Errors {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %s, got: %s", tt.field, result.Error())
			}
			if !strings.Contains(result.Error(), "Configuration validation failed") {
				t.Errorf("unexpected Error() output: %s", result.Error())
			}
		})
	}
}

func TestValidator_AddRule(t *testing.T) {
	v := NewValidator()
	v.AddRule(func(cfg *schema.Root, result *ValidationResult) {
		result.AddError("custom", "", "always fails", "")
	})
	if v.Validate(defaultConfig(t)).IsValid() {
		t.Error("custom rule should fail validation")
	}
}
