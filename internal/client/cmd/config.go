package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"werss-client/internal/config/schema"
	"werss-client/internal/config/source"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configCmd 配置管理命令组
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage werss client configuration.

Commands:
  init      Generate a configuration file template
  show      Show the effective configuration`,
}

// configInitCmd 生成配置文件模板
var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Generate a configuration file template",
	Long: `Generate a configuration file template with default values.

Example:
  werss config init                     # Create werss.yaml in current directory
  werss config init ~/.werss/client.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

// configShowCmd 显示当前配置
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging defaults, config file, .env files,
environment variables and flags. Secrets are masked.

Example:
  werss config show`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

const configHeader = `# WeRSS Client Configuration
#
# client     Backend base URL; requests go to <base_url>api/v1/
# analytics  Event batching and DOM capture settings
# runtime    Runtime settings cache
# qr_login   WeChat QR authorization polling
# storage    Persisted state: file/memory/redis/embedded
# log        level (debug/info/warn/error), format (text/json), file
#
# Every key can be overridden with WERSS_<SECTION>_<KEY>, e.g. WERSS_CLIENT_BASE_URL.

`

// renderTemplate 默认配置转 YAML
func renderTemplate() ([]byte, error) {
	var cfg schema.Root
	if err := source.NewDefaultSource().LoadInto(&cfg); err != nil {
		return nil, err
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return nil, err
	}
	return append([]byte(configHeader), data...), nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	output := newOutput(cmd)

	configPath := "werss.yaml"
	if len(args) > 0 {
		configPath = args[0]
	}

	if _, err := os.Stat(configPath); err == nil && !configForce {
		output.Warning("Configuration file already exists: %s", configPath)
		output.Info("Use --force to overwrite")
		return nil
	}

	content, err := renderTemplate()
	if err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}

	dir := filepath.Dir(configPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	output.Success("Configuration file created: %s", configPath)
	output.Info("Edit the file to customize your settings, then run:")
	output.Plain("  werss runtime -c %s", configPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	output := newOutput(cmd)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	output.Header("Current Configuration")

	output.Section("Client")
	output.KeyValue("base_url", cfg.Client.BaseURL)
	output.KeyValue("timeout", cfg.Client.Timeout.String())
	output.KeyValue("user_agent", cfg.Client.UserAgent)
	token := cfg.Client.Token.String()
	if token == "" {
		token = "(none)"
	}
	output.KeyValue("token", token)

	output.Section("Analytics")
	output.KeyValue("enabled", fmt.Sprintf("%v", cfg.Analytics.Enabled))
	output.KeyValue("endpoint", cfg.Analytics.Endpoint)
	output.KeyValue("batch_limit", fmt.Sprintf("%d", cfg.Analytics.BatchLimit))
	output.KeyValue("max_queue", fmt.Sprintf("%d", cfg.Analytics.MaxQueue))
	output.KeyValue("flush_interval", cfg.Analytics.FlushInterval.String())
	output.KeyValue("input_throttle", cfg.Analytics.InputThrottle.String())

	output.Section("Runtime")
	output.KeyValue("ttl", cfg.Runtime.TTL.String())
	output.KeyValue("fetch_timeout", cfg.Runtime.FetchTimeout.String())

	output.Section("QR Login")
	output.KeyValue("ready", fmt.Sprintf("%s x %d", cfg.QRLogin.ReadyInterval, cfg.QRLogin.ReadyMaxAttempts))
	output.KeyValue("status", fmt.Sprintf("%s x %d", cfg.QRLogin.StatusInterval, cfg.QRLogin.StatusMaxAttempts))

	output.Section("Storage")
	output.KeyValue("type", cfg.Storage.Type)
	switch cfg.Storage.Type {
	case "redis":
		output.KeyValue("addr", cfg.Storage.Redis.Addr)
		output.KeyValue("db", fmt.Sprintf("%d", cfg.Storage.Redis.DB))
		if !cfg.Storage.Redis.Password.IsEmpty() {
			output.KeyValue("password", cfg.Storage.Redis.Password.String())
		}
	case "file", "embedded":
		output.KeyValue("file", cfg.Storage.File)
	}
	output.KeyValue("key_prefix", cfg.Storage.KeyPrefix)

	output.Section("Log")
	output.KeyValue("level", cfg.Log.Level)
	output.KeyValue("format", cfg.Log.Format)
	logFile := cfg.Log.File
	if logFile == "" {
		logFile = "(stderr)"
	}
	output.KeyValue("file", logFile)
	return nil
}
