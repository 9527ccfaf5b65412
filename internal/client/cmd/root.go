// Package cmd 提供 werss 命令行入口
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"werss-client/internal/client/app"
	"werss-client/internal/client/cli"
	"werss-client/internal/client/notify"
	"werss-client/internal/config/loader"
	"werss-client/internal/config/schema"
	corelog "werss-client/internal/core/log"
	"werss-client/internal/version"

	"github.com/spf13/cobra"
)

// 全局标志
var (
	configFile  string
	baseURL     string
	storageType string
	stateFile   string
	logLevel    string
	logFile     string
	noColor     bool
)

// rootCmd 代表根命令
var rootCmd = &cobra.Command{
	Use:   "werss",
	Short: "WeRSS client - session, analytics and login tooling",
	Long: `werss drives the WeRSS client core from the command line.

It keeps the anonymous session identity, batches analytics events to the
ingestion endpoint, caches runtime settings and runs the WeChat QR
authorization flow against a WeRSS backend.

Quick Start:
  werss config init              Write a config template
  werss login                    Sign in with username and password
  werss runtime                  Show runtime settings
  werss replay events.jsonl      Replay recorded UI events through the tracker`,
	Version:       version.GetVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute 执行根命令
func Execute() {
	// 全局 panic recovery
	defer func() {
		if r := recover(); r != nil {
			corelog.Errorf("FATAL: main goroutine panic recovered: %v", r)
			fmt.Fprintf(os.Stderr, "\nPANIC: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", string(debug.Stack()))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cli.NewOutput(os.Stderr, noColor).Error("%v", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file path")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Backend base URL (e.g., http://localhost:8001/)")
	rootCmd.PersistentFlags().StringVar(&storageType, "storage", "", "State storage: file/memory/redis/embedded")
	rootCmd.PersistentFlags().StringVar(&stateFile, "state-file", "", "State file path for file/embedded storage")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug/info/warn/error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log", "", "Log file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(runtimeCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(qrAuthCmd)
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(debugServerCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// applyFlags 命令行参数覆盖配置
func applyFlags(cfg *schema.Root) {
	if baseURL != "" {
		cfg.Client.BaseURL = baseURL
	}
	if storageType != "" {
		cfg.Storage.Type = storageType
	}
	if stateFile != "" {
		cfg.Storage.File = stateFile
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}
}

// loadConfig 加载配置
func loadConfig() (*schema.Root, error) {
	cfg, err := loader.NewLoaderBuilder().
		WithConfigFile(configFile).
		WithOverrides(applyFlags).
		Build().
		Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// configureLogging 配置日志
func configureLogging(cfg *schema.Root) error {
	if _, err := corelog.Setup(cfg.Log.LoggerConfig()); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	return nil
}

func newOutput(cmd *cobra.Command) *cli.Output {
	return cli.NewOutput(cmd.OutOrStdout(), noColor)
}

// openApp 加载配置并组装客户端，通知同时写日志和终端
func openApp(cmd *cobra.Command) (*app.App, *cli.Output, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := configureLogging(cfg); err != nil {
		return nil, nil, err
	}

	out := newOutput(cmd)
	dispatcher := notify.NewDispatcher()
	dispatcher.AddHandler(&notify.DefaultHandler{})
	dispatcher.AddHandler(&cli.NotifyHandler{Output: out})

	a, err := app.New(cmd.Context(), app.Options{
		Config:   cfg,
		Notifier: dispatcher,
		Title:    func() string { return "werss-cli" },
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start client: %w", err)
	}
	return a, out, nil
}

// closeApp 关闭客户端，关闭失败只记录日志
func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		corelog.Warnf("close client: %v", err)
	}
}
