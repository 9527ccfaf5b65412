package cmd

import (
	"context"
	"time"

	"werss-client/internal/client/debug"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var debugAddr string

// debugServerCmd 启动本地调试接口
var debugServerCmd = &cobra.Command{
	Use:   "debug-server",
	Short: "Run the client with a local debug HTTP API",
	Long: `Boot the client core and expose its state over a local HTTP API until
interrupted. Events queued while running are flushed on exit.

Endpoints:
  GET  /debug/status
  GET  /debug/health
  GET  /debug/runtime?force=1
  POST /debug/flush
  POST /debug/navigate     {"path":"/workspace/content"}
  POST /debug/visibility   {"hidden":true}
  GET  /metrics

Example:
  werss debug-server --addr 127.0.0.1:7788`,
	Args: cobra.NoArgs,
	RunE: runDebugServer,
}

func init() {
	debugServerCmd.Flags().StringVar(&debugAddr, "addr", "127.0.0.1:7788", "Listen address")
}

func runDebugServer(cmd *cobra.Command, args []string) error {
	a, out, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	ctx := cmd.Context()
	a.Bootstrap(ctx)
	if !a.Booted() {
		out.Warning("Analytics is disabled, events will not be captured")
	}

	srv := debug.NewServer(a, debugAddr, prometheus.DefaultGatherer, nil).WithHealth(a.Health)
	if err := srv.Start(); err != nil {
		return err
	}
	out.Success("Debug server listening on http://%s", srv.Addr())
	out.Info("Press Ctrl+C to stop")

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(stopCtx); err != nil {
		out.Warning("Debug server shutdown: %v", err)
	}
	return nil
}
