package cmd

import (
	"strconv"

	"werss-client/internal/client/cli"
	"werss-client/internal/client/runtime"

	"github.com/spf13/cobra"
)

var (
	runtimeForce bool
	runtimeMode  string
	runtimeClear bool
	runtimeJSON  bool
)

// runtimeCmd 查看或切换运行时设置
var runtimeCmd = &cobra.Command{
	Use:   "runtime",
	Short: "Show or change runtime settings",
	Long: `Show the runtime settings served by the backend.

Settings are cached locally for a short time; --force bypasses the cache.
When the backend is unreachable the last cached value, or the built-in
defaults, are shown instead.

Example:
  werss runtime
  werss runtime --force
  werss runtime --mode all_free    # admin only
  werss runtime --clear`,
	Args: cobra.NoArgs,
	RunE: runRuntime,
}

func init() {
	runtimeCmd.Flags().BoolVar(&runtimeForce, "force", false, "Bypass the local cache")
	runtimeCmd.Flags().StringVar(&runtimeMode, "mode", "", "Switch product mode: all_free/commercial")
	runtimeCmd.Flags().BoolVar(&runtimeClear, "clear", false, "Drop the cached settings")
	runtimeCmd.Flags().BoolVar(&runtimeJSON, "json", false, "Print as JSON")
}

func runRuntime(cmd *cobra.Command, args []string) error {
	a, out, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	ctx := cmd.Context()
	if runtimeClear {
		a.Runtime.Clear(ctx)
		out.Success("Runtime settings cache cleared")
		return nil
	}

	var settings runtime.Settings
	if runtimeMode != "" {
		settings, err = a.Runtime.UpdateMode(ctx, runtimeMode)
		if err != nil {
			return err
		}
		out.Success("Product mode switched to %s", settings.ProductMode)
	} else {
		settings = a.RuntimeSettings(ctx, runtimeForce)
	}

	if runtimeJSON {
		return out.JSON(settings)
	}
	printSettings(out, settings)
	return nil
}

func printSettings(out *cli.Output, s runtime.Settings) {
	out.Header("Runtime Settings")
	out.KeyValue("product_mode", s.ProductMode)
	out.KeyValue("is_all_free", strconv.FormatBool(s.IsAllFree))
	out.KeyValue("billing_visible", strconv.FormatBool(s.BillingVisible))
	out.KeyValue("analytics_enabled", strconv.FormatBool(s.AnalyticsEnabled))
	if s.UpdatedAt != "" {
		out.KeyValue("updated_at", s.UpdatedAt)
	}
}
