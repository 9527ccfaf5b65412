package cmd

import (
	"fmt"

	"werss-client/internal/client/cli"
	"werss-client/internal/health"

	"github.com/spf13/cobra"
)

var healthJSON bool

// healthCmd 检查存储、后端与埋点队列
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check state storage, backend and tracker queue",
	Long: `Run the client health checks and exit non-zero when a component is unhealthy.

Example:
  werss health
  werss health --json`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "Print as JSON")
}

func runHealth(cmd *cobra.Command, args []string) error {
	a, out, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	report := a.Health.Report(cmd.Context())
	if healthJSON {
		if err := out.JSON(report); err != nil {
			return err
		}
	} else {
		printHealth(out, report)
	}
	if report.Status == health.ComponentStatusUnhealthy {
		return fmt.Errorf("client is unhealthy")
	}
	return nil
}

func printHealth(out *cli.Output, r health.Report) {
	out.Header("Health")
	t := cli.NewTable("COMPONENT", "STATUS", "DETAIL")
	for _, c := range r.Components {
		t.AddRow(c.Name, string(c.Status), c.Message)
	}
	out.Render(t)
	switch r.Status {
	case health.ComponentStatusHealthy:
		out.Success("All components healthy")
	case health.ComponentStatusDegraded:
		out.Warning("Degraded")
	default:
		out.Error("Unhealthy")
	}
}
