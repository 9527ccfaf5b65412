package cmd

import (
	"fmt"

	"werss-client/internal/version"

	"github.com/spf13/cobra"
)

// versionCmd 显示版本信息
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Show detailed version information including build time and git commit.

Example:
  werss version`,
	Run: runVersion,
}

func runVersion(cmd *cobra.Command, args []string) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", version.ProductName, version.GetVersion())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Command line client for the WeRSS content and analytics platform.")
	fmt.Fprintln(w)
}
