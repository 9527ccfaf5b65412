package cmd

import (
	"fmt"
	"strconv"

	"werss-client/internal/client/api"
	"werss-client/internal/client/cli"

	"github.com/spf13/cobra"
)

var (
	statsDays     int
	statsLimit    int
	statsPage     int
	statsPageSize int
	statsKeyword  string
	statsJSON     bool
)

// statsCmd 统计查看命令组（管理员）
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Inspect collected analytics (admin)",
	Long: `Inspect analytics collected by the backend. Requires an admin account.

Commands:
  summary   Overview, top pages and features
  users     Per-user usage`,
}

var statsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the analytics summary",
	Long: `Show the analytics overview for a window of days.

Example:
  werss stats summary --days 7`,
	Args: cobra.NoArgs,
	RunE: runStatsSummary,
}

var statsUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Show per-user usage",
	Long: `List users with their plan, AI quota usage and event count.

Example:
  werss stats users --page 1 --page-size 20 --keyword alice`,
	Args: cobra.NoArgs,
	RunE: runStatsUsers,
}

func init() {
	statsSummaryCmd.Flags().IntVar(&statsDays, "days", 7, "Window in days")
	statsSummaryCmd.Flags().IntVar(&statsLimit, "limit", 10, "Rows per ranking")
	statsUsersCmd.Flags().IntVar(&statsPage, "page", 1, "Page number")
	statsUsersCmd.Flags().IntVar(&statsPageSize, "page-size", 20, "Page size")
	statsUsersCmd.Flags().StringVar(&statsKeyword, "keyword", "", "Filter by username or nickname")
	statsCmd.PersistentFlags().BoolVar(&statsJSON, "json", false, "Print as JSON")

	statsCmd.AddCommand(statsSummaryCmd)
	statsCmd.AddCommand(statsUsersCmd)
}

func runStatsSummary(cmd *cobra.Command, args []string) error {
	a, out, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	summary, err := a.API.GetAnalyticsSummary(cmd.Context(), statsDays, statsLimit)
	if err != nil {
		return err
	}
	if statsJSON {
		return out.JSON(summary)
	}
	printSummary(out, summary)
	return nil
}

func printSummary(out *cli.Output, s *api.AnalyticsSummary) {
	out.Header(fmt.Sprintf("Analytics (last %d days)", s.WindowDays))
	o := s.Overview
	out.KeyValue("total_events", strconv.Itoa(o.TotalEvents))
	out.KeyValue("page_views", strconv.Itoa(o.PageViews))
	out.KeyValue("api_requests", strconv.Itoa(o.APIRequests))
	out.KeyValue("input_events", strconv.Itoa(o.InputEvents))
	out.KeyValue("unique_users", strconv.Itoa(o.UniqueUsers))
	out.KeyValue("avg_api_ms", fmt.Sprintf("%.1f", o.AvgAPIDurationMS))
	out.KeyValue("p95_api_ms", fmt.Sprintf("%.1f", o.P95APIDurationMS))

	if len(s.TopPages) > 0 {
		out.Section("Top Pages")
		t := cli.NewTable("PAGE", "VISITS")
		for _, p := range s.TopPages {
			t.AddRow(p.Page, strconv.Itoa(p.Visits))
		}
		out.Render(t)
	}
	if len(s.TopFeatures) > 0 {
		out.Section("Top Features")
		t := cli.NewTable("FEATURE", "EVENTS")
		for _, f := range s.TopFeatures {
			t.AddRow(f.Feature, strconv.Itoa(f.Events))
		}
		out.Render(t)
	}
}

func runStatsUsers(cmd *cobra.Command, args []string) error {
	a, out, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	page, err := a.API.GetAnalyticsUsers(cmd.Context(), statsPage, statsPageSize, statsKeyword)
	if err != nil {
		return err
	}
	if statsJSON {
		return out.JSON(page)
	}

	out.Header(fmt.Sprintf("Users (%d total, page %d)", page.Total, page.Page))
	t := cli.NewTable("USERNAME", "ROLE", "PLAN", "AI USED", "EVENTS", "WECHAT")
	for _, u := range page.List {
		t.AddRow(u.Username, u.Role, u.PlanLabel,
			fmt.Sprintf("%d/%d", u.AIUsed, u.AIQuota),
			strconv.Itoa(u.EventCount),
			strconv.FormatBool(u.WechatAuthorized))
	}
	out.Render(t)
	return nil
}
