package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"werss-client/internal/client/api"

	"github.com/spf13/cobra"
)

var (
	trackFeature  string
	trackAction   string
	trackValue    string
	trackPage     string
	trackMetadata string
)

// trackCmd 上报单个事件
var trackCmd = &cobra.Command{
	Use:   "track <event_type>",
	Short: "Send a single analytics event",
	Long: `Queue one analytics event and flush it to the ingestion endpoint.
Nothing is sent when analytics is disabled locally or by runtime settings.

Example:
  werss track feature_use --feature export --action pdf
  werss track page_view --page /workspace/content
  werss track custom --metadata '{"k":"v"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runTrack,
}

// replayCmd 回放录制的宿主事件
var replayCmd = &cobra.Command{
	Use:   "replay <file.jsonl>",
	Short: "Replay recorded UI events through the tracker",
	Long: `Replay a JSON-lines recording of host events through the client core.
Each line is one record; blank lines and lines starting with # are skipped.

  {"type":"navigate","path":"/workspace/content?tab=1"}
  {"type":"click","target":{"tag":"button","text":"Export"}}
  {"type":"input","target":{"tag":"input","name":"keyword","value":"go"}}
  {"type":"visibility","hidden":true}

Use "-" to read the recording from stdin.

Example:
  werss replay session.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	trackCmd.Flags().StringVar(&trackFeature, "feature", "", "Feature name")
	trackCmd.Flags().StringVar(&trackAction, "action", "", "Action name")
	trackCmd.Flags().StringVar(&trackValue, "value", "", "Event value")
	trackCmd.Flags().StringVar(&trackPage, "page", "", "Page path (defaults to the current route)")
	trackCmd.Flags().StringVar(&trackMetadata, "metadata", "", "Metadata as a JSON object")
}

func runTrack(cmd *cobra.Command, args []string) error {
	ev := api.Event{
		EventType: args[0],
		Page:      trackPage,
		Feature:   trackFeature,
		Action:    trackAction,
		Value:     trackValue,
	}
	if trackMetadata != "" {
		if err := json.Unmarshal([]byte(trackMetadata), &ev.Metadata); err != nil {
			return fmt.Errorf("invalid --metadata: %w", err)
		}
	}

	a, out, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	ctx := cmd.Context()
	settings := a.RuntimeSettings(ctx, false)
	a.Tracker.SetEnabled(a.Config().Analytics.Enabled && settings.AnalyticsEnabled)
	if !a.Tracker.Enabled() {
		out.Warning("Analytics is disabled, event dropped")
		return nil
	}

	a.Tracker.Track(ev)
	if err := a.Flush(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	out.Success("Event %s sent", ev.EventType)
	return nil
}

func runReplay(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open recording: %w", err)
		}
		defer f.Close()
		in = f
	}
	records, err := readReplay(in)
	if err != nil {
		return err
	}

	a, out, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	ctx := cmd.Context()
	a.Bootstrap(ctx)
	if !a.Booted() {
		out.Warning("Analytics is disabled, nothing replayed")
		return nil
	}

	stats, err := replay(ctx, a, records)
	if err != nil {
		return err
	}
	if err := a.Flush(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	out.Success("Replayed %d records", len(records))
	for _, kind := range replayKinds {
		if n := stats[kind]; n > 0 {
			out.KeyValue(kind, fmt.Sprintf("%d", n))
		}
	}
	out.KeyValue("location", a.Router.Current().FullPath())
	return nil
}
