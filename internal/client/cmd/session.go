package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
)

var sessionJSON bool

// sessionCmd 显示匿名会话与客户端状态
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Show the anonymous session identity",
	Long: `Show the persisted anonymous session id and a snapshot of client state.
The id is created on first use and reused by every later invocation that
shares the same state storage.

Example:
  werss session
  werss session --json`,
	Args: cobra.NoArgs,
	RunE: runSession,
}

func init() {
	sessionCmd.Flags().BoolVar(&sessionJSON, "json", false, "Print as JSON")
}

func runSession(cmd *cobra.Command, args []string) error {
	a, out, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	st := a.Status(cmd.Context())
	if sessionJSON {
		return out.JSON(st)
	}

	out.Header("Session")
	out.KeyValue("session_id", st.SessionID)
	out.KeyValue("logged_in", strconv.FormatBool(st.LoggedIn))
	out.KeyValue("location", st.Location)
	out.KeyValue("queue_length", strconv.Itoa(st.QueueLength))
	return nil
}
