package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"werss-client/internal/client/cli"
	"werss-client/internal/client/session"

	"github.com/spf13/cobra"
)

var (
	loginUsername      string
	loginPasswordStdin bool
	whoamiRemote       bool
)

// loginCmd 账号密码登录
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with username and password",
	Long: `Sign in against the backend and store the access token in state storage.

Example:
  werss login
  werss login -u admin
  echo "$PASS" | werss login -u admin --password-stdin`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

// logoutCmd 注销
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and drop the stored token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

// whoamiCmd 当前身份
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in identity",
	Long: `Show the identity carried by the stored access token.
With --remote the backend is asked for the current user profile as well.

Example:
  werss whoami
  werss whoami --remote`,
	Args: cobra.NoArgs,
	RunE: runWhoami,
}

// qrAuthCmd 公众号扫码授权
var qrAuthCmd = &cobra.Command{
	Use:   "qr-auth",
	Short: "Authorize the server's WeChat account by QR scan",
	Long: `Request a WeChat authorization QR code, wait until the image is ready,
then wait for the scan to complete.

Example:
  werss qr-auth`,
	Args: cobra.NoArgs,
	RunE: runQRAuth,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "Read the password from stdin")
	whoamiCmd.Flags().BoolVar(&whoamiRemote, "remote", false, "Fetch the profile from the backend")
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, out, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	prompt := cli.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
	if loginPasswordStdin {
		// stdin 留给密码
		prompt = cli.NewPrompter(cmd.InOrStdin(), io.Discard)
	}

	username := strings.TrimSpace(loginUsername)
	if username == "" {
		if loginPasswordStdin {
			return fmt.Errorf("--username is required with --password-stdin")
		}
		if username, err = prompt.Line("Username"); err != nil {
			return err
		}
	}
	password, err := prompt.Password("Password")
	if err != nil {
		return err
	}
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}

	if _, err := a.Login(cmd.Context(), username, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	out.Success("Signed in as %s", username)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, out, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if a.Tokens.Token(cmd.Context()) == "" {
		out.Info("Not signed in")
		return nil
	}
	if err := a.Logout(cmd.Context()); err != nil {
		return err
	}
	out.Success("Signed out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, out, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	ctx := cmd.Context()
	claims, err := a.Tokens.Claims(ctx)
	if err != nil {
		out.Warning("Not signed in")
		return nil
	}
	printClaims(out, claims, time.Now())

	if !whoamiRemote {
		return nil
	}
	user, err := a.API.GetCurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("fetch profile: %w", err)
	}
	out.Section("Profile")
	out.KeyValue("username", user.Username)
	if user.Nickname != "" {
		out.KeyValue("nickname", user.Nickname)
	}
	out.KeyValue("role", user.Role)
	if perms := user.PermissionList(); len(perms) > 0 {
		out.KeyValue("permissions", strings.Join(perms, ","))
	}
	if user.Plan != nil {
		out.KeyValue("plan", user.Plan.Label)
		out.KeyValue("ai_quota", fmt.Sprintf("%d/%d", user.Plan.AIUsed, user.Plan.AIQuota))
	}
	return nil
}

func printClaims(out *cli.Output, c *session.Claims, now time.Time) {
	out.Header("Identity")
	name := c.Username
	if name == "" {
		name = c.Subject
	}
	out.KeyValue("user", name)
	if c.Role != "" {
		out.KeyValue("role", c.Role)
	}
	if !c.ExpiresAt.IsZero() {
		out.KeyValue("expires_at", c.ExpiresAt.Format(time.RFC3339))
	}
	out.KeyValue("expired", strconv.FormatBool(c.Expired(now)))
}

func runQRAuth(cmd *cobra.Command, args []string) error {
	a, out, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	ctx := cmd.Context()
	out.Info("Requesting QR code...")
	code, err := a.QR.StartReady(ctx).Wait(ctx)
	if err != nil {
		return err
	}
	out.Section("Scan with WeChat")
	out.Plain("  %s", code.Code)
	fmt.Fprintln(out.Writer())

	if _, err := a.QR.StartStatus(ctx).Wait(ctx); err != nil {
		return err
	}

	status, err := a.API.GetWechatAuthStatus(ctx, true)
	if err != nil {
		// 授权已成功，状态查询失败只提示
		out.Warning("Authorization status unavailable: %v", err)
		return nil
	}
	if status.AppName != "" {
		out.KeyValue("account", status.AppName)
	}
	if status.ExpiryTime != "" {
		out.KeyValue("expires", status.ExpiryTime)
	}
	return nil
}
