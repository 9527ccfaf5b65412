package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	coreerrors "werss-client/internal/core/errors"
)

// LoginResult 登录结果
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login 用户名密码登录（表单提交）
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	raw, err := c.do(ctx, http.MethodPost, "wx/auth/login", func(r *resty.Request) {
		r.SetHeader("Content-Type", "application/x-www-form-urlencoded").
			SetFormData(map[string]string{
				"username": username,
				"password": password,
			})
	})
	if err != nil {
		return nil, err
	}
	var out LoginResult
	if err := decode(raw, &out, "wx/auth/login"); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, coreerrors.New(coreerrors.CodeInvalidData, "login response has no access token")
	}
	return &out, nil
}

// VerifyResult 令牌校验结果
type VerifyResult struct {
	IsValid   bool   `json:"is_valid"`
	Username  string `json:"username"`
	ExpiresAt *int64 `json:"expires_at,omitempty"`
}

// VerifyToken 校验当前令牌
func (c *Client) VerifyToken(ctx context.Context) (*VerifyResult, error) {
	var out VerifyResult
	if err := c.getJSON(ctx, "wx/auth/verify", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshToken 刷新令牌
func (c *Client) RefreshToken(ctx context.Context) (*LoginResult, error) {
	var out LoginResult
	if err := c.sendJSON(ctx, http.MethodPost, "wx/auth/refresh", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout 注销
func (c *Client) Logout(ctx context.Context) error {
	return c.sendJSON(ctx, http.MethodPost, "wx/auth/logout", nil, nil)
}

// UserPlan 用户套餐
type UserPlan struct {
	Tier        string `json:"tier"`
	Label       string `json:"label"`
	AIQuota     int    `json:"ai_quota"`
	AIUsed      int    `json:"ai_used"`
	AIRemaining int    `json:"ai_remaining"`
}

// CurrentUser 当前用户
type CurrentUser struct {
	Username    string          `json:"username"`
	Phone       string          `json:"phone,omitempty"`
	Nickname    string          `json:"nickname,omitempty"`
	Avatar      string          `json:"avatar,omitempty"`
	Role        string          `json:"role,omitempty"`
	Permissions json.RawMessage `json:"permissions,omitempty"` // string 或 []string
	IsActive    bool            `json:"is_active,omitempty"`
	Plan        *UserPlan       `json:"plan,omitempty"`
}

// PermissionList 权限列表，兼容逗号分隔字符串
func (u *CurrentUser) PermissionList() []string {
	if len(u.Permissions) == 0 {
		return nil
	}
	var list []string
	if json.Unmarshal(u.Permissions, &list) == nil {
		return list
	}
	var s string
	if json.Unmarshal(u.Permissions, &s) == nil && s != "" {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				list = append(list, p)
			}
		}
	}
	return list
}

// GetCurrentUser 获取当前用户
func (c *Client) GetCurrentUser(ctx context.Context) (*CurrentUser, error) {
	var out CurrentUser
	if err := c.getJSON(ctx, "wx/user", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WechatAuthStatus 公众号授权状态
type WechatAuthStatus struct {
	Authorized bool    `json:"authorized"`
	AppName    string  `json:"wx_app_name,omitempty"`
	UserName   string  `json:"wx_user_name,omitempty"`
	ExpiryTime string  `json:"expiry_time,omitempty"`
	UpdatedAt  *string `json:"updated_at,omitempty"`
}

// GetWechatAuthStatus 查询公众号授权状态
func (c *Client) GetWechatAuthStatus(ctx context.Context, strict bool) (*WechatAuthStatus, error) {
	flag := "0"
	if strict {
		flag = "1"
	}
	var out WechatAuthStatus
	if err := c.getJSON(ctx, "wx/auth/wechat/auth", map[string]string{"strict": flag}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QRCodeResult 二维码接口结果
type QRCodeResult struct {
	Code     string `json:"code"` // 二维码图片地址
	IsExists bool   `json:"is_exists"`
	Msg      string `json:"msg,omitempty"`
}

// GetQRCode 请求登录二维码
func (c *Client) GetQRCode(ctx context.Context) (*QRCodeResult, error) {
	raw, err := c.do(ctx, http.MethodGet, "wx/auth/qr/code", nil)
	if err != nil {
		return nil, err
	}
	var out QRCodeResult
	// 非对象响应视为空结果，由调用方判定失败
	_ = json.Unmarshal(raw, &out)
	return &out, nil
}

// QRStatus 扫码授权状态
type QRStatus struct {
	LoginStatus  bool
	ErrorMessage string
	Raw          json.RawMessage
}

// GetQRStatus 查询扫码授权状态
func (c *Client) GetQRStatus(ctx context.Context) (*QRStatus, error) {
	raw, err := c.do(ctx, http.MethodGet, "wx/auth/qr/status", nil)
	if err != nil {
		return nil, err
	}
	return parseQRStatus(raw), nil
}

func parseQRStatus(raw json.RawMessage) *QRStatus {
	out := &QRStatus{Raw: raw}
	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil {
		return out
	}
	out.LoginStatus = truthy(fields["login_status"])
	if em := fields["error_message"]; truthy(em) {
		var s string
		if json.Unmarshal(em, &s) == nil {
			out.ErrorMessage = s
		} else {
			out.ErrorMessage = string(em)
		}
	}
	return out
}
