// Package api 封装后端 REST 接口
//
// 所有请求经过同一个 resty 客户端：
//   - 请求拦截：附加 Authorization: Bearer <token> 与 X-Session-Id
//   - 响应拦截：解析 {code, data|detail, message|msg} 包络，处理 401 / 422
package api

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"

	coreerrors "werss-client/internal/core/errors"
	corelog "werss-client/internal/core/log"
)

const (
	// APIPrefix 追加在 BaseURL 之后的接口前缀
	APIPrefix = "api/v1/"

	// HeaderSessionID 会话标识请求头
	HeaderSessionID = "X-Session-Id"

	defaultTimeout     = 100 * time.Second
	defaultBeaconQueue = 64
	defaultEventsPath  = "wx/analytics/events"
)

// TokenSource 提供当前访问令牌，无令牌时返回空串
type TokenSource interface {
	Token(ctx context.Context) string
}

// SessionSource 提供会话标识
type SessionSource interface {
	SessionID(ctx context.Context) string
}

// Options 客户端选项
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	EventsPath string // 埋点上报路径，相对 APIPrefix
	// BeaconQueue beacon 后台队列容量
	BeaconQueue int

	Tokens   TokenSource
	Sessions SessionSource

	// OnUnauthorized 收到 401 时回调（跳转登录页）
	OnUnauthorized func()
	// OnRemoteError JSON 响应携带非 0 业务码时回调（展示错误提示）
	OnRemoteError func(message string)

	// HTTPClient 可选，测试时注入
	HTTPClient *http.Client
	Logger     corelog.Logger
}

// Client 后端 API 客户端
type Client struct {
	rc      *resty.Client
	plain   *resty.Client // 无拦截器，用于第三方资源探测
	opts    Options
	apiBase string
	site    *url.URL // BaseURL 的 scheme + host
	logger  corelog.Logger
	beacon  *beaconWorker
}

// NewClient 创建 API 客户端
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, coreerrors.New(coreerrors.CodeInvalidParam, "base url is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.BeaconQueue <= 0 {
		opts.BeaconQueue = defaultBeaconQueue
	}
	if opts.EventsPath == "" {
		opts.EventsPath = defaultEventsPath
	}
	logger := corelog.OrDefault(opts.Logger)

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeInvalidParam, "invalid base url")
	}
	apiBase := strings.TrimRight(opts.BaseURL, "/") + "/" + APIPrefix

	rc := newResty(opts.HTTPClient)
	plain := newResty(opts.HTTPClient).
		SetLogger(logger).
		SetTimeout(opts.Timeout)
	if opts.UserAgent != "" {
		plain.SetHeader("User-Agent", opts.UserAgent)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeInternal, "create cookie jar")
	}

	rc.SetBaseURL(apiBase).
		SetLogger(logger).
		SetTimeout(opts.Timeout).
		SetCookieJar(jar).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}

	c := &Client{
		rc:      rc,
		plain:   plain,
		opts:    opts,
		apiBase: apiBase,
		site:    &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/"},
		logger:  logger,
	}
	rc.OnBeforeRequest(c.attachIdentity)
	rc.OnAfterResponse(c.checkResponse)

	c.beacon = newBeaconWorker(opts.HTTPClient, opts.BeaconQueue, logger)
	return c, nil
}

func newResty(hc *http.Client) *resty.Client {
	if hc != nil {
		return resty.NewWithClient(hc)
	}
	return resty.New()
}

// APIBase 返回接口根地址（BaseURL + api/v1/）
func (c *Client) APIBase() string {
	return c.apiBase
}

// Close 停止 beacon 后台任务
func (c *Client) Close() error {
	c.beacon.close()
	return nil
}

// attachIdentity 请求拦截器
func (c *Client) attachIdentity(_ *resty.Client, r *resty.Request) error {
	ctx := r.Context()
	if c.opts.Tokens != nil {
		if token := c.opts.Tokens.Token(ctx); token != "" {
			r.SetAuthToken(token)
		}
	}
	if c.opts.Sessions != nil {
		r.SetHeader(HeaderSessionID, c.opts.Sessions.SessionID(ctx))
	}
	return nil
}

// checkResponse 响应拦截器
func (c *Client) checkResponse(_ *resty.Client, resp *resty.Response) error {
	if resp.Request != nil && resp.Request.Method == http.MethodHead {
		return nil
	}

	status := resp.StatusCode()
	body := resp.Body()
	quiet := resp.Request != nil && hooksDisabled(resp.Request.Context())

	if status == http.StatusUnauthorized {
		return c.unauthorized(messageFrom(body), quiet)
	}
	if status == http.StatusUnprocessableEntity {
		return coreerrors.New(coreerrors.CodeRemoteError, validationMessage(body)).
			WithDetail("status", strconv.Itoa(status))
	}
	if status >= http.StatusBadRequest {
		msg := messageFrom(body)
		if msg == "" {
			msg = http.StatusText(status)
		}
		return coreerrors.New(coreerrors.CodeRemoteError, msg).
			WithDetail("status", strconv.Itoa(status))
	}

	env, ok := parseEnvelope(body)
	if ok && env.code != nil {
		switch *env.code {
		case 0:
			return nil
		case http.StatusUnauthorized:
			return c.unauthorized("", quiet)
		}
	}
	if !isJSON(resp.Header().Get("Content-Type")) {
		// 非 JSON 响应原样返回
		return nil
	}

	msg := env.errorMessage()
	if msg == "" {
		msg = "request failed"
	}
	if c.opts.OnRemoteError != nil && !quiet {
		c.opts.OnRemoteError(msg)
	}
	e := coreerrors.New(coreerrors.CodeRemoteError, msg)
	if env.code != nil {
		e = e.WithDetail("code", strconv.Itoa(*env.code))
	}
	return e
}

func (c *Client) unauthorized(msg string, quiet bool) error {
	if msg == "" {
		msg = "not logged in or session expired, please log in again"
	}
	if c.opts.OnUnauthorized != nil && !quiet {
		c.opts.OnUnauthorized()
	}
	return coreerrors.New(coreerrors.CodeUnauthorized, msg)
}

// do 执行请求并返回包络中的有效载荷
func (c *Client) do(ctx context.Context, method, path string, prepare func(r *resty.Request)) (json.RawMessage, error) {
	r := c.rc.R().SetContext(ctx)
	if prepare != nil {
		prepare(r)
	}

	resp, err := r.Execute(method, path)
	if err != nil {
		return nil, classify(err, method, path)
	}
	return payloadOf(resp.Body()), nil
}

// getJSON GET 并解码到 out
func (c *Client) getJSON(ctx context.Context, path string, query map[string]string, out interface{}) error {
	raw, err := c.do(ctx, http.MethodGet, path, func(r *resty.Request) {
		if len(query) > 0 {
			r.SetQueryParams(query)
		}
	})
	if err != nil {
		return err
	}
	return decode(raw, out, path)
}

// sendJSON 以 JSON 请求体发送并解码到 out（out 可为 nil）
func (c *Client) sendJSON(ctx context.Context, method, path string, body, out interface{}) error {
	raw, err := c.do(ctx, method, path, func(r *resty.Request) {
		if body != nil {
			r.SetBody(body)
		}
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(raw, out, path)
}

type quietKey struct{}

// withoutHooks 标记请求不触发 401 跳转与错误提示回调，错误仍正常返回
func withoutHooks(ctx context.Context) context.Context {
	return context.WithValue(ctx, quietKey{}, true)
}

func hooksDisabled(ctx context.Context) bool {
	quiet, _ := ctx.Value(quietKey{}).(bool)
	return quiet
}

// Head 对任意 URL 发送 HEAD 请求，返回状态码
// 不附加鉴权与会话头，相对地址按站点根解析
func (c *Client) Head(ctx context.Context, rawURL string) (int, error) {
	target := c.ResolveURL(rawURL)
	resp, err := c.plain.R().SetContext(ctx).Head(target)
	if err != nil {
		return 0, classify(err, http.MethodHead, target)
	}
	return resp.StatusCode(), nil
}

// ResolveURL 把后端返回的地址解析为绝对地址，基准为 BaseURL 的站点根
func (c *Client) ResolveURL(rawURL string) string {
	ref, err := url.Parse(rawURL)
	if err != nil || ref.IsAbs() {
		return rawURL
	}
	return c.site.ResolveReference(ref).String()
}

// classify 将传输层错误转换为带错误码的错误
func classify(err error, method, path string) error {
	var coded *coreerrors.Error
	if errors.As(err, &coded) {
		return coded
	}
	if errors.Is(err, context.Canceled) {
		return coreerrors.Wrapf(err, coreerrors.CodeCancelled, "%s %s cancelled", method, path)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return coreerrors.Wrapf(err, coreerrors.CodeTimeout, "%s %s timed out", method, path)
	}
	return coreerrors.Wrapf(err, coreerrors.CodeNetworkError, "%s %s failed", method, path)
}

func decode(raw json.RawMessage, out interface{}, path string) error {
	if len(raw) == 0 {
		return coreerrors.Newf(coreerrors.CodeInvalidData, "empty response from %s", path)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return coreerrors.Wrapf(err, coreerrors.CodeInvalidData, "failed to parse response from %s", path)
	}
	return nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}
