package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
)

// Event 埋点事件
type Event struct {
	EventType   string                 `json:"event_type"`
	Page        string                 `json:"page,omitempty"`
	Feature     string                 `json:"feature,omitempty"`
	Action      string                 `json:"action,omitempty"`
	Method      string                 `json:"method,omitempty"`
	Path        string                 `json:"path,omitempty"`
	StatusCode  *int                   `json:"status_code,omitempty"`
	DurationMS  *float64               `json:"duration_ms,omitempty"`
	InputName   string                 `json:"input_name,omitempty"`
	InputLength *int                   `json:"input_length,omitempty"`
	Value       string                 `json:"value,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	SessionID   string                 `json:"session_id,omitempty"`
	CreatedAt   string                 `json:"created_at,omitempty"`
}

// Clone 深拷贝事件（metadata 浅层复制）
func (e Event) Clone() Event {
	out := e
	if e.StatusCode != nil {
		v := *e.StatusCode
		out.StatusCode = &v
	}
	if e.DurationMS != nil {
		v := *e.DurationMS
		out.DurationMS = &v
	}
	if e.InputLength != nil {
		v := *e.InputLength
		out.InputLength = &v
	}
	if e.Metadata != nil {
		out.Metadata = make(map[string]interface{}, len(e.Metadata))
		for k, v := range e.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// EventBatch 上报请求体
type EventBatch struct {
	Events []Event `json:"events"`
}

// ReportResult 上报结果
type ReportResult struct {
	Accepted int `json:"accepted"`
}

// ReportEvents 上报一批事件
func (c *Client) ReportEvents(ctx context.Context, events []Event) error {
	var result ReportResult
	// 上报失败交给队列重试，不弹提示也不跳转登录
	raw, err := c.do(withoutHooks(ctx), http.MethodPost, c.opts.EventsPath, func(r *resty.Request) {
		r.SetBody(EventBatch{Events: events})
	})
	if err != nil {
		return err
	}
	if json.Unmarshal(raw, &result) == nil {
		c.logger.Debugf("analytics: reported %d events, accepted %d", len(events), result.Accepted)
	}
	return nil
}

// EventsURL 埋点上报的完整地址（beacon 使用）
func (c *Client) EventsURL() string {
	return c.apiBase + strings.TrimLeft(c.opts.EventsPath, "/")
}

// GetRuntimeSettings 获取运行时设置原始 JSON
func (c *Client) GetRuntimeSettings(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "wx/analytics/runtime", nil)
}

// UpdateRuntimeMode 切换产品模式（管理员）
func (c *Client) UpdateRuntimeMode(ctx context.Context, mode string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, "wx/analytics/runtime", func(r *resty.Request) {
		r.SetBody(map[string]string{"mode": mode})
	})
}

// AnalyticsOverview 汇总指标
type AnalyticsOverview struct {
	TotalEvents          int     `json:"total_events"`
	PageViews            int     `json:"page_views"`
	APIRequests          int     `json:"api_requests"`
	InputEvents          int     `json:"input_events"`
	LoginEvents          int     `json:"login_events"`
	UniqueUsers          int     `json:"unique_users"`
	AvgAPIDurationMS     float64 `json:"avg_api_duration_ms"`
	P95APIDurationMS     float64 `json:"p95_api_duration_ms"`
	AvgSessionSeconds    float64 `json:"avg_session_seconds"`
	RegisteredUsersTotal int     `json:"registered_users_total,omitempty"`
	AuthorizedUsersTotal int     `json:"authorized_users_total,omitempty"`
}

// PageVisits 页面访问排行
type PageVisits struct {
	Page   string `json:"page"`
	Visits int    `json:"visits"`
}

// FeatureEvents 功能使用排行
type FeatureEvents struct {
	Feature string `json:"feature"`
	Events  int    `json:"events"`
}

// DailyTrend 每日趋势
type DailyTrend struct {
	Date      string `json:"date"`
	Events    int    `json:"events"`
	PageViews int    `json:"page_views"`
	Requests  int    `json:"api_requests"`
	Inputs    int    `json:"inputs"`
	Users     int    `json:"users"`
}

// AnalyticsSummary 统计汇总
type AnalyticsSummary struct {
	WindowDays   int               `json:"window_days"`
	Overview     AnalyticsOverview `json:"overview"`
	TopPages     []PageVisits      `json:"top_pages"`
	TopFeatures  []FeatureEvents   `json:"top_features"`
	DailyTrend   []DailyTrend      `json:"daily_trend"`
	RecentEvents []Event           `json:"recent_events"`
	Runtime      json.RawMessage   `json:"runtime,omitempty"`
}

// GetAnalyticsSummary 获取统计汇总
func (c *Client) GetAnalyticsSummary(ctx context.Context, days, limit int) (*AnalyticsSummary, error) {
	var out AnalyticsSummary
	err := c.getJSON(ctx, "wx/analytics/summary", map[string]string{
		"days":  strconv.Itoa(days),
		"limit": strconv.Itoa(limit),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UserUsage 用户用量
type UserUsage struct {
	Username         string  `json:"username"`
	Nickname         string  `json:"nickname,omitempty"`
	Role             string  `json:"role"`
	IsActive         bool    `json:"is_active"`
	PlanTier         string  `json:"plan_tier"`
	PlanLabel        string  `json:"plan_label"`
	AIQuota          int     `json:"ai_quota"`
	AIUsed           int     `json:"ai_used"`
	AIUsageRate      float64 `json:"ai_usage_rate"`
	WechatAuthorized bool    `json:"wechat_authorized"`
	EventCount       int     `json:"event_count"`
	LastActive       *string `json:"last_active,omitempty"`
}

// UserUsagePage 用户用量分页
type UserUsagePage struct {
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	List     []UserUsage `json:"list"`
}

// GetAnalyticsUsers 分页获取用户用量
func (c *Client) GetAnalyticsUsers(ctx context.Context, page, pageSize int, keyword string) (*UserUsagePage, error) {
	var out UserUsagePage
	err := c.getJSON(ctx, "wx/analytics/users", map[string]string{
		"page":      strconv.Itoa(page),
		"page_size": strconv.Itoa(pageSize),
		"keyword":   strings.TrimSpace(keyword),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
