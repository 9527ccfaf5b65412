package router

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
)

// Route 路由记录
type Route struct {
	Name     string
	Path     string
	Aliases  []string
	Redirect string

	RequiresAuth  bool
	HideInAllFree bool     // 全免费模式下隐藏（计费相关页面）
	Permissions   []string // 目前只对 admin 做硬拦截
}

// requires 是否声明了指定权限
func (r *Route) requires(perm string) bool {
	for _, p := range r.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// DefaultRoutes 控制台路由表
func DefaultRoutes() []Route {
	return []Route{
		{Name: "Home", Path: "/", Aliases: []string{"/workspace/content"}, RequiresAuth: true},
		{Path: "/workspace", Redirect: "/workspace/content"},
		{Path: "/workspace/ops", Redirect: "/workspace/ops/messages"},
		{Name: "ChangePassword", Path: "/change-password", RequiresAuth: true},
		{Name: "EditUser", Path: "/edit-user", RequiresAuth: true},
		{Name: "AddSubscription", Path: "/add-subscription", Aliases: []string{"/workspace/subscriptions"}, RequiresAuth: true},
		{Name: "WeChatMpManagement", Path: "/wechat/mp", RequiresAuth: true, Permissions: []string{"wechat:manage"}},
		{Name: "ConfigList", Path: "/configs", Aliases: []string{"/workspace/ops/configs"}, RequiresAuth: true, Permissions: []string{"admin"}},
		{Name: "ExportList", Path: "/export/records", RequiresAuth: true, Permissions: []string{"config:view"}},
		{Name: "ConfigDetail", Path: "/configs/:key", RequiresAuth: true, Permissions: []string{"admin"}},
		{Name: "MessageTaskList", Path: "/message-tasks", Aliases: []string{"/workspace/ops/messages"}, RequiresAuth: true, Permissions: []string{"message_task:view"}},
		{Name: "MessageTaskAdd", Path: "/message-tasks/add", RequiresAuth: true, Permissions: []string{"message_task:edit"}},
		{Name: "MessageTaskEdit", Path: "/message-tasks/edit/:id", RequiresAuth: true, Permissions: []string{"message_task:edit"}},
		{Name: "SysInfo", Path: "/sys-info", RequiresAuth: true, Permissions: []string{"admin"}},
		{Name: "AiStudio", Path: "/ai/studio", Aliases: []string{"/workspace/studio"}, RequiresAuth: true},
		{Path: "/workspace/draftbox", Redirect: "/workspace/studio"},
		{Name: "BillingCenter", Path: "/billing", Aliases: []string{"/workspace/billing"}, RequiresAuth: true, HideInAllFree: true},
		{Name: "PlanManagement", Path: "/admin/plans", Aliases: []string{"/workspace/admin/plans"}, RequiresAuth: true, Permissions: []string{"admin"}},
		{Name: "AnalyticsDashboard", Path: "/admin/analytics", Aliases: []string{"/workspace/admin/analytics"}, RequiresAuth: true, Permissions: []string{"admin"}},
		{Name: "TagList", Path: "/tags", Aliases: []string{"/workspace/ops/tags"}, RequiresAuth: true, Permissions: []string{"tag:view"}},
		{Name: "TagAdd", Path: "/tags/add", RequiresAuth: true, Permissions: []string{"tag:edit"}},
		{Name: "TagEdit", Path: "/tags/edit/:id", RequiresAuth: true, Permissions: []string{"tag:edit"}},
		{Name: "Login", Path: "/login"},
		{Name: "NovelReader", Path: "/reader", RequiresAuth: true},
	}
}

// DefaultCanonicalPaths 旧路径到工作台路径的映射
func DefaultCanonicalPaths() map[string]string {
	return map[string]string{
		"/add-subscription":   "/workspace/subscriptions",
		"/ai/studio":          "/workspace/studio",
		"/draftbox":           "/workspace/studio",
		"/workspace/draftbox": "/workspace/studio",
		"/billing":            "/workspace/billing",
		"/ops":                "/workspace/ops",
		"/message-tasks":      "/workspace/ops/messages",
		"/tags":               "/workspace/ops/tags",
		"/configs":            "/workspace/ops/configs",
		"/admin/plans":        "/workspace/admin/plans",
		"/admin/analytics":    "/workspace/admin/analytics",
	}
}

const maxRecordRedirects = 8

// Table 路由匹配表
type Table struct {
	routes []*Route
	mux    *mux.Router
	byMux  map[*mux.Route]*Route
}

// NewTable 创建路由表，别名与主路径匹配到同一条记录
func NewTable(routes []Route) *Table {
	t := &Table{
		mux:   mux.NewRouter(),
		byMux: make(map[*mux.Route]*Route),
	}
	for i := range routes {
		r := routes[i]
		rec := &r
		t.routes = append(t.routes, rec)
		for _, p := range append([]string{rec.Path}, rec.Aliases...) {
			mr := t.mux.NewRoute().Path(muxPattern(p))
			t.byMux[mr] = rec
		}
	}
	return t
}

// Routes 路由记录列表
func (t *Table) Routes() []*Route {
	return t.routes
}

// muxPattern 把 :param 段转换为 {param}
func muxPattern(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, ":") {
			segs[i] = "{" + s[1:] + "}"
		}
	}
	return strings.Join(segs, "/")
}

// Resolve 解析地址并匹配路由；记录上的 redirect 会继续解析，保留查询串与 hash
func (t *Table) Resolve(raw string) Location {
	loc := ParseLocation(raw)
	for i := 0; i < maxRecordRedirects; i++ {
		t.match(&loc)
		if loc.Route == nil || loc.Route.Redirect == "" {
			return loc
		}
		next := ParseLocation(loc.Route.Redirect)
		if len(next.Query) == 0 {
			next.Query = loc.Query
		}
		if next.Hash == "" {
			next.Hash = loc.Hash
		}
		loc = next
	}
	return loc
}

func (t *Table) match(loc *Location) {
	loc.Route, loc.Params = nil, nil
	req := &http.Request{Method: http.MethodGet, URL: &url.URL{Path: loc.Path}, Header: http.Header{}}
	var m mux.RouteMatch
	if !t.mux.Match(req, &m) || m.Route == nil {
		return
	}
	loc.Route = t.byMux[m.Route]
	loc.Params = m.Vars
}
