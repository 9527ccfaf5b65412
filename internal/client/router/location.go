package router

import (
	"net/url"
	"strings"
)

// Location 一次导航的目标地址
type Location struct {
	Path   string
	Query  url.Values
	Hash   string
	Route  *Route
	Params map[string]string
}

// ParseLocation 解析 path?query#hash，忽略协议与主机
func ParseLocation(raw string) Location {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{Path: normalizePath(raw), Query: url.Values{}}
	}
	return Location{
		Path:  normalizePath(u.Path),
		Query: u.Query(),
		Hash:  u.Fragment,
	}
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}

// FullPath 路径加查询串与 hash
func (l Location) FullPath() string {
	var b strings.Builder
	if l.Path == "" {
		b.WriteString("/")
	} else {
		b.WriteString(l.Path)
	}
	if len(l.Query) > 0 {
		b.WriteString("?")
		b.WriteString(l.Query.Encode())
	}
	if l.Hash != "" {
		b.WriteString("#")
		b.WriteString(l.Hash)
	}
	return b.String()
}

// Name 匹配到的路由名，未匹配时为空
func (l Location) Name() string {
	if l.Route == nil {
		return ""
	}
	return l.Route.Name
}

func (l Location) requiresAuth() bool {
	return l.Route != nil && l.Route.RequiresAuth
}

// withQuery 构造带查询参数的地址，参数按 key=value 成对给出
func withQuery(path string, kv ...string) string {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		q.Set(kv[i], kv[i+1])
	}
	return Location{Path: path, Query: q}.FullPath()
}
