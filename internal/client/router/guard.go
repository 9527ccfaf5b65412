package router

import (
	"context"

	"werss-client/internal/client/api"
	"werss-client/internal/client/runtime"
	corelog "werss-client/internal/core/log"
)

const (
	LoginPath = "/login"
	HomePath  = "/workspace/content"
)

// Tokens 登录令牌读写
type Tokens interface {
	Token(ctx context.Context) string
	ClearToken(ctx context.Context) error
}

// Verifier 令牌校验与当前用户查询
type Verifier interface {
	VerifyToken(ctx context.Context) (*api.VerifyResult, error)
	GetCurrentUser(ctx context.Context) (*api.CurrentUser, error)
}

// SettingsLoader 运行时配置
type SettingsLoader interface {
	Load(ctx context.Context, force bool) runtime.Settings
}

// Decision 守卫结论，Target 为空表示放行
type Decision struct {
	Target  string
	Replace bool
}

func (d Decision) Allowed() bool { return d.Target == "" }

// Guard 导航前置守卫
type Guard struct {
	tokens    Tokens
	verifier  Verifier
	settings  SettingsLoader
	canonical map[string]string
	logger    corelog.Logger
}

// NewGuard 创建守卫，canonical 为 nil 时使用默认映射
func NewGuard(tokens Tokens, verifier Verifier, settings SettingsLoader, canonical map[string]string, logger corelog.Logger) *Guard {
	if canonical == nil {
		canonical = DefaultCanonicalPaths()
	}
	return &Guard{
		tokens:    tokens,
		verifier:  verifier,
		settings:  settings,
		canonical: canonical,
		logger:    corelog.OrDefault(logger),
	}
}

// Check 判定是否允许进入 to
func (g *Guard) Check(ctx context.Context, to Location) Decision {
	if canonical, ok := g.canonical[to.Path]; ok && canonical != to.Path {
		target := Location{Path: canonical, Query: to.Query, Hash: to.Hash}
		return Decision{Target: target.FullPath(), Replace: true}
	}

	token := g.tokens.Token(ctx)
	if to.Path == LoginPath && token != "" {
		if redirect := to.Query.Get("redirect"); redirect != "" {
			return Decision{Target: redirect}
		}
		return Decision{Target: HomePath}
	}

	if !to.requiresAuth() {
		return Decision{}
	}

	if token == "" {
		return Decision{Target: withQuery(LoginPath, "redirect", to.FullPath(), "error", "unauthorized")}
	}

	if _, err := g.verifier.VerifyToken(ctx); err != nil {
		return g.expired(ctx, to, err)
	}

	if g.settings != nil && to.Route.HideInAllFree {
		if g.settings.Load(ctx, false).IsAllFree {
			return Decision{Target: withQuery(HomePath, "notice", "billing_hidden", "target", to.Path)}
		}
	}

	if len(to.Route.Permissions) > 0 {
		user, err := g.verifier.GetCurrentUser(ctx)
		if err != nil {
			return g.expired(ctx, to, err)
		}
		// 细粒度权限由服务端接口控制，这里只拦截 admin
		if to.Route.requires("admin") && user.Role != "admin" {
			return Decision{Target: withQuery(HomePath, "notice", "forbidden", "target", to.Path)}
		}
	}
	return Decision{}
}

func (g *Guard) expired(ctx context.Context, to Location, cause error) Decision {
	g.logger.WithError(cause).Warnf("token verification failed for %s", to.Path)
	if err := g.tokens.ClearToken(ctx); err != nil {
		g.logger.WithError(err).Debugf("failed to clear token")
	}
	return Decision{Target: withQuery(LoginPath, "redirect", to.FullPath(), "error", "session_expired")}
}
