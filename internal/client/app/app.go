// Package app 组装客户端各模块并提供宿主调用入口
package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"werss-client/internal/client/api"
	"werss-client/internal/client/capture"
	"werss-client/internal/client/notify"
	"werss-client/internal/client/qrlogin"
	"werss-client/internal/client/router"
	"werss-client/internal/client/runtime"
	"werss-client/internal/client/session"
	"werss-client/internal/client/tracker"
	"werss-client/internal/config/schema"
	"werss-client/internal/core/dispose"
	coreerrors "werss-client/internal/core/errors"
	corelog "werss-client/internal/core/log"
	"werss-client/internal/core/safe"
	"werss-client/internal/core/store"
	"werss-client/internal/core/store/factory"
	"werss-client/internal/health"
)

// Options 组装选项
type Options struct {
	Config *schema.Root

	// Store 为 nil 时按 Config.Storage 创建
	Store      store.StringStore
	HTTPClient *http.Client
	Registerer prometheus.Registerer
	Notifier   *notify.Dispatcher

	Title    func() string
	Referrer func() string
	Logger   corelog.Logger
}

// App 客户端实例
type App struct {
	cfg    *schema.Root
	logger corelog.Logger

	Store    store.StringStore
	Sessions *session.Provider
	Tokens   *session.TokenStore
	API      *api.Client
	Runtime  *runtime.Cache
	Tracker  *tracker.Tracker
	Capture  *capture.Capture
	Router   *router.Router
	QR       *qrlogin.Poller
	Notify   *notify.Dispatcher
	Health   *health.CompositeHealthChecker

	resources *dispose.ResourceManager
	bootOnce  sync.Once
	booted    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New 按配置创建客户端实例
func New(ctx context.Context, opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, coreerrors.New(coreerrors.CodeInvalidParam, "app: config is required")
	}
	cfg := opts.Config
	logger := corelog.OrDefault(opts.Logger)

	a := &App{
		cfg:       cfg,
		logger:    logger,
		Notify:    opts.Notifier,
		resources: dispose.NewResourceManager(logger),
	}
	if a.Notify == nil {
		a.Notify = notify.NewDispatcher()
		a.Notify.AddHandler(&notify.DefaultHandler{Logger: logger})
	}

	a.Store = opts.Store
	if a.Store == nil {
		backend, err := factory.NewStringStore(cfg.Storage.StoreConfig())
		if err != nil {
			return nil, err
		}
		a.Store = backend
		_ = a.resources.Register("store", dispose.Func(backend.Close))
	}

	a.Sessions = session.NewProvider(a.Store, session.WithLogger(logger))
	a.Tokens = session.NewTokenStore(a.Store, logger)
	if !cfg.Client.Token.IsEmpty() {
		if err := a.Tokens.SetToken(ctx, cfg.Client.Token.Value()); err != nil {
			a.resources.DisposeAll()
			return nil, err
		}
	}

	client, err := api.NewClient(api.Options{
		BaseURL:        cfg.Client.BaseURL,
		Timeout:        cfg.Client.Timeout,
		UserAgent:      cfg.Client.UserAgent,
		EventsPath:     cfg.Analytics.Endpoint,
		BeaconQueue:    cfg.Analytics.BeaconQueue,
		Tokens:         a.Tokens,
		Sessions:       a.Sessions,
		OnUnauthorized: a.onUnauthorized,
		OnRemoteError:  func(msg string) { a.Notify.Error("api", msg) },
		HTTPClient:     opts.HTTPClient,
		Logger:         logger,
	})
	if err != nil {
		a.resources.DisposeAll()
		return nil, err
	}
	a.API = client
	_ = a.resources.Register("api", dispose.Func(client.Close))

	a.Runtime = runtime.NewCache(client, a.Store, runtime.Options{
		TTL:          cfg.Runtime.TTL,
		FetchTimeout: cfg.Runtime.FetchTimeout,
		Logger:       logger,
	})

	table := router.NewTable(router.DefaultRoutes())
	guard := router.NewGuard(a.Tokens, client, a.Runtime, nil, logger)
	a.Router = router.New(table, guard, router.Options{Logger: logger})

	a.Tracker = tracker.New(client, tracker.Options{
		BatchLimit:    cfg.Analytics.BatchLimit,
		MaxQueue:      cfg.Analytics.MaxQueue,
		FlushInterval: cfg.Analytics.FlushInterval,
		Beacon:        client,
		BeaconURL:     client.EventsURL(),
		Page:          func() string { return a.Router.Current().Path },
		Registerer:    opts.Registerer,
		Logger:        logger,
	})
	_ = a.resources.Register("tracker", dispose.Func(func() error {
		a.Tracker.Stop()
		return nil
	}))

	a.Capture, err = capture.New(a.Tracker, capture.Options{
		ButtonClass:     cfg.Analytics.ButtonClass,
		InputThrottle:   cfg.Analytics.InputThrottle,
		ThrottleEntries: cfg.Analytics.ThrottleEntries,
		Path:            func() string { return a.Router.Current().Path },
		Title:           opts.Title,
		Referrer:        opts.Referrer,
		Logger:          logger,
	})
	if err != nil {
		a.resources.DisposeAll()
		return nil, err
	}

	a.QR = qrlogin.NewPoller(client, qrlogin.Options{
		ReadyInterval:     cfg.QRLogin.ReadyInterval,
		ReadyMaxAttempts:  cfg.QRLogin.ReadyMaxAttempts,
		StatusInterval:    cfg.QRLogin.StatusInterval,
		StatusMaxAttempts: cfg.QRLogin.StatusMaxAttempts,
		Notifier:          a.Notify,
		Logger:            logger,
	})
	maxQueue := cfg.Analytics.MaxQueue
	if maxQueue <= 0 {
		maxQueue = tracker.DefaultMaxQueue
	}
	a.Health = health.NewCompositeHealthChecker(5 * time.Second)
	a.Health.RegisterChecker("storage", health.NewStorageHealthChecker(a.Store))
	a.Health.RegisterChecker("backend", health.NewBackendHealthChecker(client))
	a.Health.RegisterChecker("tracker", health.NewQueueHealthChecker(a.Tracker.Len, maxQueue, 0.9))

	_ = a.resources.Register("qrlogin", dispose.Func(func() error {
		a.QR.Stop()
		return nil
	}))

	return a, nil
}

// onUnauthorized 认证失效时跳转登录页，不阻塞当前请求
func (a *App) onUnauthorized() {
	safe.Go("unauthorized-redirect", func() {
		if _, err := a.Router.Push(context.Background(), router.LoginPath); err != nil && !errors.Is(err, router.ErrDuplicated) {
			a.logger.WithError(err).Warnf("redirect to login failed")
		}
	})
}

// Bootstrap 启动埋点，只执行一次
// 本地配置或运行时设置关闭埋点时不注册任何采集
func (a *App) Bootstrap(ctx context.Context) {
	a.bootOnce.Do(func() {
		settings := a.Runtime.Load(ctx, false)
		enabled := a.cfg.Analytics.Enabled && settings.AnalyticsEnabled
		a.Tracker.SetEnabled(enabled)
		if !enabled {
			a.logger.Infof("analytics disabled (local=%v, runtime=%v)", a.cfg.Analytics.Enabled, settings.AnalyticsEnabled)
			return
		}

		a.Router.AfterEach(func(to, _ router.Location, _ error) {
			a.Capture.PageView(to.FullPath())
		})
		a.Tracker.Start(context.Background())
		a.booted.Store(true)
		a.Capture.PageView(a.Router.Current().FullPath())
	})
}

// Config 当前配置
func (a *App) Config() *schema.Root {
	return a.cfg
}

// Booted 埋点是否已启动
func (a *App) Booted() bool {
	return a.booted.Load()
}

// Navigate 导航到 path，重复导航不视为错误
func (a *App) Navigate(ctx context.Context, path string) (router.Location, error) {
	loc, err := a.Router.Push(ctx, path)
	if errors.Is(err, router.ErrDuplicated) {
		return loc, nil
	}
	return loc, err
}

// Click 宿主点击事件
func (a *App) Click(el *capture.Element) {
	if a.booted.Load() {
		a.Capture.Click(el)
	}
}

// Input 宿主输入事件
func (a *App) Input(el *capture.Element) {
	if a.booted.Load() {
		a.Capture.Input(el)
	}
}

// SetHidden 页面可见性变化
func (a *App) SetHidden(hidden bool) {
	if a.booted.Load() {
		a.Tracker.SetHidden(hidden)
	}
}

// Login 账号密码登录并保存令牌
func (a *App) Login(ctx context.Context, username, password string) (*api.LoginResult, error) {
	res, err := a.API.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if err := a.Tokens.SetToken(ctx, res.AccessToken); err != nil {
		return nil, err
	}
	return res, nil
}

// Logout 通知服务端并清除本地令牌，服务端失败不影响本地清除
func (a *App) Logout(ctx context.Context) error {
	if err := a.API.Logout(ctx); err != nil {
		a.logger.WithError(err).Warnf("server logout failed")
	}
	return a.Tokens.ClearToken(ctx)
}

// Status 运行状态快照
type Status struct {
	SessionID      string `json:"session_id"`
	Location       string `json:"location"`
	Booted         bool   `json:"booted"`
	TrackerEnabled bool   `json:"tracker_enabled"`
	Hidden         bool   `json:"hidden"`
	QueueLength    int    `json:"queue_length"`
	LoggedIn       bool   `json:"logged_in"`
}

// Status 返回当前状态
func (a *App) Status(ctx context.Context) Status {
	return Status{
		SessionID:      a.Sessions.SessionID(ctx),
		Location:       a.Router.Current().FullPath(),
		Booted:         a.booted.Load(),
		TrackerEnabled: a.Tracker.Enabled(),
		Hidden:         a.Tracker.Hidden(),
		QueueLength:    a.Tracker.Len(),
		LoggedIn:       a.Tokens.Token(ctx) != "",
	}
}

// Close 停止轮询、做最后一次上报并释放资源，可重复调用
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = a.resources.DisposeAll().Err()
	})
	return a.closeErr
}

// RuntimeSettings 当前运行时设置
func (a *App) RuntimeSettings(ctx context.Context, force bool) runtime.Settings {
	return a.Runtime.Load(ctx, force)
}

// Flush 上报队列中的全部事件
func (a *App) Flush(ctx context.Context) error {
	return a.Tracker.Drain(ctx)
}
