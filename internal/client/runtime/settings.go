// Package runtime 缓存后端下发的运行时设置（产品模式、埋点开关等）
package runtime

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	coreerrors "werss-client/internal/core/errors"
	corelog "werss-client/internal/core/log"
	"werss-client/internal/core/store"
)

// 存储键
const (
	KeySettings  = "runtime:settings"
	KeyTimestamp = "runtime:settings:ts"
)

// 产品模式
const (
	ModeAllFree    = "all_free"
	ModeCommercial = "commercial"
)

const (
	defaultTTL          = 60 * time.Second
	defaultFetchTimeout = 10 * time.Second
	flightKey           = "runtime-settings"
)

// Settings 运行时设置
type Settings struct {
	ProductMode      string `json:"product_mode"`
	IsAllFree        bool   `json:"is_all_free"`
	BillingVisible   bool   `json:"billing_visible"`
	AnalyticsEnabled bool   `json:"analytics_enabled"`
	UpdatedAt        string `json:"updated_at,omitempty"`
}

// Defaults 默认设置：全免费、隐藏计费、开启埋点
func Defaults() Settings {
	return Settings{
		ProductMode:      ModeAllFree,
		IsAllFree:        true,
		BillingVisible:   false,
		AnalyticsEnabled: true,
	}
}

// Fetcher 运行时设置接口
type Fetcher interface {
	GetRuntimeSettings(ctx context.Context) (json.RawMessage, error)
	UpdateRuntimeMode(ctx context.Context, mode string) (json.RawMessage, error)
}

// Options 缓存选项
type Options struct {
	TTL          time.Duration
	FetchTimeout time.Duration
	Logger       corelog.Logger
	Now          func() time.Time
}

// Cache 运行时设置缓存
// 同一时刻最多一个远端请求，并发调用共享结果
type Cache struct {
	fetcher Fetcher
	store   store.StringStore
	opts    Options
	logger  corelog.Logger
	group   singleflight.Group
}

// NewCache 创建运行时设置缓存
func NewCache(fetcher Fetcher, st store.StringStore, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		fetcher: fetcher,
		store:   st,
		opts:    opts,
		logger:  corelog.OrDefault(opts.Logger),
	}
}

// Load 返回运行时设置，从不返回错误
// force=false 时优先使用未过期的缓存
func (c *Cache) Load(ctx context.Context, force bool) Settings {
	if !force {
		if cached, ok := c.readCache(ctx); ok {
			return cached
		}
	}

	ch := c.group.DoChan(flightKey, func() (interface{}, error) {
		return c.fetch(ctx), nil
	})

	select {
	case res := <-ch:
		return res.Val.(Settings)
	case <-ctx.Done():
		// 调用方放弃等待，请求仍在后台完成并写入缓存
		return c.fallback(context.WithoutCancel(ctx))
	}
}

// fetch 请求远端并写缓存，失败时退回缓存或默认值
func (c *Cache) fetch(parent context.Context) Settings {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), c.opts.FetchTimeout)
	defer cancel()

	raw, err := c.fetcher.GetRuntimeSettings(ctx)
	if err != nil {
		c.logger.Debugf("runtime: fetch settings failed: %v", err)
		return c.fallback(ctx)
	}

	settings, err := mergeOverDefaults(raw)
	if err != nil {
		c.logger.Debugf("runtime: invalid settings payload: %v", err)
		return c.fallback(ctx)
	}

	c.writeCache(ctx, settings)
	return settings
}

func (c *Cache) fallback(ctx context.Context) Settings {
	if cached, ok := c.readCache(ctx); ok {
		return cached
	}
	return Defaults()
}

// readCache 读取未过期的缓存
func (c *Cache) readCache(ctx context.Context) (Settings, bool) {
	raw, err := c.store.Get(ctx, KeySettings)
	if err != nil || raw == "" {
		return Settings{}, false
	}
	tsRaw, err := c.store.Get(ctx, KeyTimestamp)
	if err != nil {
		return Settings{}, false
	}
	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil || ts == 0 {
		return Settings{}, false
	}
	if c.opts.Now().UnixMilli()-ts > c.opts.TTL.Milliseconds() {
		return Settings{}, false
	}

	settings, err := mergeOverDefaults(json.RawMessage(raw))
	if err != nil {
		return Settings{}, false
	}
	return settings, true
}

func (c *Cache) writeCache(ctx context.Context, s Settings) {
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, KeySettings, string(data)); err != nil {
		c.logger.Debugf("runtime: write cache failed: %v", err)
		return
	}
	ts := strconv.FormatInt(c.opts.Now().UnixMilli(), 10)
	if err := c.store.Set(ctx, KeyTimestamp, ts); err != nil {
		c.logger.Debugf("runtime: write cache timestamp failed: %v", err)
	}
}

// Clear 清除缓存
func (c *Cache) Clear(ctx context.Context) {
	if err := c.store.Delete(ctx, KeySettings); err != nil {
		c.logger.Debugf("runtime: clear cache failed: %v", err)
	}
	if err := c.store.Delete(ctx, KeyTimestamp); err != nil {
		c.logger.Debugf("runtime: clear cache timestamp failed: %v", err)
	}
}

// UpdateMode 切换产品模式并刷新缓存
func (c *Cache) UpdateMode(ctx context.Context, mode string) (Settings, error) {
	if mode != ModeAllFree && mode != ModeCommercial {
		return Settings{}, coreerrors.Newf(coreerrors.CodeInvalidParam, "unknown product mode %q", mode)
	}
	raw, err := c.fetcher.UpdateRuntimeMode(ctx, mode)
	if err != nil {
		return Settings{}, err
	}
	settings, err := mergeOverDefaults(raw)
	if err != nil {
		return Settings{}, coreerrors.Wrap(err, coreerrors.CodeInvalidData, "invalid runtime settings")
	}
	c.writeCache(ctx, settings)
	return settings, nil
}

// mergeOverDefaults 以默认值为底合并 JSON 对象
func mergeOverDefaults(raw json.RawMessage) (Settings, error) {
	s := Defaults()
	if len(raw) == 0 || string(raw) == "null" {
		return s, nil
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Settings{}, err
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
