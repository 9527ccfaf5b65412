// Package session 管理客户端会话标识与访问令牌
package session

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	corelog "werss-client/internal/core/log"
	"werss-client/internal/core/store"
)

// KeySessionID 会话标识存储键
const KeySessionID = "analytics:session-id"

// Provider 会话标识提供者
// 首次读取缺失时生成并持久化，之后在进程内缓存
type Provider struct {
	store  store.StringStore
	logger corelog.Logger
	newID  func() string

	mu     sync.Mutex
	cached string
}

// Option Provider 选项
type Option func(*Provider)

// WithLogger 设置日志
func WithLogger(l corelog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// WithIDGenerator 替换标识生成函数
func WithIDGenerator(gen func() string) Option {
	return func(p *Provider) { p.newID = gen }
}

// NewProvider 创建会话标识提供者
func NewProvider(st store.StringStore, opts ...Option) *Provider {
	p := &Provider{
		store: st,
		newID: NewSessionID,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = corelog.OrDefault(p.logger)
	return p
}

// SessionID 返回会话标识，永不失败
func (p *Provider) SessionID(ctx context.Context) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != "" {
		return p.cached
	}

	if p.store != nil {
		id, err := p.store.Get(ctx, KeySessionID)
		switch {
		case err == nil && id != "":
			p.cached = id
			return id
		case err != nil && !store.IsNotFound(err):
			p.logger.Debugf("session: read %s failed: %v", KeySessionID, err)
		}
	}

	id := p.newID()
	if p.store != nil {
		// 持久化失败时下次启动会重新生成
		if err := p.store.Set(ctx, KeySessionID, id); err != nil {
			p.logger.Debugf("session: persist %s failed: %v", KeySessionID, err)
		}
	}
	p.cached = id
	return id
}

// NewSessionID 生成新的会话标识：随机 UUID，失败时退化为 sess-<毫秒>-<8位hex>
func NewSessionID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	return fallbackSessionID(time.Now())
}

func fallbackSessionID(now time.Time) string {
	return fmt.Sprintf("sess-%d-%08x", now.UnixMilli(), rand.Uint32())
}
