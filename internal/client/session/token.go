package session

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	coreerrors "werss-client/internal/core/errors"
	corelog "werss-client/internal/core/log"
	"werss-client/internal/core/store"
)

// KeyToken 访问令牌存储键
const KeyToken = "token"

// TokenStore 访问令牌存储
type TokenStore struct {
	store  store.StringStore
	logger corelog.Logger
}

// NewTokenStore 创建令牌存储
func NewTokenStore(st store.StringStore, logger corelog.Logger) *TokenStore {
	return &TokenStore{store: st, logger: corelog.OrDefault(logger)}
}

// Token 返回当前令牌，不存在或读取失败时返回空串
func (t *TokenStore) Token(ctx context.Context) string {
	tok, err := t.store.Get(ctx, KeyToken)
	if err != nil {
		if !store.IsNotFound(err) {
			t.logger.Debugf("session: read token failed: %v", err)
		}
		return ""
	}
	return tok
}

// SetToken 保存令牌
func (t *TokenStore) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return coreerrors.New(coreerrors.CodeInvalidParam, "empty token")
	}
	if err := t.store.Set(ctx, KeyToken, token); err != nil {
		return coreerrors.Wrap(err, coreerrors.CodeStorageError, "save token")
	}
	return nil
}

// ClearToken 清除令牌
func (t *TokenStore) ClearToken(ctx context.Context) error {
	if err := t.store.Delete(ctx, KeyToken); err != nil {
		return coreerrors.Wrap(err, coreerrors.CodeStorageError, "clear token")
	}
	return nil
}

// Claims 令牌中的展示信息（未校验签名）
type Claims struct {
	Subject   string
	Username  string
	Role      string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Expired 是否已过期，无过期时间视为未过期
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Claims 解析当前令牌
func (t *TokenStore) Claims(ctx context.Context) (*Claims, error) {
	tok := t.Token(ctx)
	if tok == "" {
		return nil, coreerrors.ErrUnauthorized
	}
	return ParseClaims(tok)
}

// ParseClaims 解析 JWT 载荷，仅用于展示，不校验签名
func ParseClaims(token string) (*Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeInvalidData, "malformed token")
	}

	out := &Claims{}
	out.Subject, _ = mc.GetSubject()
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if v, ok := mc["username"].(string); ok {
		out.Username = v
	} else {
		out.Username = out.Subject
	}
	if v, ok := mc["role"].(string); ok {
		out.Role = v
	}
	return out, nil
}
