// Package session 在 context 中携带已认证用户
package session

import (
	"context"
	"errors"
	"time"

	"smarttaskflow/internal/model"
)

// ErrNoSession 请求没有有效会话（缺少、过期或已注销的 token）
var ErrNoSession = errors.New("no active session")

type Session struct {
	UserID    string         `json:"user_id"`
	Email     string         `json:"email"`
	Profile   *model.Profile `json:"profile"`
	Token     string         `json:"token,omitempty"`
	ExpiresAt time.Time      `json:"expires_at"`
}

type ctxKey struct{}

func WithContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext 由认证中间件放入；没有时返回 ErrNoSession
func FromContext(ctx context.Context) (*Session, error) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	if !ok || s == nil {
		return nil, ErrNoSession
	}
	return s, nil
}
