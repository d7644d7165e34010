// Package auth 注册、登录、会话校验和注销
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"smarttaskflow/internal/model"
	"smarttaskflow/internal/repository"
	"smarttaskflow/internal/session"
	"smarttaskflow/pkg/logger"
	"smarttaskflow/pkg/util"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

const (
	minPasswordLen  = 6
	DefaultTokenTTL = 24 * time.Hour
)

type UserStore interface {
	CreateWithProfile(ctx context.Context, u *model.User, name *string) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindProfile(ctx context.Context, userID string) (*model.Profile, error)
}

// Revoker 已注销 token 的黑名单
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Service struct {
	users   UserStore
	revoker Revoker
	secret  string
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

func NewService(users UserStore, revoker Revoker, secret string, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{
		users:   users,
		revoker: revoker,
		secret:  secret,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

// SignUp 创建用户和 profile，并直接返回登录后的会话。邮箱格式由 handler 的 binding 校验
func (s *Service) SignUp(ctx context.Context, email, password, name string) (*session.Session, error) {
	email = normalizeEmail(email)
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &model.User{Email: email, PasswordHash: hash}
	var profileName *string
	if n := strings.TrimSpace(name); n != "" {
		profileName = &n
	}
	if err := s.users.CreateWithProfile(ctx, u, profileName); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	logger.WithTrace(ctx, s.logger).Info("User signed up", zap.String("user_id", u.ID))
	return s.issue(u, &model.Profile{ID: u.ID, Name: profileName})
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*session.Session, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !util.CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	profile, err := s.users.FindProfile(ctx, u.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return s.issue(u, profile)
}

// Session 校验 token 并加载 profile；无效或已注销时返回 session.ErrNoSession
func (s *Service) Session(ctx context.Context, token string) (*session.Session, error) {
	claims, err := s.parse(ctx, token)
	if err != nil {
		return nil, err
	}

	profile, err := s.users.FindProfile(ctx, claims.UserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return &session.Session{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Profile:   profile,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SignOut 把 token id 加入黑名单直到 token 过期
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.parse(ctx, token)
	if err != nil {
		return err
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if err := s.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		return err
	}
	logger.WithTrace(ctx, s.logger).Info("User signed out", zap.String("user_id", claims.UserID))
	return nil
}

func (s *Service) parse(ctx context.Context, token string) (*util.Claims, error) {
	if token == "" {
		return nil, session.ErrNoSession
	}
	claims, err := util.ParseJWT(token, s.secret)
	if err != nil {
		logger.WithTrace(ctx, s.logger).Debug("Rejected session token", zap.Error(err))
		return nil, session.ErrNoSession
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, session.ErrNoSession
	}
	return claims, nil
}

func (s *Service) issue(u *model.User, profile *model.Profile) (*session.Session, error) {
	token, claims, err := util.GenerateJWT(u.ID, u.Email, s.secret, s.ttl, s.now())
	if err != nil {
		return nil, err
	}
	return &session.Session{
		UserID:    u.ID,
		Email:     u.Email,
		Profile:   profile,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
