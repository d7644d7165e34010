package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smarttaskflow/internal/service/auth"
	"smarttaskflow/internal/session"
	"smarttaskflow/pkg/logger"
	"smarttaskflow/pkg/util"
)

// AuthService 由 auth.Service 实现
type AuthService interface {
	SignUp(ctx context.Context, email, password, name string) (*session.Session, error)
	SignIn(ctx context.Context, email, password string) (*session.Session, error)
	Session(ctx context.Context, token string) (*session.Session, error)
	SignOut(ctx context.Context, token string) error
}

type AuthHandler struct {
	auth   AuthService
	logger *zap.Logger
}

func NewAuthHandler(a AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: a, logger: logger}
}

const (
	credentialsRequiredMsg = "email and password are required"
	invalidEmailMsg        = "invalid email address"
)

type credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type signUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

// SignUp handles POST /api/auth/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// 两个字段都有值还绑定失败，只能是邮箱格式不对
		msg := credentialsRequiredMsg
		if req.Email != "" && req.Password != "" {
			msg = invalidEmailMsg
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	s, err := h.auth.SignUp(c.Request.Context(), req.Email, req.Password, req.Name)
	switch {
	case errors.Is(err, auth.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		logger.WithTrace(c.Request.Context(), h.logger).Error("SignUp: failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	default:
		c.JSON(http.StatusCreated, gin.H{"session": s})
	}
}

// SignIn handles POST /api/auth/signin
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": credentialsRequiredMsg})
		return
	}

	s, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case err != nil:
		logger.WithTrace(c.Request.Context(), h.logger).Error("SignIn: failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	default:
		c.JSON(http.StatusOK, gin.H{"session": s})
	}
}

// Session handles GET /api/auth/session；未登录时返回 session: null
func (h *AuthHandler) Session(c *gin.Context) {
	token := util.ExtractToken(c.Request)
	s, err := h.auth.Session(c.Request.Context(), token)
	switch {
	case errors.Is(err, session.ErrNoSession):
		c.JSON(http.StatusOK, gin.H{"session": nil})
	case err != nil:
		logger.WithTrace(c.Request.Context(), h.logger).Error("Session: failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	default:
		c.JSON(http.StatusOK, gin.H{"session": s})
	}
}

// SignOut handles POST /api/auth/signout
func (h *AuthHandler) SignOut(c *gin.Context) {
	token := util.ExtractToken(c.Request)
	err := h.auth.SignOut(c.Request.Context(), token)
	switch {
	case errors.Is(err, session.ErrNoSession):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	case err != nil:
		logger.WithTrace(c.Request.Context(), h.logger).Error("SignOut: failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
