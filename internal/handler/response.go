package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smarttaskflow/internal/session"
	"smarttaskflow/internal/service/task"
	"smarttaskflow/pkg/logger"
)

// currentSession 取认证中间件放入的会话；不存在时直接写 401
func currentSession(c *gin.Context) (*session.Session, bool) {
	s, err := session.FromContext(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return nil, false
	}
	return s, true
}

// writeTaskError 把 task 包的错误映射成 HTTP 状态码，存储错误只返回通用信息
func writeTaskError(c *gin.Context, log *zap.Logger, op string, err error) {
	var verr *task.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.Is(err, task.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
	default:
		logger.WithTrace(c.Request.Context(), log).Error(op+": failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
