package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smarttaskflow/contracts/plan"
	"smarttaskflow/internal/planner"
	"smarttaskflow/pkg/logger"
)

const malformedGoalBody = `Malformed JSON. Expected format: { "goal": "your goal here" }`

// PlanGenerator 由 planner.Service 实现
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, goal string) (plan.Result, error)
}

type PlanHandler struct {
	planner PlanGenerator
	logger  *zap.Logger
}

func NewPlanHandler(p PlanGenerator, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{planner: p, logger: logger}
}

// Ping handles GET /api/ping
func (h *PlanHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Backend is running!"})
}

// GeneratePlan handles POST /api/generate-plan
// 解析失败的计划也返回 200，body 里带 error/cleaned/original
func (h *PlanHandler) GeneratePlan(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	var req struct {
		Goal string `json:"goal"`
	}
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Warn("GeneratePlan: malformed body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": malformedGoalBody})
		return
	}

	res, err := h.planner.GeneratePlan(c.Request.Context(), req.Goal)
	if errors.Is(err, planner.ErrGoalRequired) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Goal is required"})
		return
	}
	if err != nil {
		log.Error("GeneratePlan: model call failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, res)
}
