package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smarttaskflow/internal/engine"
	"smarttaskflow/internal/model"
	"smarttaskflow/internal/service/task"
)

// TaskService 由 task.Service 实现
type TaskService interface {
	Create(ctx context.Context, userID string, in task.CreateInput) (*model.Task, error)
	ListView(ctx context.Context, userID string, q task.ListQuery, now time.Time) ([]model.Task, error)
	Get(ctx context.Context, userID, id string) (*model.Task, error)
	Update(ctx context.Context, userID, id string, in task.UpdateInput) (*model.Task, error)
	ToggleStatus(ctx context.Context, userID, id string) (*model.Task, error)
	Delete(ctx context.Context, userID, id string) error
	Score(ctx context.Context, userID, id string, now time.Time) (*task.Recommendation, error)
	Dashboard(ctx context.Context, userID string, now time.Time) (*task.Dashboard, error)
}

type TaskHandler struct {
	tasks  TaskService
	logger *zap.Logger
	now    func() time.Time
}

func NewTaskHandler(tasks TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger, now: time.Now}
}

// ListTasks handles GET /api/tasks?priority=&category=&deadline=&sort_by=&order=
func (h *TaskHandler) ListTasks(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}

	filter, err := engine.ParseTaskFilter(c.Query("priority"), c.Query("category"), c.Query("deadline"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sortBy, order, err := engine.ParseSort(c.Query("sort_by"), c.Query("order"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tasks, err := h.tasks.ListView(c.Request.Context(), s.UserID, task.ListQuery{
		Filter: filter,
		SortBy: sortBy,
		Order:  order,
	}, h.now())
	if err != nil {
		writeTaskError(c, h.logger, "ListTasks", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// CreateTask handles POST /api/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}
	var in task.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	t, err := h.tasks.Create(c.Request.Context(), s.UserID, in)
	if err != nil {
		writeTaskError(c, h.logger, "CreateTask", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": t})
}

// GetTask handles GET /api/tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}
	t, err := h.tasks.Get(c.Request.Context(), s.UserID, c.Param("id"))
	if err != nil {
		writeTaskError(c, h.logger, "GetTask", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": t})
}

// UpdateTask handles PATCH /api/tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}
	var in task.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	t, err := h.tasks.Update(c.Request.Context(), s.UserID, c.Param("id"), in)
	if err != nil {
		writeTaskError(c, h.logger, "UpdateTask", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": t})
}

// ToggleTask handles POST /api/tasks/:id/toggle
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}
	t, err := h.tasks.ToggleStatus(c.Request.Context(), s.UserID, c.Param("id"))
	if err != nil {
		writeTaskError(c, h.logger, "ToggleTask", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": t})
}

// DeleteTask handles DELETE /api/tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), s.UserID, c.Param("id")); err != nil {
		writeTaskError(c, h.logger, "DeleteTask", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ScoreTask handles GET /api/tasks/:id/score
func (h *TaskHandler) ScoreTask(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}
	r, err := h.tasks.Score(c.Request.Context(), s.UserID, c.Param("id"), h.now())
	if err != nil {
		writeTaskError(c, h.logger, "ScoreTask", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// Dashboard handles GET /api/dashboard
func (h *TaskHandler) Dashboard(c *gin.Context) {
	s, ok := currentSession(c)
	if !ok {
		return
	}
	d, err := h.tasks.Dashboard(c.Request.Context(), s.UserID, h.now())
	if err != nil {
		writeTaskError(c, h.logger, "Dashboard", err)
		return
	}
	c.JSON(http.StatusOK, d)
}
