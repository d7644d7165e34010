// Package task 负责任务的增删改查、事件发布和看板聚合
package task

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	contractsmq "smarttaskflow/contracts/mq"
	"smarttaskflow/internal/engine"
	"smarttaskflow/internal/model"
	"smarttaskflow/internal/repository"
	"smarttaskflow/pkg/logger"
	"smarttaskflow/pkg/metrics"
)

// ErrTaskNotFound 任务不存在或属于其他用户
var ErrTaskNotFound = errors.New("task not found")

// ValidationError 的 Message 直接返回给前端
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(msg string, err error) error {
	return &ValidationError{Message: msg, Err: err}
}

// Store 任务持久化，所有操作都按 userID 限定
type Store interface {
	Insert(ctx context.Context, t *model.Task) error
	ListByUser(ctx context.Context, userID string) ([]model.Task, error)
	Get(ctx context.Context, userID, id string) (*model.Task, error)
	Update(ctx context.Context, userID, id string, patch model.TaskPatch) error
	Delete(ctx context.Context, userID, id string) error
}

// EventPublisher 发布任务生命周期事件
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type Service struct {
	store     Store
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewService publisher 可以为 nil，此时不发事件
func NewService(store Store, publisher EventPublisher, logger *zap.Logger) *Service {
	return &Service{store: store, publisher: publisher, logger: logger, now: time.Now}
}

// CreateInput 来自表单的原始字段，Create 负责校验和规范化
type CreateInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
	Category    string  `json:"category"`
	DueDate     string  `json:"due_date"`
}

// UpdateInput nil 字段保持不变
type UpdateInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	Category    *string `json:"category"`
	DueDate     *string `json:"due_date"`
}

func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("Title is required", nil)
	}
	if strings.TrimSpace(in.DueDate) == "" {
		return nil, invalid("Please pick a due date", nil)
	}
	due, err := model.ParseDate(strings.TrimSpace(in.DueDate))
	if err != nil {
		return nil, invalid("Invalid due date", err)
	}

	t := &model.Task{
		UserID:      userID,
		Title:       title,
		Description: in.Description,
		Priority:    model.PriorityMedium,
		Status:      model.StatusTodo,
		Category:    model.CategoryWork,
		DueDate:     &due,
	}
	if in.Priority != "" {
		if t.Priority, err = model.ParsePriority(in.Priority); err != nil {
			return nil, invalid("Invalid priority", err)
		}
	}
	if in.Status != "" {
		if t.Status, err = model.ParseStatus(in.Status); err != nil {
			return nil, invalid("Invalid status", err)
		}
	}
	if in.Category != "" {
		if t.Category, err = model.ParseCategory(in.Category); err != nil {
			return nil, invalid("Invalid category", err)
		}
	}

	if err := s.store.Insert(ctx, t); err != nil {
		return nil, err
	}
	metrics.IncrementTaskMutation("created")
	s.publish(ctx, contractsmq.RoutingKeyTaskCreated, "created", t)
	return t, nil
}

// List 按创建时间倒序
func (s *Service) List(ctx context.Context, userID string) ([]model.Task, error) {
	return s.store.ListByUser(ctx, userID)
}

// ListQuery 任务列表页的筛选和排序条件
type ListQuery struct {
	Filter engine.TaskFilter
	SortBy engine.SortField
	Order  engine.SortOrder
}

func (s *Service) ListView(ctx context.Context, userID string, q ListQuery, now time.Time) ([]model.Task, error) {
	tasks, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return engine.Sort(engine.Filter(tasks, q.Filter, now), q.SortBy, q.Order), nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (*model.Task, error) {
	t, err := s.store.Get(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTaskNotFound
	}
	return t, err
}

// Update 部分更新，成功后重新读取任务
func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (*model.Task, error) {
	patch, err := toPatch(in)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, userID, id, patch)
}

// ToggleStatus done → todo，其他状态 → done
func (s *Service) ToggleStatus(ctx context.Context, userID, id string) (*model.Task, error) {
	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	next := model.StatusDone
	if t.IsDone() {
		next = model.StatusTodo
	}
	return s.apply(ctx, userID, id, model.TaskPatch{Status: &next})
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	err := s.store.Delete(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTaskNotFound
	}
	if err != nil {
		return err
	}
	metrics.IncrementTaskMutation("deleted")
	s.publish(ctx, contractsmq.RoutingKeyTaskDeleted, "deleted", &model.Task{ID: id, UserID: userID})
	return nil
}

func (s *Service) apply(ctx context.Context, userID, id string, patch model.TaskPatch) (*model.Task, error) {
	// 空 patch 不算变更：不计数也不发事件
	if patch.IsEmpty() {
		return s.Get(ctx, userID, id)
	}

	err := s.store.Update(ctx, userID, id, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}

	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	metrics.IncrementTaskMutation("updated")
	s.publish(ctx, contractsmq.RoutingKeyTaskUpdated, "updated", t)
	return t, nil
}

func toPatch(in UpdateInput) (model.TaskPatch, error) {
	var p model.TaskPatch

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return p, invalid("Title is required", nil)
		}
		p.Title = &title
	}
	p.Description = in.Description
	if in.DueDate != nil {
		if strings.TrimSpace(*in.DueDate) == "" {
			return p, invalid("Please pick a due date", nil)
		}
		d, err := model.ParseDate(strings.TrimSpace(*in.DueDate))
		if err != nil {
			return p, invalid("Invalid due date", err)
		}
		p.DueDate = &d
	}
	if in.Priority != nil {
		v, err := model.ParsePriority(*in.Priority)
		if err != nil {
			return p, invalid("Invalid priority", err)
		}
		p.Priority = &v
	}
	if in.Status != nil {
		v, err := model.ParseStatus(*in.Status)
		if err != nil {
			return p, invalid("Invalid status", err)
		}
		p.Status = &v
	}
	if in.Category != nil {
		v, err := model.ParseCategory(*in.Category)
		if err != nil {
			return p, invalid("Invalid category", err)
		}
		p.Category = &v
	}
	return p, nil
}

// publish 失败只记日志，不影响已经完成的变更
func (s *Service) publish(ctx context.Context, routingKey, eventType string, t *model.Task) {
	if s.publisher == nil {
		return
	}
	payload := contractsmq.TaskEventPayload{
		EventID:    uuid.NewString(),
		Type:       eventType,
		TaskID:     t.ID,
		UserID:     t.UserID,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, routingKey, payload); err != nil {
		logger.WithTrace(ctx, s.logger).Warn("Failed to publish task event",
			zap.String("routing_key", routingKey),
			zap.String("task_id", t.ID),
			zap.Error(err),
		)
	}
}
