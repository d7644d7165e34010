package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	mqcontracts "smarttaskflow/contracts/mq"
	"smarttaskflow/internal/model"
	"smarttaskflow/pkg/metrics"
	"smarttaskflow/pkg/util"
)

const taskActivityHandlerName = "task_activity"

var errInvalidEvent = fmt.Errorf("task event missing event_id or task_id: %w", util.ErrPermanent)

// Deduper 由 util.Deduper 实现
type Deduper interface {
	AcquireOnce(ctx context.Context, handler, eventID string) bool
	Release(ctx context.Context, handler, eventID string)
}

type ActivityStore interface {
	Insert(ctx context.Context, a model.TaskActivity) (bool, error)
}

// TaskActivityHandler 把 task.* 事件写入 task_activity
type TaskActivityHandler struct {
	store   ActivityStore
	deduper Deduper
	logger  *zap.Logger
}

func NewTaskActivityHandler(store ActivityStore, deduper Deduper, logger *zap.Logger) *TaskActivityHandler {
	return &TaskActivityHandler{store: store, deduper: deduper, logger: logger}
}

func (h *TaskActivityHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.TaskEventPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal TaskEventPayload", zap.Error(err))
		metrics.IncrementActivityEvent("unknown", "failed")
		return err
	}
	if p.EventID == "" || p.TaskID == "" {
		h.logger.Error("Invalid task event", zap.String("event_id", p.EventID), zap.String("task_id", p.TaskID))
		metrics.IncrementActivityEvent(p.Type, "failed")
		return errInvalidEvent
	}

	if !h.deduper.AcquireOnce(ctx, taskActivityHandlerName, p.EventID) {
		metrics.IncrementActivityEvent(p.Type, "duplicate")
		return nil
	}

	inserted, err := h.store.Insert(ctx, model.TaskActivity{
		EventID:    p.EventID,
		Type:       p.Type,
		TaskID:     p.TaskID,
		UserID:     p.UserID,
		OccurredAt: p.OccurredAt,
	})
	if err != nil {
		// 消费者退出时 ctx 已取消，释放仍要执行，否则重投会被当成重复
		h.deduper.Release(context.WithoutCancel(ctx), taskActivityHandlerName, p.EventID)
		metrics.IncrementActivityEvent(p.Type, "failed")
		return err
	}
	if !inserted {
		metrics.IncrementActivityEvent(p.Type, "duplicate")
		return nil
	}

	h.logger.Info("Task activity recorded",
		zap.String("event_id", p.EventID),
		zap.String("type", p.Type),
		zap.String("task_id", p.TaskID),
	)
	metrics.IncrementActivityEvent(p.Type, "recorded")
	return nil
}
