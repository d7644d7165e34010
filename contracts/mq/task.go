package mq

import "time"

// 任务生命周期事件的 routing key，发布到 events topic exchange
const (
	RoutingKeyTaskCreated = "task.created"
	RoutingKeyTaskUpdated = "task.updated"
	RoutingKeyTaskDeleted = "task.deleted"

	// RoutingKeyTaskAll 活动日志 worker 订阅全部任务事件
	RoutingKeyTaskAll = "task.*"
)

type TaskEventPayload struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"` // created / updated / deleted
	TaskID     string    `json:"task_id"`
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
