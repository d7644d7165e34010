package model

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile 与 users 一一对应，id 即 user id
type Profile struct {
	ID   string  `json:"id"`
	Name *string `json:"name"`
}

// TaskActivity 任务生命周期事件的审计记录
type TaskActivity struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	TaskID     string    `json:"task_id"`
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
