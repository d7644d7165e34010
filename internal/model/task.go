package model

import (
	"fmt"
	"strings"
	"time"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority accepts any casing ("HIGH", "High", "high").
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	}
	return "", fmt.Errorf("invalid priority %q", s)
}

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusTodo, StatusInProgress, StatusDone:
		return st, nil
	}
	return "", fmt.Errorf("invalid status %q", s)
}

type Category string

const (
	CategoryWork     Category = "Work"
	CategoryPersonal Category = "Personal"
	CategoryStudy    Category = "Study"
)

var categories = []Category{CategoryWork, CategoryPersonal, CategoryStudy}

// ParseCategory matches case-insensitively and returns the canonical spelling.
func ParseCategory(s string) (Category, error) {
	for _, c := range categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("invalid category %q", s)
}

// Task 属于单个用户的任务；DueDate 为空表示没有截止日期
type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	Category    Category  `json:"category"`
	DueDate     *Date     `json:"due_date"`
	CreatedAt   time.Time `json:"created_at"`
}

func (t Task) IsDone() bool { return t.Status == StatusDone }

// TaskPatch 部分更新；nil 字段保持不变
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *Priority
	Status      *Status
	Category    *Category
	DueDate     *Date
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Status == nil && p.Category == nil && p.DueDate == nil
}
