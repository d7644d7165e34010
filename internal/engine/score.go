// Package engine scores tasks by priority and deadline urgency and derives the
// dashboard views (recommendation, stats, 7-day history) from a task list.
//
// Every function is pure: results depend only on the tasks passed in and the
// supplied instant. "Local time" always means now.Location().
package engine

import (
	"time"

	"smarttaskflow/internal/model"
)

// ErrInvalidDate is returned when a due date is not a YYYY-MM-DD calendar date.
var ErrInvalidDate = model.ErrInvalidDate

const (
	ReasonOverdue   = "Overdue"
	ReasonDueToday  = "Due today"
	ReasonDueSoon   = "Due in 1–3 days"
	ReasonDueWeek   = "Due this week"
	ReasonNotUrgent = "Not urgent"
	ReasonCompleted = "Task already completed"
)

// Breakdown explains how a task's score was computed.
type Breakdown struct {
	Score          int    `json:"score"`
	PriorityWeight int    `json:"priority_weight"`
	UrgencyWeight  int    `json:"urgency_weight"`
	UrgencyReason  string `json:"urgency_reason"`
}

// Deadline is the effective deadline for a due date: 23:59 local time on the
// day before the due date.
func Deadline(due model.Date, loc *time.Location) time.Time {
	return time.Date(due.Year, due.Month, due.Day-1, 23, 59, 0, 0, loc)
}

// PriorityWeight maps high/medium/low to 3/2/1.
func PriorityWeight(p model.Priority) int {
	switch p {
	case model.PriorityHigh:
		return 3
	case model.PriorityMedium:
		return 2
	case model.PriorityLow:
		return 1
	default:
		return 0
	}
}

// hoursLeft reports the hours between now and the task's effective deadline.
// ok is false when the task has no due date.
func hoursLeft(t model.Task, now time.Time) (hours float64, ok bool) {
	if t.DueDate == nil {
		return 0, false
	}
	return Deadline(*t.DueDate, now.Location()).Sub(now).Hours(), true
}

func urgencyWeight(hours float64) (int, string) {
	switch {
	case hours < 0:
		return 5, ReasonOverdue
	case hours < 24:
		return 3, ReasonDueToday
	case hours < 72:
		return 2, ReasonDueSoon
	case hours < 168:
		return 1, ReasonDueWeek
	default:
		return 0, ReasonNotUrgent
	}
}

// ScoreBreakdown computes the score components for a task at now.
// Done tasks score 0; tasks without a due date get no urgency weight.
func ScoreBreakdown(t model.Task, now time.Time) Breakdown {
	if t.IsDone() {
		return Breakdown{UrgencyReason: ReasonCompleted}
	}

	b := Breakdown{
		PriorityWeight: PriorityWeight(t.Priority),
		UrgencyReason:  ReasonNotUrgent,
	}
	if hours, ok := hoursLeft(t, now); ok {
		b.UrgencyWeight, b.UrgencyReason = urgencyWeight(hours)
	}
	b.Score = b.PriorityWeight + b.UrgencyWeight
	return b
}

// CalculateTaskScore returns priorityWeight + urgencyWeight, or 0 for done tasks.
func CalculateTaskScore(t model.Task, now time.Time) int {
	return ScoreBreakdown(t, now).Score
}
