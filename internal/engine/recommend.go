package engine

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"smarttaskflow/internal/model"
)

const fallbackReason = "This task is important and upcoming."

// ScoreBasedRecommendation picks the open task with the highest score; ties go
// to the earlier due date. Tasks without a due date lose ties. Returns nil when
// every task is done.
func ScoreBasedRecommendation(tasks []model.Task, now time.Time) *model.Task {
	type scored struct {
		task  model.Task
		score int
	}

	open := make([]scored, 0, len(tasks))
	for _, t := range tasks {
		if t.IsDone() {
			continue
		}
		open = append(open, scored{task: t, score: CalculateTaskScore(t, now)})
	}
	if len(open) == 0 {
		return nil
	}

	slices.SortStableFunc(open, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return compareDueDates(a.task.DueDate, b.task.DueDate)
	})
	best := open[0].task
	return &best
}

// PriorityBasedRecommendation picks among todo / in_progress tasks by priority
// rank (high first), then earliest due date. It ignores urgency entirely.
func PriorityBasedRecommendation(tasks []model.Task) *model.Task {
	open := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == model.StatusTodo || t.Status == model.StatusInProgress {
			open = append(open, t)
		}
	}
	if len(open) == 0 {
		return nil
	}

	slices.SortStableFunc(open, func(a, b model.Task) int {
		if c := cmp.Compare(priorityRank(a.Priority), priorityRank(b.Priority)); c != 0 {
			return c
		}
		return compareDueDates(a.DueDate, b.DueDate)
	})
	return &open[0]
}

// RecommendationReason explains a recommendation in one line, e.g.
// "Due within 24 hours • High priority".
func RecommendationReason(t model.Task, now time.Time) string {
	var reasons []string

	if hours, ok := hoursLeft(t, now); ok {
		switch {
		case hours < 0:
			reasons = append(reasons, "This task is overdue!")
		case hours < 24:
			reasons = append(reasons, "Due within 24 hours")
		case hours < 72:
			reasons = append(reasons, "Due within 3 days")
		}
	}

	switch t.Priority {
	case model.PriorityHigh:
		reasons = append(reasons, "High priority")
	case model.PriorityMedium:
		reasons = append(reasons, "Medium priority")
	}

	if len(reasons) == 0 {
		return fallbackReason
	}
	return strings.Join(reasons, " • ")
}

// priorityRank orders high < medium < low; unknown priorities sort last.
func priorityRank(p model.Priority) int {
	switch p {
	case model.PriorityHigh:
		return 1
	case model.PriorityMedium:
		return 2
	case model.PriorityLow:
		return 3
	default:
		return 4
	}
}

// compareDueDates orders earlier dates first and missing dates last.
func compareDueDates(a, b *model.Date) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}
