package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smarttaskflow/internal/engine"
	"smarttaskflow/internal/model"
)

var (
	plusFive   = time.FixedZone("UTC+5", 5*60*60)
	minusEight = time.FixedZone("UTC-8", -8*60*60)
)

func date(s string) *model.Date {
	d := model.MustParseDate(s)
	return &d
}

func task(p model.Priority, s model.Status, due *model.Date) model.Task {
	return model.Task{
		ID:       "t",
		Title:    "task",
		Priority: p,
		Status:   s,
		Category: model.CategoryWork,
		DueDate:  due,
	}
}

func TestDeadlineIsPreviousDayAt2359Local(t *testing.T) {
	for _, loc := range []*time.Location{time.UTC, plusFive, minusEight} {
		d := engine.Deadline(model.MustParseDate("2024-03-10"), loc)

		assert.Equal(t, loc, d.Location())
		y, m, day := d.Date()
		assert.Equal(t, 2024, y)
		assert.Equal(t, time.March, m)
		assert.Equal(t, 9, day)
		assert.Equal(t, 23, d.Hour())
		assert.Equal(t, 59, d.Minute())
	}
}

func TestDeadlineCrossesMonthBoundary(t *testing.T) {
	d := engine.Deadline(model.MustParseDate("2024-03-01"), plusFive)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 0, 0, plusFive), d)
}

func TestCalculateTaskScoreBuckets(t *testing.T) {
	due := date("2024-03-10")
	deadline := engine.Deadline(*due, plusFive)

	tests := []struct {
		name       string
		hoursLeft  time.Duration
		priority   model.Priority
		wantScore  int
		wantReason string
	}{
		{"overdue by a minute", -time.Minute, model.PriorityHigh, 8, engine.ReasonOverdue},
		{"exactly at deadline", 0, model.PriorityHigh, 6, engine.ReasonDueToday},
		{"just under 24h", 24*time.Hour - 3600*time.Millisecond, model.PriorityMedium, 5, engine.ReasonDueToday},
		{"exactly 24h", 24 * time.Hour, model.PriorityMedium, 4, engine.ReasonDueSoon},
		{"just under 72h", 72*time.Hour - time.Second, model.PriorityLow, 3, engine.ReasonDueSoon},
		{"exactly 72h", 72 * time.Hour, model.PriorityLow, 2, engine.ReasonDueWeek},
		{"just under a week", 168*time.Hour - time.Second, model.PriorityHigh, 4, engine.ReasonDueWeek},
		{"exactly a week", 168 * time.Hour, model.PriorityHigh, 3, engine.ReasonNotUrgent},
		{"far away", 30 * 24 * time.Hour, model.PriorityLow, 1, engine.ReasonNotUrgent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := deadline.Add(-tt.hoursLeft)
			tk := task(tt.priority, model.StatusTodo, due)

			assert.Equal(t, tt.wantScore, engine.CalculateTaskScore(tk, now))

			b := engine.ScoreBreakdown(tk, now)
			assert.Equal(t, tt.wantScore, b.Score)
			assert.Equal(t, engine.PriorityWeight(tt.priority), b.PriorityWeight)
			assert.Equal(t, b.Score-b.PriorityWeight, b.UrgencyWeight)
			assert.Equal(t, tt.wantReason, b.UrgencyReason)
		})
	}
}

func TestCalculateTaskScoreDoneIsZero(t *testing.T) {
	now := time.Date(2024, 3, 20, 9, 0, 0, 0, plusFive)

	for _, p := range []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityLow} {
		tk := task(p, model.StatusDone, date("2024-03-01"))

		assert.Equal(t, 0, engine.CalculateTaskScore(tk, now))
		assert.Equal(t, engine.Breakdown{UrgencyReason: engine.ReasonCompleted}, engine.ScoreBreakdown(tk, now))
	}
}

func TestCalculateTaskScoreWithoutDueDate(t *testing.T) {
	now := time.Date(2024, 3, 20, 9, 0, 0, 0, plusFive)
	tk := task(model.PriorityMedium, model.StatusInProgress, nil)

	b := engine.ScoreBreakdown(tk, now)
	assert.Equal(t, 2, b.Score)
	assert.Equal(t, 0, b.UrgencyWeight)
	assert.Equal(t, engine.ReasonNotUrgent, b.UrgencyReason)
}

func TestParseDateRejectsMalformedInput(t *testing.T) {
	for _, s := range []string{"", "2024-3-10", "10/03/2024", "2024-02-30", "2024-03-10T00:00:00Z", "abcd-ef-gh"} {
		_, err := model.ParseDate(s)
		require.Error(t, err, s)
		assert.ErrorIs(t, err, engine.ErrInvalidDate, s)
	}

	d, err := model.ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())
}
