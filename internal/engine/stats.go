package engine

import (
	"time"

	"smarttaskflow/internal/model"
)

// Stats are the dashboard counters.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	DueToday  int `json:"due_today"`
	Overdue   int `json:"overdue"`
}

// DayActivity is one bucket of the 7-day productivity chart.
type DayActivity struct {
	Date      string `json:"date"`
	Created   int    `json:"created"`
	Completed int    `json:"completed"`
}

// ProductivityDays is the number of buckets returned by ProductivityData.
const ProductivityDays = 7

// TaskStats counts total/completed/pending tasks, plus open tasks whose
// effective deadline has passed (overdue) or falls later today (due today).
// Open tasks without a due date count only as pending.
func TaskStats(tasks []model.Task, now time.Time) Stats {
	s := Stats{Total: len(tasks)}
	today := model.DateOf(now)

	for _, t := range tasks {
		if t.IsDone() {
			s.Completed++
			continue
		}
		s.Pending++

		if t.DueDate == nil {
			continue
		}
		deadline := Deadline(*t.DueDate, now.Location())
		switch {
		case deadline.Before(now):
			s.Overdue++
		case model.DateOf(deadline) == today:
			s.DueToday++
		}
	}
	return s
}

// ProductivityData returns 7 daily buckets, oldest (6 days ago) first and today
// last. There is no completion timestamp, so a done task counts as completed on
// the day it was created.
func ProductivityData(tasks []model.Task, now time.Time) []DayActivity {
	loc := now.Location()
	y, m, d := now.Date()

	days := make([]DayActivity, 0, ProductivityDays)
	for i := ProductivityDays - 1; i >= 0; i-- {
		start := time.Date(y, m, d-i, 0, 0, 0, 0, loc)
		end := time.Date(y, m, d-i+1, 0, 0, 0, 0, loc)

		bucket := DayActivity{Date: start.Format("Mon")}
		for _, t := range tasks {
			if t.CreatedAt.Before(start) || !t.CreatedAt.Before(end) {
				continue
			}
			bucket.Created++
			if t.IsDone() {
				bucket.Completed++
			}
		}
		days = append(days, bucket)
	}
	return days
}
