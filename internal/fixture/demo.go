// Package fixture holds seed tasks for tests. It is never imported by the live
// store code path.
package fixture

import (
	"time"

	"smarttaskflow/internal/model"
)

// DemoUserID owns every task returned by DemoTasks.
const DemoUserID = "00000000-0000-0000-0000-000000000001"

// DemoTasks returns six tasks with due dates and creation times relative to now.
func DemoTasks(now time.Time) []model.Task {
	today := model.DateOf(now)
	due := func(days int) *model.Date {
		d := today.AddDays(days)
		return &d
	}
	created := func(daysAgo int) time.Time {
		return now.AddDate(0, 0, -daysAgo)
	}
	desc := func(s string) *string { return &s }

	return []model.Task{
		{
			ID: "demo-1", UserID: DemoUserID,
			Title:       "Complete project proposal",
			Description: desc("Finish the quarterly project proposal and send it to the team for review."),
			Priority:    model.PriorityHigh, Status: model.StatusTodo, Category: model.CategoryWork,
			DueDate: due(1), CreatedAt: created(2),
		},
		{
			ID: "demo-2", UserID: DemoUserID,
			Title:       "Study for certification exam",
			Description: desc("Review chapters 5-8 of the study guide and complete practice tests."),
			Priority:    model.PriorityMedium, Status: model.StatusInProgress, Category: model.CategoryStudy,
			DueDate: due(3), CreatedAt: created(3),
		},
		{
			ID: "demo-3", UserID: DemoUserID,
			Title:       "Grocery shopping",
			Description: desc("Buy vegetables, fruits, and weekly essentials."),
			Priority:    model.PriorityLow, Status: model.StatusTodo, Category: model.CategoryPersonal,
			DueDate: due(2), CreatedAt: created(1),
		},
		{
			ID: "demo-4", UserID: DemoUserID,
			Title:       "Team meeting preparation",
			Description: desc("Prepare slides and agenda for Monday's team sync meeting."),
			Priority:    model.PriorityMedium, Status: model.StatusDone, Category: model.CategoryWork,
			DueDate: due(6), CreatedAt: created(4),
		},
		{
			ID: "demo-5", UserID: DemoUserID,
			Title:       "Exercise routine",
			Description: desc("Complete 30-minute cardio and strength training session."),
			Priority:    model.PriorityLow, Status: model.StatusTodo, Category: model.CategoryPersonal,
			DueDate: due(1), CreatedAt: created(5),
		},
		{
			ID: "demo-6", UserID: DemoUserID,
			Title:       "Review research paper",
			Description: desc("Read and annotate the latest research paper on machine learning."),
			Priority:    model.PriorityHigh, Status: model.StatusTodo, Category: model.CategoryStudy,
			DueDate: due(-1), CreatedAt: created(6),
		},
	}
}
