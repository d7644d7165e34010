package engine

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"smarttaskflow/internal/model"
)

// FilterAll disables a filter dimension.
const FilterAll = "ALL"

type DeadlineFilter string

const (
	DeadlineAll      DeadlineFilter = FilterAll
	DeadlineToday    DeadlineFilter = "TODAY"
	DeadlineThisWeek DeadlineFilter = "THIS_WEEK"
)

type SortField string

const (
	SortByDueDate   SortField = "due_date"
	SortByPriority  SortField = "priority"
	SortByCreatedAt SortField = "created_at"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// TaskFilter selects tasks for the list view. Empty Priority / Category match everything.
type TaskFilter struct {
	Priority model.Priority
	Category model.Category
	Deadline DeadlineFilter
}

// ParseTaskFilter builds a filter from query values; "" and "ALL" mean no filter.
func ParseTaskFilter(priority, category, deadline string) (TaskFilter, error) {
	var f TaskFilter
	var err error

	if !isAll(priority) {
		if f.Priority, err = model.ParsePriority(priority); err != nil {
			return TaskFilter{}, err
		}
	}
	if !isAll(category) {
		if f.Category, err = model.ParseCategory(category); err != nil {
			return TaskFilter{}, err
		}
	}

	switch d := DeadlineFilter(strings.ToUpper(deadline)); d {
	case "", DeadlineAll:
		f.Deadline = DeadlineAll
	case DeadlineToday, DeadlineThisWeek:
		f.Deadline = d
	default:
		return TaskFilter{}, fmt.Errorf("invalid deadline filter %q", deadline)
	}
	return f, nil
}

// ParseSort validates sort_by / order query values, defaulting to due_date asc.
func ParseSort(sortBy, order string) (SortField, SortOrder, error) {
	field := SortField(sortBy)
	switch field {
	case "":
		field = SortByDueDate
	case SortByDueDate, SortByPriority, SortByCreatedAt:
	default:
		return "", "", fmt.Errorf("invalid sort_by %q", sortBy)
	}

	dir := SortOrder(strings.ToLower(order))
	switch dir {
	case "":
		dir = SortAsc
	case SortAsc, SortDesc:
	default:
		return "", "", fmt.Errorf("invalid order %q", order)
	}
	return field, dir, nil
}

func isAll(v string) bool {
	return v == "" || strings.EqualFold(v, FilterAll)
}

// Filter returns the tasks matching f. TODAY keeps tasks due today; THIS_WEEK
// keeps tasks due between today and seven days from now, inclusive. Both
// deadline filters drop tasks without a due date.
func Filter(tasks []model.Task, f TaskFilter, now time.Time) []model.Task {
	today := model.DateOf(now)
	weekEnd := today.AddDays(7)

	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}

		switch f.Deadline {
		case DeadlineToday:
			if t.DueDate == nil || *t.DueDate != today {
				continue
			}
		case DeadlineThisWeek:
			if t.DueDate == nil || t.DueDate.Before(today) || t.DueDate.After(weekEnd) {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// Sort returns a sorted copy of tasks. Tasks without a due date always sort
// last when ordering by due date.
func Sort(tasks []model.Task, by SortField, order SortOrder) []model.Task {
	out := slices.Clone(tasks)
	sign := 1
	if order == SortDesc {
		sign = -1
	}

	slices.SortStableFunc(out, func(a, b model.Task) int {
		switch by {
		case SortByPriority:
			return sign * cmp.Compare(priorityRank(a.Priority), priorityRank(b.Priority))
		case SortByCreatedAt:
			return sign * a.CreatedAt.Compare(b.CreatedAt)
		default:
			if a.DueDate == nil || b.DueDate == nil {
				return compareDueDates(a.DueDate, b.DueDate)
			}
			return sign * a.DueDate.Compare(*b.DueDate)
		}
	})
	return out
}
