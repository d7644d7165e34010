package task

import (
	"context"
	"time"

	"smarttaskflow/internal/engine"
	"smarttaskflow/internal/model"
)

// Recommendation 推荐任务及其解释
type Recommendation struct {
	Task      model.Task       `json:"task"`
	Breakdown engine.Breakdown `json:"breakdown"`
	Reason    string           `json:"reason"`
	Deadline  *time.Time       `json:"deadline"`
}

type Dashboard struct {
	Stats        engine.Stats         `json:"stats"`
	Productivity []engine.DayActivity `json:"productivity"`
	// Recommended 按分数选出（看板页）
	Recommended *Recommendation `json:"recommended"`
	// PriorityPick 只看优先级和截止日期
	PriorityPick *Recommendation `json:"priority_pick"`
}

// Dashboard 每次都重新读取任务列表
func (s *Service) Dashboard(ctx context.Context, userID string, now time.Time) (*Dashboard, error) {
	tasks, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		Stats:        engine.TaskStats(tasks, now),
		Productivity: engine.ProductivityData(tasks, now),
		Recommended:  explain(engine.ScoreBasedRecommendation(tasks, now), now),
		PriorityPick: explain(engine.PriorityBasedRecommendation(tasks), now),
	}, nil
}

// Score 单个任务的分数明细
func (s *Service) Score(ctx context.Context, userID, id string, now time.Time) (*Recommendation, error) {
	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return explain(t, now), nil
}

func explain(t *model.Task, now time.Time) *Recommendation {
	if t == nil {
		return nil
	}
	r := &Recommendation{
		Task:      *t,
		Breakdown: engine.ScoreBreakdown(*t, now),
		Reason:    engine.RecommendationReason(*t, now),
	}
	if t.DueDate != nil {
		d := engine.Deadline(*t.DueDate, now.Location())
		r.Deadline = &d
	}
	return r
}
