package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"smarttaskflow/internal/model"
)

type ActivityRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewActivityRepository(db *pgxpool.Pool, logger *zap.Logger) *ActivityRepository {
	return &ActivityRepository{db: db, logger: logger}
}

// Insert 写入活动记录；event_id 已存在时返回 false
func (r *ActivityRepository) Insert(ctx context.Context, a model.TaskActivity) (bool, error) {
	query := `
        INSERT INTO task_activity (event_id, type, task_id, user_id, occurred_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (event_id) DO NOTHING
    `
	tag, err := r.db.Exec(ctx, query, a.EventID, a.Type, a.TaskID, a.UserID, a.OccurredAt)
	if err != nil {
		r.logger.Error("Failed to insert task activity",
			zap.Error(err),
			zap.String("event_id", a.EventID),
		)
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
