package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"smarttaskflow/internal/model"
)

const taskColumns = `id::text, user_id::text, title, description, priority, status, category, due_date, created_at`

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

// Insert 写入任务；ID 为空时生成 uuid，CreatedAt 由数据库填充
func (r *TaskRepository) Insert(ctx context.Context, t *model.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	r.logger.Debug("Inserting task",
		zap.String("task_id", t.ID),
		zap.String("user_id", t.UserID),
		zap.String("title", t.Title),
		zap.String("status", string(t.Status)),
	)
	query := `
        INSERT INTO tasks (id, user_id, title, description, priority, status, category, due_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING created_at
    `
	err := r.db.QueryRow(ctx, query,
		t.ID,
		t.UserID,
		t.Title,
		t.Description,
		string(t.Priority),
		string(t.Status),
		string(t.Category),
		toPgDate(t.DueDate),
	).Scan(&t.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert task",
			zap.Error(err),
			zap.String("user_id", t.UserID),
		)
		return err
	}
	r.logger.Info("Task inserted successfully",
		zap.String("task_id", t.ID),
		zap.String("user_id", t.UserID),
	)
	return nil
}

// ListByUser 按创建时间倒序
func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	r.logger.Debug("Listing tasks for user", zap.String("user_id", userID))
	query := `
        SELECT ` + taskColumns + `
        FROM tasks
        WHERE user_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to query tasks",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			r.logger.Error("Failed to scan task row",
				zap.Error(err),
				zap.String("user_id", userID),
			)
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating task rows",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, err
	}

	r.logger.Debug("Tasks listed successfully",
		zap.String("user_id", userID),
		zap.Int("count", len(tasks)),
	)
	return tasks, nil
}

// Get 只返回属于 userID 的任务，否则 ErrNotFound
func (r *TaskRepository) Get(ctx context.Context, userID, id string) (*model.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	query := `
        SELECT ` + taskColumns + `
        FROM tasks
        WHERE id = $1 AND user_id = $2
    `
	t, err := scanTask(r.db.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get task",
			zap.Error(err),
			zap.String("task_id", id),
			zap.String("user_id", userID),
		)
		return nil, err
	}
	return t, nil
}

// Update 只更新 patch 中非 nil 的字段
func (r *TaskRepository) Update(ctx context.Context, userID, id string, patch model.TaskPatch) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	if patch.IsEmpty() {
		_, err := r.Get(ctx, userID, id)
		return err
	}

	sets := make([]string, 0, 6)
	args := []any{id, userID}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Priority != nil {
		add("priority", string(*patch.Priority))
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.Category != nil {
		add("category", string(*patch.Category))
	}
	if patch.DueDate != nil {
		add("due_date", toPgDate(patch.DueDate))
	}

	r.logger.Debug("Updating task",
		zap.String("task_id", id),
		zap.String("user_id", userID),
		zap.Int("fields", len(sets)),
	)
	query := `UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 AND user_id = $2`
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update task",
			zap.Error(err),
			zap.String("task_id", id),
		)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	r.logger.Info("Task updated successfully", zap.String("task_id", id))
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	r.logger.Debug("Deleting task", zap.String("task_id", id), zap.String("user_id", userID))
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		r.logger.Error("Failed to delete task",
			zap.Error(err),
			zap.String("task_id", id),
		)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	r.logger.Info("Task deleted successfully", zap.String("task_id", id))
	return nil
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var (
		t                          model.Task
		priority, status, category string
		due                        pgtype.Date
	)
	if err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&priority,
		&status,
		&category,
		&due,
		&t.CreatedAt,
	); err != nil {
		return nil, err
	}
	t.Priority = model.Priority(priority)
	t.Status = model.Status(status)
	t.Category = model.Category(category)
	t.DueDate = fromPgDate(due)
	return &t, nil
}
