package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"smarttaskflow/internal/model"
)

// ErrDuplicate 唯一约束冲突
var ErrDuplicate = errors.New("record already exists")

const uniqueViolation = "23505"

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

// CreateWithProfile 在一个事务里写入 users 和 profiles
func (r *UserRepository) CreateWithProfile(ctx context.Context, u *model.User, name *string) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
        INSERT INTO users (id, email, password_hash)
        VALUES ($1, $2, $3)
        RETURNING created_at
    `, u.ID, u.Email, u.PasswordHash).Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		r.logger.Error("Failed to insert user", zap.Error(err))
		return err
	}

	if _, err := tx.Exec(ctx, `INSERT INTO profiles (id, name) VALUES ($1, $2)`, u.ID, name); err != nil {
		r.logger.Error("Failed to insert profile", zap.Error(err), zap.String("user_id", u.ID))
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.logger.Info("User created", zap.String("user_id", u.ID))
	return nil
}

// FindByEmail returns user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
        SELECT id::text, email, password_hash, created_at
        FROM users
        WHERE email = $1
    `
	var u model.User
	err := r.db.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindProfile 按 user id 查 profile
func (r *UserRepository) FindProfile(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile
	err := r.db.QueryRow(ctx, `SELECT id::text, name FROM profiles WHERE id = $1`, userID).Scan(&p.ID, &p.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
