package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"digital-library-backend/internal/domains/user"
	"digital-library-backend/pkg/cache"
	"digital-library-backend/pkg/database"
	"digital-library-backend/pkg/logger"
)

const (
	emailConstraint = "idx_users_email"
	userCacheTTL    = 10 * time.Minute
)

// postgresRepository implements user.Repository. FindByID is cache-aside.
type postgresRepository struct {
	pool  *pgxpool.Pool
	cache cache.Cache
}

func NewPostgresRepository(pool *pgxpool.Pool, c cache.Cache) user.Repository {
	return &postgresRepository{pool: pool, cache: c}
}

func cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id.String())
}

// ========================================
// BASIC CRUD OPERATIONS
// ========================================

func (r *postgresRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query, u.Email, u.PasswordHash).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var cached user.User
	if found, err := r.cache.Get(ctx, cacheKey(id), &cached); err == nil && found {
		return &cached, nil
	}

	u, err := r.findOne(ctx, `WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey(id), u, userCacheTTL); err != nil {
		logger.Warn("failed to cache user", map[string]interface{}{"user_id": id, "error": err.Error()})
	}
	return u, nil
}

func (r *postgresRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, `WHERE email = $1`, email)
}

func (r *postgresRepository) findOne(ctx context.Context, where string, arg any) (*user.User, error) {
	query := `SELECT id, email, password_hash, created_at, updated_at FROM users ` + where

	var u user.User
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// Update writes the email, and the password hash only when one is set.
func (r *postgresRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users
		SET email = $2,
		    password_hash = COALESCE(NULLIF($3, ''), password_hash),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query, u.ID, u.Email, u.PasswordHash).Scan(&u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.ErrUserNotFound
		}
		return mapWriteError(err)
	}

	if err := r.cache.Delete(ctx, cacheKey(u.ID)); err != nil {
		logger.Warn("failed to invalidate user cache", map[string]interface{}{"user_id": u.ID, "error": err.Error()})
	}
	return nil
}

func (r *postgresRepository) CountMaterials(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM materials WHERE creator_user_id = $1`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count user materials: %w", err)
	}
	return n, nil
}

func mapWriteError(err error) error {
	if constraint, ok := database.UniqueViolation(err); ok && constraint == emailConstraint {
		return user.ErrEmailTaken()
	}
	return fmt.Errorf("write user: %w", err)
}
