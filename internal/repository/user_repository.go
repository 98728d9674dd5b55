package repository

import (
	"context"
	"database/sql"
	"errors"
	"filevault/internal/domain"
	"fmt"
	"github.com/jmoiron/sqlx"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert сохраняет имя и аватар пользователя из токена
func (r *UserRepository) Upsert(ctx context.Context, profile *domain.UserProfile) error {
	query := `
        INSERT INTO users (user_id, name, image)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id) DO UPDATE
        SET name = EXCLUDED.name,
            image = EXCLUDED.image,
            updated_at = CURRENT_TIMESTAMP
        RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, profile.UserID, profile.Name, profile.Image).Scan(&profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	query := `SELECT user_id, name, image, updated_at FROM users WHERE user_id = $1`

	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &profile, nil
}
