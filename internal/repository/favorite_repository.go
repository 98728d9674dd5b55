package repository

import (
	"context"
	"database/sql"
	"errors"
	"filevault/internal/domain"
	"fmt"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// foreign_key_violation
const pqForeignKeyViolation = "23503"

type FavoriteRepository struct {
	db *sqlx.DB
}

func NewFavoriteRepository(db *sqlx.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Toggle снимает отметку, если она есть, иначе ставит. Возвращает итоговое состояние.
// Одновременная вставка той же пары не ошибка: отметка в итоге стоит.
func (r *FavoriteRepository) Toggle(ctx context.Context, spaceID string, fileID uuid.UUID, userID string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM favorites WHERE space_id = $1 AND file_id = $2`,
		spaceID, fileID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete favorite: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if removed == 0 {
		query := `
            INSERT INTO favorites (id, space_id, file_id, user_id)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (space_id, file_id) DO NOTHING`

		_, err = tx.ExecContext(ctx, query,
			uuid.New(),
			spaceID,
			fileID,
			sql.NullString{String: userID, Valid: userID != ""},
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
				return false, fmt.Errorf("%w: file %s", domain.ErrNotFound, fileID)
			}
			return false, fmt.Errorf("failed to insert favorite: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return removed == 0, nil
}

// IsFavorited проверяет отметку для пары (пространство, файл)
func (r *FavoriteRepository) IsFavorited(ctx context.Context, spaceID string, fileID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM favorites WHERE space_id = $1 AND file_id = $2)`

	if err := r.db.GetContext(ctx, &exists, query, spaceID, fileID); err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}

	return exists, nil
}

// ListBySpace возвращает отметки пространства. Отметки удаленных файлов не попадают
// в выборку благодаря соединению с files.
func (r *FavoriteRepository) ListBySpace(ctx context.Context, spaceID string) ([]domain.Favorite, error) {
	query := `
        SELECT fav.id, fav.space_id, fav.file_id, COALESCE(fav.user_id, '') AS user_id, fav.created_at
        FROM favorites fav
        JOIN files f ON f.id = fav.file_id
        WHERE fav.space_id = $1
        ORDER BY fav.created_at DESC, fav.id DESC`

	favorites := []domain.Favorite{}
	if err := r.db.SelectContext(ctx, &favorites, query, spaceID); err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	return favorites, nil
}
