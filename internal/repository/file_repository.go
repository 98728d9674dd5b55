package repository

import (
	"context"
	"database/sql"
	"errors"
	"filevault/internal/domain"
	"fmt"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"strings"
	"time"
)

const fileColumns = `f.id, f.name, f.type, f.space_id, f.storage_key, f.uploader_user_id,
        f.should_delete, f.marked_for_deletion_at, f.created_at`

type FileRepository struct {
	db *sqlx.DB
}

func NewFileRepository(db *sqlx.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, file *domain.File) error {
	query := `
        INSERT INTO files (id, name, type, space_id, storage_key, uploader_user_id)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at`

	err := r.db.QueryRowContext(
		ctx,
		query,
		file.ID,
		file.Name,
		file.Type,
		file.SpaceID,
		file.StorageKey,
		file.UploaderUserID,
	).Scan(&file.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	return nil
}

func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.File, error) {
	var file domain.File
	query := `SELECT ` + fileColumns + ` FROM files f WHERE f.id = $1`

	err := r.db.GetContext(ctx, &file, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: file %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	return &file, nil
}

// List возвращает файлы пространства по фильтру, новые первыми.
// Отметка "избранное" подтягивается тем же запросом.
func (r *FileRepository) List(ctx context.Context, spaceID string, filter domain.FileFilter) ([]domain.FileView, error) {
	filter = filter.Normalize()

	args := []interface{}{spaceID, filter.TrashOnly}
	conditions := []string{"f.space_id = $1", "f.should_delete = $2"}

	if filter.Type != nil {
		args = append(args, *filter.Type)
		conditions = append(conditions, fmt.Sprintf("f.type = $%d", len(args)))
	}
	if filter.Query != "" {
		args = append(args, filter.Query)
		conditions = append(conditions, fmt.Sprintf("position($%d in lower(f.name)) > 0", len(args)))
	}
	if filter.FavoritesOnly {
		conditions = append(conditions, "fav.id IS NOT NULL")
	}

	query := `
        SELECT ` + fileColumns + `, (fav.id IS NOT NULL) AS is_favorited
        FROM files f
        LEFT JOIN favorites fav ON fav.file_id = f.id AND fav.space_id = f.space_id
        WHERE ` + strings.Join(conditions, " AND ") + `
        ORDER BY f.created_at DESC, f.id DESC`

	files := []domain.FileView{}
	if err := r.db.SelectContext(ctx, &files, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return files, nil
}

// MarkForDeletion переводит файл в корзину. false означает, что файл уже там.
func (r *FileRepository) MarkForDeletion(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
        UPDATE files
        SET should_delete = TRUE,
            marked_for_deletion_at = $2
        WHERE id = $1 AND should_delete = FALSE`

	return r.execConditional(ctx, query, id, at)
}

// Restore возвращает файл из корзины. false означает, что файл не был в корзине.
func (r *FileRepository) Restore(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
        UPDATE files
        SET should_delete = FALSE,
            marked_for_deletion_at = NULL
        WHERE id = $1 AND should_delete = TRUE`

	return r.execConditional(ctx, query, id)
}

func (r *FileRepository) execConditional(ctx context.Context, query string, args ...interface{}) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update file state: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

// ListExpired возвращает файлы, помеченные на удаление раньше cutoff,
// начиная сразу после after (nil - с начала очереди)
func (r *FileRepository) ListExpired(ctx context.Context, cutoff time.Time, after *domain.ExpiryCursor, limit int) ([]domain.File, error) {
	query := `
        SELECT ` + fileColumns + `
        FROM files f
        WHERE f.should_delete = TRUE AND f.marked_for_deletion_at < $1`
	args := []interface{}{cutoff}

	if after != nil {
		query += ` AND (f.marked_for_deletion_at, f.id) > ($2, $3)`
		args = append(args, after.MarkedAt, after.ID)
	}

	args = append(args, limit)
	query += fmt.Sprintf(`
        ORDER BY f.marked_for_deletion_at, f.id
        LIMIT $%d`, len(args))

	files := []domain.File{}
	if err := r.db.SelectContext(ctx, &files, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list expired files: %w", err)
	}

	return files, nil
}

// PurgeExpired окончательно удаляет файл, если он все еще в корзине дольше срока.
// purge вызывается под блокировкой строки; ошибка purge откатывает транзакцию
// и оставляет файл в корзине до следующего запуска.
func (r *FileRepository) PurgeExpired(ctx context.Context, id uuid.UUID, cutoff time.Time, purge func(*domain.File) error) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var file domain.File
	query := `SELECT ` + fileColumns + ` FROM files f WHERE f.id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &file, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to lock file: %w", err)
	}

	// Файл могли восстановить после выборки кандидатов
	if !file.ExpiredAt(cutoff) {
		return false, nil
	}

	if err := purge(&file); err != nil {
		return false, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM favorites WHERE file_id = $1`, id); err != nil {
		return false, fmt.Errorf("failed to delete favorites: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id); err != nil {
		return false, fmt.Errorf("failed to delete file: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}
