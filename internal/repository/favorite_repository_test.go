package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"filevault/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteRepository_ToggleOn(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFavoriteRepository(db)
	fileID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM favorites WHERE space_id = $1 AND file_id = $2")).
		WithArgs("org_1", fileID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (space_id, file_id) DO NOTHING")).
		WithArgs(sqlmock.AnyArg(), "org_1", fileID, "user_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	favorited, err := repo.Toggle(context.Background(), "org_1", fileID, "user_1")
	require.NoError(t, err)
	assert.True(t, favorited)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFavoriteRepository_ToggleOff(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFavoriteRepository(db)
	fileID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM favorites")).
		WithArgs("org_1", fileID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	favorited, err := repo.Toggle(context.Background(), "org_1", fileID, "user_1")
	require.NoError(t, err)
	assert.False(t, favorited)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFavoriteRepository_ToggleConcurrentInsertIsSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFavoriteRepository(db)
	fileID := uuid.New()

	// конкурентная вставка: ON CONFLICT ничего не вставил
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM favorites")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO favorites")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	favorited, err := repo.Toggle(context.Background(), "org_1", fileID, "")
	require.NoError(t, err)
	assert.True(t, favorited)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFavoriteRepository_ToggleMissingFile(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFavoriteRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM favorites")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO favorites")).
		WillReturnError(&pq.Error{Code: pqForeignKeyViolation})
	mock.ExpectRollback()

	_, err := repo.Toggle(context.Background(), "org_1", uuid.New(), "user_1")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFavoriteRepository_IsFavorited(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFavoriteRepository(db)
	fileID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("org_1", fileID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.IsFavorited(context.Background(), "org_1", fileID)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFavoriteRepository_ListBySpace(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFavoriteRepository(db)

	favID, fileID := uuid.New(), uuid.New()
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN files f ON f.id = fav.file_id")).
		WithArgs("org_1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "space_id", "file_id", "user_id", "created_at"}).
			AddRow(favID.String(), "org_1", fileID.String(), "", created))

	favorites, err := repo.ListBySpace(context.Background(), "org_1")
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, fileID, favorites[0].FileID)
	assert.Empty(t, favorites[0].UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	updated := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (user_id) DO UPDATE")).
		WithArgs("user_1", "Ann", "https://img/a.png").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(updated))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE user_id = $1")).
		WithArgs("user_1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "image", "updated_at"}).
			AddRow("user_1", "Ann", "https://img/a.png", updated))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE user_id = $1")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "image", "updated_at"}))

	profile := &domain.UserProfile{UserID: "user_1", Name: "Ann", Image: "https://img/a.png"}
	require.NoError(t, repo.Upsert(context.Background(), profile))
	assert.Equal(t, updated, profile.UpdatedAt)

	got, err := repo.GetByID(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)

	_, err = repo.GetByID(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
