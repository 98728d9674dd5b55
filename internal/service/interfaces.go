package service

import (
	"context"
	"time"

	"filevault/internal/domain"

	"github.com/google/uuid"
)

// FileStore реализуется repository.FileRepository и memory.FileRepository
type FileStore interface {
	Create(ctx context.Context, file *domain.File) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.File, error)
	List(ctx context.Context, spaceID string, filter domain.FileFilter) ([]domain.FileView, error)
	MarkForDeletion(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	Restore(ctx context.Context, id uuid.UUID) (bool, error)
	ListExpired(ctx context.Context, cutoff time.Time, after *domain.ExpiryCursor, limit int) ([]domain.File, error)
	PurgeExpired(ctx context.Context, id uuid.UUID, cutoff time.Time, purge func(*domain.File) error) (bool, error)
}

type FavoriteStore interface {
	Toggle(ctx context.Context, spaceID string, fileID uuid.UUID, userID string) (bool, error)
	IsFavorited(ctx context.Context, spaceID string, fileID uuid.UUID) (bool, error)
	ListBySpace(ctx context.Context, spaceID string) ([]domain.Favorite, error)
}

type UserStore interface {
	Upsert(ctx context.Context, profile *domain.UserProfile) error
	GetByID(ctx context.Context, userID string) (*domain.UserProfile, error)
}
