// Package memory хранит файлы, избранное и профили в памяти процесса.
// Семантика совпадает с репозиториями Postgres.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"filevault/internal/domain"

	"github.com/google/uuid"
)

type favoriteKey struct {
	spaceID string
	fileID  uuid.UUID
}

// DB общее состояние для всех репозиториев. Один мьютекс заменяет транзакции.
type DB struct {
	mu        sync.RWMutex
	files     map[uuid.UUID]domain.File
	favorites map[favoriteKey]domain.Favorite
	users     map[string]domain.UserProfile
	now       func() time.Time
}

func NewDB() *DB {
	return &DB{
		files:     make(map[uuid.UUID]domain.File),
		favorites: make(map[favoriteKey]domain.Favorite),
		users:     make(map[string]domain.UserProfile),
		now:       time.Now,
	}
}

type FileRepository struct {
	db *DB
}

func NewFileRepository(db *DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, file *domain.File) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.files[file.ID]; ok {
		return fmt.Errorf("%w: file %s already exists", domain.ErrConflict, file.ID)
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = r.db.now()
	}
	r.db.files[file.ID] = *file
	return nil
}

func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.File, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	file, ok := r.db.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: file %s", domain.ErrNotFound, id)
	}
	return &file, nil
}

func (r *FileRepository) List(ctx context.Context, spaceID string, filter domain.FileFilter) ([]domain.FileView, error) {
	filter = filter.Normalize()

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	files := []domain.FileView{}
	for _, file := range r.db.files {
		if file.SpaceID != spaceID {
			continue
		}
		_, favorited := r.db.favorites[favoriteKey{spaceID: spaceID, fileID: file.ID}]
		if !filter.Matches(&file, favorited) {
			continue
		}
		files = append(files, domain.FileView{File: file, IsFavorited: favorited})
	}

	sort.Slice(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return bytes.Compare(a.ID[:], b.ID[:]) > 0
	})

	return files, nil
}

func (r *FileRepository) MarkForDeletion(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	file, ok := r.db.files[id]
	if !ok || file.ShouldDelete {
		return false, nil
	}
	file.ShouldDelete = true
	file.MarkedForDeletionAt = &at
	r.db.files[id] = file
	return true, nil
}

func (r *FileRepository) Restore(ctx context.Context, id uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	file, ok := r.db.files[id]
	if !ok || !file.ShouldDelete {
		return false, nil
	}
	file.ShouldDelete = false
	file.MarkedForDeletionAt = nil
	r.db.files[id] = file
	return true, nil
}

func (r *FileRepository) ListExpired(ctx context.Context, cutoff time.Time, after *domain.ExpiryCursor, limit int) ([]domain.File, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	files := []domain.File{}
	for _, file := range r.db.files {
		if !file.ExpiredAt(cutoff) {
			continue
		}
		if after != nil && !expiryAfter(file, after) {
			continue
		}
		files = append(files, file)
	}

	sort.Slice(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if !a.MarkedForDeletionAt.Equal(*b.MarkedForDeletionAt) {
			return a.MarkedForDeletionAt.Before(*b.MarkedForDeletionAt)
		}
		return bytes.Compare(a.ID[:], b.ID[:]) < 0
	})
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}

	return files, nil
}

func expiryAfter(file domain.File, cursor *domain.ExpiryCursor) bool {
	if !file.MarkedForDeletionAt.Equal(cursor.MarkedAt) {
		return file.MarkedForDeletionAt.After(cursor.MarkedAt)
	}
	return bytes.Compare(file.ID[:], cursor.ID[:]) > 0
}

// PurgeExpired держит блокировку на время вызова purge
func (r *FileRepository) PurgeExpired(ctx context.Context, id uuid.UUID, cutoff time.Time, purge func(*domain.File) error) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	file, ok := r.db.files[id]
	if !ok || !file.ExpiredAt(cutoff) {
		return false, nil
	}

	if err := purge(&file); err != nil {
		return false, err
	}

	for key := range r.db.favorites {
		if key.fileID == id {
			delete(r.db.favorites, key)
		}
	}
	delete(r.db.files, id)
	return true, nil
}

type FavoriteRepository struct {
	db *DB
}

func NewFavoriteRepository(db *DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

func (r *FavoriteRepository) Toggle(ctx context.Context, spaceID string, fileID uuid.UUID, userID string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.files[fileID]; !ok {
		return false, fmt.Errorf("%w: file %s", domain.ErrNotFound, fileID)
	}

	key := favoriteKey{spaceID: spaceID, fileID: fileID}
	if _, ok := r.db.favorites[key]; ok {
		delete(r.db.favorites, key)
		return false, nil
	}

	r.db.favorites[key] = domain.Favorite{
		ID:        uuid.New(),
		SpaceID:   spaceID,
		FileID:    fileID,
		UserID:    userID,
		CreatedAt: r.db.now(),
	}
	return true, nil
}

func (r *FavoriteRepository) IsFavorited(ctx context.Context, spaceID string, fileID uuid.UUID) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	_, ok := r.db.favorites[favoriteKey{spaceID: spaceID, fileID: fileID}]
	return ok, nil
}

func (r *FavoriteRepository) ListBySpace(ctx context.Context, spaceID string) ([]domain.Favorite, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	favorites := []domain.Favorite{}
	for key, fav := range r.db.favorites {
		if key.spaceID != spaceID {
			continue
		}
		if _, ok := r.db.files[key.fileID]; !ok {
			continue
		}
		favorites = append(favorites, fav)
	}

	sort.Slice(favorites, func(i, j int) bool {
		a, b := favorites[i], favorites[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return bytes.Compare(a.ID[:], b.ID[:]) > 0
	})

	return favorites, nil
}

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Upsert(ctx context.Context, profile *domain.UserProfile) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	profile.UpdatedAt = r.db.now()
	r.db.users[profile.UserID] = *profile
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	profile, ok := r.db.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
	}
	return &profile, nil
}
