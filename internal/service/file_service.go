package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"filevault/internal/domain"
	"filevault/internal/metrics"
	"filevault/internal/service/s3"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentURLs ограничивает число одновременных запросов ссылок при листинге
const maxConcurrentURLs = 16

// StorageKeyPrefix префикс ключей объектов пространства
func StorageKeyPrefix(spaceID string) string {
	return "spaces/" + spaceID + "/"
}

// FileService представляет сервис для работы с файлами
type FileService struct {
	files     FileStore
	favorites FavoriteStore
	storage   s3.Storage
	guard     *AccessGuard
	users     *UserService
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	retention time.Duration
	now       func() time.Time

	urlConcurrency int
}

func NewFileService(
	files FileStore,
	favorites FavoriteStore,
	storage s3.Storage,
	guard *AccessGuard,
	users *UserService,
	retention time.Duration,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *FileService {
	return &FileService{
		files:     files,
		favorites: favorites,
		storage:   storage,
		guard:     guard,
		users:     users,
		metrics:   m,
		logger:    logger.With().Str("component", "files").Logger(),
		retention: retention,
		now:       time.Now,

		urlConcurrency: maxConcurrentURLs,
	}
}

// AuthorizeSpace проверяет доступ к пространству до разбора тела запроса
func (s *FileService) AuthorizeSpace(identity *domain.Identity, spaceID string, operation OperationType) error {
	_, err := s.guard.AuthorizeSpace(identity, spaceID, operation)
	return err
}

// Upload сохраняет содержимое в хранилище и возвращает ключ для CreateFile
func (s *FileService) Upload(ctx context.Context, identity *domain.Identity, spaceID string, body io.Reader, size int64, contentType string) (key string, err error) {
	defer func() { s.metrics.ObserveOperation(string(OperationUpload), err) }()

	sc, err := s.guard.AuthorizeSpace(identity, spaceID, OperationUpload)
	if err != nil {
		return "", err
	}

	key = StorageKeyPrefix(sc.Space.ID) + uuid.New().String()
	if err := s.storage.PutObject(ctx, key, body, size, contentType); err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}

	return key, nil
}

// CreateFile регистрирует загруженный файл в пространстве
func (s *FileService) CreateFile(ctx context.Context, identity *domain.Identity, input domain.CreateFileInput) (id uuid.UUID, err error) {
	defer func() { s.metrics.ObserveOperation(string(OperationCreate), err) }()

	sc, err := s.guard.AuthorizeSpace(identity, input.SpaceID, OperationCreate)
	if err != nil {
		return uuid.Nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return uuid.Nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if !input.Type.Valid() {
		return uuid.Nil, fmt.Errorf("%w: unknown file type %q", domain.ErrInvalidInput, input.Type)
	}
	// Ключ должен быть выдан Upload для этого же пространства
	if !strings.HasPrefix(input.StorageKey, StorageKeyPrefix(sc.Space.ID)) {
		return uuid.Nil, fmt.Errorf("%w: storage key does not belong to space", domain.ErrInvalidInput)
	}

	file := &domain.File{
		ID:             uuid.New(),
		Name:           name,
		Type:           input.Type,
		SpaceID:        sc.Space.ID,
		StorageKey:     input.StorageKey,
		UploaderUserID: sc.UserID,
	}
	if err := s.files.Create(ctx, file); err != nil {
		return uuid.Nil, err
	}

	if s.users != nil {
		if err := s.users.Remember(ctx, identity); err != nil {
			s.logger.Warn().Err(err).Str("user_id", sc.UserID).Msg("failed to save uploader profile")
		}
	}

	s.logger.Info().
		Str("file_id", file.ID.String()).
		Str("space_id", file.SpaceID).
		Str("type", string(file.Type)).
		Msg("file created")

	return file.ID, nil
}

// ListFiles возвращает файлы пространства по фильтру
func (s *FileService) ListFiles(ctx context.Context, identity *domain.Identity, spaceID string, filter domain.FileFilter) (views []domain.FileView, err error) {
	defer func() { s.metrics.ObserveOperation(string(OperationList), err) }()

	sc, err := s.guard.AuthorizeSpace(identity, spaceID, OperationList)
	if err != nil {
		return nil, err
	}

	views, err = s.files.List(ctx, sc.Space.ID, filter)
	if err != nil {
		return nil, err
	}

	s.decorateAll(ctx, views)

	return views, nil
}

// ListFavorites возвращает все отметки пространства
func (s *FileService) ListFavorites(ctx context.Context, identity *domain.Identity, spaceID string) (favorites []domain.Favorite, err error) {
	defer func() { s.metrics.ObserveOperation(string(OperationListFavorites), err) }()

	sc, err := s.guard.AuthorizeSpace(identity, spaceID, OperationListFavorites)
	if err != nil {
		return nil, err
	}

	return s.favorites.ListBySpace(ctx, sc.Space.ID)
}

// GetFile возвращает один файл
func (s *FileService) GetFile(ctx context.Context, identity *domain.Identity, id uuid.UUID) (view *domain.FileView, err error) {
	defer func() { s.metrics.ObserveOperation(string(OperationGet), err) }()

	sc, file, err := s.guard.AuthorizeFile(ctx, identity, id, OperationGet)
	if err != nil {
		return nil, err
	}

	favorited, err := s.favorites.IsFavorited(ctx, sc.Space.ID, file.ID)
	if err != nil {
		return nil, err
	}

	view = &domain.FileView{File: *file, IsFavorited: favorited}
	s.decorate(ctx, view)
	return view, nil
}

// SoftDelete перемещает файл в корзину. Повторный вызов ничего не меняет,
// время пометки не обновляется.
func (s *FileService) SoftDelete(ctx context.Context, identity *domain.Identity, id uuid.UUID) (err error) {
	defer func() { s.metrics.ObserveOperation(string(OperationSoftDelete), err) }()

	sc, file, err := s.guard.AuthorizeFile(ctx, identity, id, OperationSoftDelete)
	if err != nil {
		return err
	}

	if file.ShouldDelete {
		return nil
	}

	changed, err := s.files.MarkForDeletion(ctx, id, s.now().UTC())
	if err != nil {
		return err
	}

	if changed {
		s.logger.Info().
			Str("file_id", id.String()).
			Str("space_id", file.SpaceID).
			Str("user_id", sc.UserID).
			Msg("file moved to trash")
	}
	return nil
}

// Restore возвращает файл из корзины
func (s *FileService) Restore(ctx context.Context, identity *domain.Identity, id uuid.UUID) (err error) {
	defer func() { s.metrics.ObserveOperation(string(OperationRestore), err) }()

	sc, file, err := s.guard.AuthorizeFile(ctx, identity, id, OperationRestore)
	if err != nil {
		return err
	}

	if !file.ShouldDelete {
		return fmt.Errorf("%w: file %s is not in trash", domain.ErrInvalidState, id)
	}

	changed, err := s.files.Restore(ctx, id)
	if err != nil {
		return err
	}
	if !changed {
		// Файл восстановили параллельно или он уже удален окончательно
		if _, err := s.files.GetByID(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("%w: file %s is not in trash", domain.ErrInvalidState, id)
	}

	s.logger.Info().
		Str("file_id", id.String()).
		Str("space_id", file.SpaceID).
		Str("user_id", sc.UserID).
		Msg("file restored")
	return nil
}

// ToggleFavorite переключает отметку и возвращает новое состояние
func (s *FileService) ToggleFavorite(ctx context.Context, identity *domain.Identity, id uuid.UUID) (favorited bool, err error) {
	defer func() { s.metrics.ObserveOperation(string(OperationToggleFavorite), err) }()

	sc, file, err := s.guard.AuthorizeFile(ctx, identity, id, OperationToggleFavorite)
	if err != nil {
		return false, err
	}

	return s.favorites.Toggle(ctx, sc.Space.ID, file.ID, sc.UserID)
}

func (s *FileService) decorateAll(ctx context.Context, views []domain.FileView) {
	var g errgroup.Group
	g.SetLimit(s.urlConcurrency)
	for i := range views {
		view := &views[i]
		g.Go(func() error {
			s.decorate(ctx, view)
			return nil
		})
	}
	g.Wait()
}

// decorate дополняет файл ссылкой на содержимое и сроком окончательного удаления
func (s *FileService) decorate(ctx context.Context, view *domain.FileView) {
	url, err := s.storage.GetURL(ctx, view.StorageKey)
	if err != nil {
		s.logger.Warn().Err(err).Str("file_id", view.ID.String()).Msg("failed to get file url")
	}
	view.URL = url

	if view.ShouldDelete && view.MarkedForDeletionAt != nil {
		purgeAt := view.MarkedForDeletionAt.Add(s.retention)
		view.PurgeAt = &purgeAt
	}
}
