package service

import (
	"context"
	"fmt"

	"filevault/internal/domain"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

const defaultProfileCacheSize = 1024

// UserService хранит профили загрузивших файлы пользователей
type UserService struct {
	users  UserStore
	cache  *lru.Cache[string, domain.UserProfile]
	logger zerolog.Logger
}

func NewUserService(users UserStore, cacheSize int, logger zerolog.Logger) (*UserService, error) {
	if cacheSize <= 0 {
		cacheSize = defaultProfileCacheSize
	}
	cache, err := lru.New[string, domain.UserProfile](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile cache: %w", err)
	}

	return &UserService{
		users:  users,
		cache:  cache,
		logger: logger.With().Str("component", "users").Logger(),
	}, nil
}

// Remember сохраняет имя и аватар из токена. Запись пропускается, если профиль не изменился.
func (s *UserService) Remember(ctx context.Context, identity *domain.Identity) error {
	if identity == nil || identity.UserID == "" {
		return domain.ErrUnauthenticated
	}

	if cached, ok := s.cache.Get(identity.UserID); ok &&
		cached.Name == identity.Name && cached.Image == identity.Image {
		return nil
	}

	profile := &domain.UserProfile{
		UserID: identity.UserID,
		Name:   identity.Name,
		Image:  identity.Image,
	}
	if err := s.users.Upsert(ctx, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	s.cache.Add(profile.UserID, *profile)
	return nil
}

// GetProfile доступен любому аутентифицированному пользователю,
// общее пространство с владельцем профиля не требуется
func (s *UserService) GetProfile(ctx context.Context, identity *domain.Identity, userID string) (*domain.UserProfile, error) {
	if identity == nil || identity.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}

	if cached, ok := s.cache.Get(userID); ok {
		return &cached, nil
	}

	profile, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.cache.Add(userID, *profile)
	s.logger.Debug().Str("user_id", userID).Msg("profile cached")
	return profile, nil
}
