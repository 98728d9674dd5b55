package service

import (
	"context"
	"errors"
	"fmt"

	"filevault/internal/auth"
	"filevault/internal/domain"

	"github.com/google/uuid"
)

// OperationType определяет тип операции
type OperationType string

const (
	OperationList           OperationType = "list"
	OperationListFavorites  OperationType = "list_favorites"
	OperationGet            OperationType = "get"
	OperationUpload         OperationType = "upload"
	OperationCreate         OperationType = "create"
	OperationToggleFavorite OperationType = "toggle_favorite"
	OperationSoftDelete     OperationType = "soft_delete"
	OperationRestore        OperationType = "restore"
)

// AccessGuard единственное место, где принимаются решения о доступе
type AccessGuard struct {
	files FileStore
}

func NewAccessGuard(files FileStore) *AccessGuard {
	return &AccessGuard{files: files}
}

// checkAccessLevel проверяет, достаточна ли роль для операции
func (g *AccessGuard) checkAccessLevel(role domain.Role, operation OperationType) bool {
	switch operation {
	case OperationSoftDelete, OperationRestore:
		return role == domain.RoleAdmin
	case OperationList, OperationListFavorites, OperationGet,
		OperationUpload, OperationCreate, OperationToggleFavorite:
		// Достаточно членства в пространстве
		return true
	default:
		return false
	}
}

// AuthorizeSpace проверяет операцию над пространством целиком
func (g *AccessGuard) AuthorizeSpace(identity *domain.Identity, spaceID string, operation OperationType) (*domain.SpaceContext, error) {
	sc, err := auth.ResolveSpace(identity, spaceID)
	if err != nil {
		return nil, err
	}

	if !g.checkAccessLevel(sc.Role, operation) {
		return nil, fmt.Errorf("%w: %s requires admin role", domain.ErrForbidden, operation)
	}

	return sc, nil
}

// AuthorizeFile проверяет операцию над файлом. Файл чужого пространства
// неотличим от несуществующего.
func (g *AccessGuard) AuthorizeFile(ctx context.Context, identity *domain.Identity, fileID uuid.UUID, operation OperationType) (*domain.SpaceContext, *domain.File, error) {
	if identity == nil || identity.UserID == "" {
		return nil, nil, domain.ErrUnauthenticated
	}

	file, err := g.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}

	sc, err := auth.ResolveSpace(identity, file.SpaceID)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return nil, nil, fmt.Errorf("%w: file %s", domain.ErrNotFound, fileID)
		}
		return nil, nil, err
	}

	if !g.checkAccessLevel(sc.Role, operation) {
		return nil, nil, fmt.Errorf("%w: %s requires admin role", domain.ErrForbidden, operation)
	}

	return sc, file, nil
}
