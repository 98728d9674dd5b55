package auth

import (
	"fmt"
	"strings"

	"filevault/internal/domain"
)

// ResolveSpace определяет пространство, в котором выполняется запрос.
// Это единственная точка, через которую проходит проверка принадлежности к пространству.
func ResolveSpace(identity *domain.Identity, spaceID string) (*domain.SpaceContext, error) {
	if identity == nil || identity.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}

	spaceID = strings.TrimSpace(spaceID)
	if spaceID == "" {
		return nil, fmt.Errorf("%w: space id is required", domain.ErrForbidden)
	}

	// Владелец личного пространства имеет права администратора
	if spaceID == identity.UserID {
		return &domain.SpaceContext{
			Space:  domain.Space{Kind: domain.SpaceKindPersonal, ID: spaceID},
			UserID: identity.UserID,
			Role:   domain.RoleAdmin,
		}, nil
	}

	for _, m := range identity.Memberships {
		if m.OrgID == spaceID {
			return &domain.SpaceContext{
				Space:  domain.Space{Kind: domain.SpaceKindOrg, ID: spaceID},
				UserID: identity.UserID,
				Role:   m.Role,
			}, nil
		}
	}

	return nil, fmt.Errorf("%w: not a member of space %s", domain.ErrForbidden, spaceID)
}

// DefaultSpaceID активная организация, если пользователь в ней состоит, иначе личное пространство
func DefaultSpaceID(identity *domain.Identity) string {
	if identity == nil {
		return ""
	}
	if identity.ActiveOrgID != "" {
		for _, m := range identity.Memberships {
			if m.OrgID == identity.ActiveOrgID {
				return m.OrgID
			}
		}
	}
	return identity.UserID
}
