package domain

import "strings"

type SpaceKind string

const (
	SpaceKindPersonal SpaceKind = "personal"
	SpaceKindOrg      SpaceKind = "org"
)

// Space область владения файлами: личное пространство пользователя или организация
type Space struct {
	Kind SpaceKind `json:"kind"`
	ID   string    `json:"id"`
}

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// ParseRole приводит роль провайдера идентификации ("org:admin") к нашей.
// Неизвестные роли получают минимальные права.
func ParseRole(s string) Role {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "org:")
	if s == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleMember
}

type OrgMembership struct {
	OrgID string `json:"id"`
	Role  Role   `json:"role"`
}

// Identity аутентифицированный пользователь, как его видит провайдер идентификации
type Identity struct {
	UserID      string          `json:"user_id"`
	Name        string          `json:"name,omitempty"`
	Image       string          `json:"image,omitempty"`
	ActiveOrgID string          `json:"active_org_id,omitempty"`
	Memberships []OrgMembership `json:"memberships"`
}

// SpaceContext результат разрешения пространства для запроса
type SpaceContext struct {
	Space  Space
	UserID string
	Role   Role
}

func (c *SpaceContext) IsAdmin() bool {
	return c.Role == RoleAdmin
}
