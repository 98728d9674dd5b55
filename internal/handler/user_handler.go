package handler

import (
	"net/http"

	"filevault/internal/auth"
	"filevault/internal/domain"
	"filevault/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type SpaceResponse struct {
	Kind domain.SpaceKind `json:"kind"`
	ID   string           `json:"id"`
	Role domain.Role      `json:"role"`
}

type MeResponse struct {
	UserID         string          `json:"user_id"`
	Name           string          `json:"name,omitempty"`
	Image          string          `json:"image,omitempty"`
	DefaultSpaceID string          `json:"default_space_id"`
	Spaces         []SpaceResponse `json:"spaces"`
}

type UserHandler struct {
	userService *service.UserService
	logger      zerolog.Logger
}

func NewUserHandler(userService *service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger.With().Str("component", "http").Logger(),
	}
}

func (h *UserHandler) Routes(r chi.Router) {
	r.Get("/me", h.Me)
	r.Get("/users/{id}", h.GetProfile)
}

// Me возвращает пользователя, доступные ему пространства и пространство по умолчанию
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, h.logger, domain.ErrUnauthenticated)
		return
	}

	resp := MeResponse{
		UserID:         identity.UserID,
		Name:           identity.Name,
		Image:          identity.Image,
		DefaultSpaceID: auth.DefaultSpaceID(identity),
		Spaces: []SpaceResponse{
			{Kind: domain.SpaceKindPersonal, ID: identity.UserID, Role: domain.RoleAdmin},
		},
	}
	for _, m := range identity.Memberships {
		resp.Spaces = append(resp.Spaces, SpaceResponse{Kind: domain.SpaceKindOrg, ID: m.OrgID, Role: m.Role})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userService.GetProfile(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
