package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"filevault/internal/auth"
	"filevault/internal/domain"
	"filevault/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultMaxUploadSize = 100 * 1024 * 1024 // 100MB

type UploadResponse struct {
	StorageKey string `json:"storage_key"`
}

type CreateFileResponse struct {
	ID uuid.UUID `json:"id"`
}

type ToggleFavoriteResponse struct {
	Favorited bool `json:"favorited"`
}

type FileHandler struct {
	fileService   *service.FileService
	validate      *validator.Validate
	logger        zerolog.Logger
	maxUploadSize int64
}

func NewFileHandler(fileService *service.FileService, maxUploadSize int64, logger zerolog.Logger) *FileHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxUploadSize
	}

	validate := validator.New()
	// В сообщениях об ошибках используем имена полей из JSON
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &FileHandler{
		fileService:   fileService,
		validate:      validate,
		logger:        logger.With().Str("component", "http").Logger(),
		maxUploadSize: maxUploadSize,
	}
}

// Routes регистрирует маршруты файлов
func (h *FileHandler) Routes(r chi.Router) {
	r.Route("/spaces/{spaceID}", func(r chi.Router) {
		r.Post("/uploads", h.Upload)
		r.Post("/files", h.CreateFile)
		r.Get("/files", h.ListFiles)
		r.Get("/favorites", h.ListFavorites)
	})

	r.Route("/files/{id}", func(r chi.Router) {
		r.Get("/", h.GetFile)
		r.Delete("/", h.SoftDelete)
		r.Post("/restore", h.Restore)
		r.Post("/favorite", h.ToggleFavorite)
	})
}

// Upload принимает содержимое файла (multipart, поле "file") и возвращает ключ хранилища
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if err := h.fileService.AuthorizeSpace(identity, chi.URLParam(r, "spaceID"), service.OperationUpload); err != nil {
		writeError(w, h.logger, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: invalid multipart form: %v", domain.ErrInvalidInput, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: file field is required", domain.ErrInvalidInput))
		return
	}
	defer file.Close()

	key, err := h.fileService.Upload(
		r.Context(),
		identity,
		chi.URLParam(r, "spaceID"),
		file,
		header.Size,
		header.Header.Get("Content-Type"),
	)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{StorageKey: key})
}

func (h *FileHandler) CreateFile(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	spaceID := chi.URLParam(r, "spaceID")
	if err := h.fileService.AuthorizeSpace(identity, spaceID, service.OperationCreate); err != nil {
		writeError(w, h.logger, err)
		return
	}

	var input domain.CreateFileInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput))
		return
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Type = domain.FileType(strings.ToLower(strings.TrimSpace(string(input.Type))))
	if err := h.validate.Struct(input); err != nil {
		writeError(w, h.logger, formatValidationError(err))
		return
	}
	input.SpaceID = spaceID

	id, err := h.fileService.CreateFile(r.Context(), identity, input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateFileResponse{ID: id})
}

func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	spaceID := chi.URLParam(r, "spaceID")
	if err := h.fileService.AuthorizeSpace(identity, spaceID, service.OperationList); err != nil {
		writeError(w, h.logger, err)
		return
	}

	filter, err := parseFileFilter(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	files, err := h.fileService.ListFiles(r.Context(), identity, spaceID, filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, files)
}

func (h *FileHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.fileService.ListFavorites(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "spaceID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, favorites)
}

func (h *FileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	id, err := fileIDParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	file, err := h.fileService.GetFile(r.Context(), auth.IdentityFromContext(r.Context()), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, file)
}

func (h *FileHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	id, err := fileIDParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.fileService.SoftDelete(r.Context(), auth.IdentityFromContext(r.Context()), id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *FileHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := fileIDParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.fileService.Restore(r.Context(), auth.IdentityFromContext(r.Context()), id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *FileHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := fileIDParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	favorited, err := h.fileService.ToggleFavorite(r.Context(), auth.IdentityFromContext(r.Context()), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, ToggleFavoriteResponse{Favorited: favorited})
}

// fileIDParam: невалидный id неотличим от несуществующего файла
func fileIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid file id", domain.ErrNotFound)
	}
	return id, nil
}

func parseFileFilter(r *http.Request) (domain.FileFilter, error) {
	q := r.URL.Query()
	filter := domain.FileFilter{Query: q.Get("query")}

	if raw := q.Get("type"); raw != "" {
		fileType, err := domain.ParseFileType(raw)
		if err != nil {
			return filter, err
		}
		filter.Type = &fileType
	}

	var err error
	if filter.FavoritesOnly, err = parseBoolParam(q.Get("favorites")); err != nil {
		return filter, err
	}
	if filter.TrashOnly, err = parseBoolParam(q.Get("trash")); err != nil {
		return filter, err
	}

	return filter, nil
}

func parseBoolParam(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: invalid boolean %q", domain.ErrInvalidInput, raw)
	}
	return v, nil
}
