package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"filevault/internal/service/s3"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ObjectReader реализуется s3.MemoryStorage
type ObjectReader interface {
	GetObject(ctx context.Context, key string) ([]byte, string, error)
}

// BlobHandler отдает содержимое файлов из хранилища в памяти, чтобы ссылки
// из листинга работали при локальном запуске
type BlobHandler struct {
	objects ObjectReader
	logger  zerolog.Logger
}

func NewBlobHandler(objects ObjectReader, logger zerolog.Logger) *BlobHandler {
	return &BlobHandler{objects: objects, logger: logger}
}

func (h *BlobHandler) ServeBlob(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")

	data, contentType, err := h.objects.GetObject(r.Context(), key)
	if err != nil {
		if errors.Is(err, s3.ErrObjectNotFound) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("key", key).Msg("failed to read object")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
