package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"filevault/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeError переводит ошибки сервисов в HTTP-статусы.
// Сообщения различают "нет прав" и "уже в этом состоянии".
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status, message := http.StatusInternalServerError, "Internal server error"

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		status, message = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		status, message = http.StatusForbidden, "Not allowed"
	case errors.Is(err, domain.ErrNotFound):
		status, message = http.StatusNotFound, "Not found"
	case errors.Is(err, domain.ErrInvalidState):
		status, message = http.StatusConflict, "Already in that state"
	case errors.Is(err, domain.ErrConflict):
		status, message = http.StatusConflict, "Conflict"
	case errors.Is(err, domain.ErrInvalidInput):
		status, message = http.StatusBadRequest, err.Error()
	default:
		logger.Error().Err(err).Msg("request failed")
	}

	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// formatValidationError собирает ошибки validator в одно сообщение
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of [%s]", e.Field(), e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}

	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(messages, "; "))
}
