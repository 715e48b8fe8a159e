package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Response is the uniform envelope returned by every endpoint.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// writeJSON writes an enveloped JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Response{Status: status, Message: message, Data: data}); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, message, nil)
}

// writeServiceError maps a service error to a transport status. Domain errors
// carry their own kind; everything else is an internal failure.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		writeError(w, statusForCode(domainErr.Code), domainErr.Message, logger)
		return
	}

	logger.Error().Err(err).Msg("internal error")
	writeError(w, http.StatusInternalServerError, "internal server error", logger)
}

// statusForCode maps a domain error code to an HTTP status.
func statusForCode(code string) int {
	switch code {
	case model.ErrCodeProductNotFound,
		model.ErrCodeCategoryNotFound,
		model.ErrCodeOrderNotFound,
		model.ErrCodeOrderItemNotFound:
		return http.StatusNotFound
	case model.ErrCodeConflict:
		return http.StatusConflict
	case model.ErrCodeInvalidInput,
		model.ErrCodeInvalidQuantity,
		model.ErrCodeInsufficientStock,
		model.ErrCodeInvalidJSON:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errInvalidParam reports a malformed query parameter.
func errInvalidParam(name string) error {
	return errors.New("invalid " + name + " parameter")
}

// pathID parses the {id} path segment as a UUID. A malformed identifier is a
// client input error, never a not-found.
func pathID(r *http.Request) (uuid.UUID, error) {
	raw := r.PathValue("id")
	if raw == "" {
		return uuid.Nil, errors.New("id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("invalid id format")
	}
	return id, nil
}
