package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"formation/internal/apiclient"
	"formation/internal/enrollment"
	"formation/internal/middleware"
	"formation/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeAndValidate reads a JSON body into dst and validates it. It answers
// the request itself and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps service and upstream errors to a status and a message the
// browser can show as is.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error, action string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, service.ErrLessonNotFound), errors.Is(err, enrollment.ErrNotEnrolled):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, enrollment.ErrEnrollmentClosed):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrStorageDisabled):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case apiclient.IsUpstream(err):
		status := apiclient.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Msgf("Failed to %s", action)
		}
		http.Error(w, apiclient.UserMessage(err), status)
	default:
		logger.Error().Err(err).Msgf("Failed to %s", action)
		http.Error(w, "Failed to "+action+": "+err.Error(), http.StatusInternalServerError)
	}
}

func userIDOrUnauthorized(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
	}
	return userID, ok
}

// pathSegments splits the part of the path after prefix, dropping empty segments.
func pathSegments(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}
