package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/fjod/go_cart/shop-service/internal/domain"
)

type ErrorResponse struct {
	Status string   `json:"status"`
	Error  string   `json:"error"`
	Code   string   `json:"code,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string, details ...string) {
	respondJSON(w, status, ErrorResponse{
		Status: "Failed",
		Error:  message,
		Code:   code,
		Errors: details,
	})
}

func respondDeleted(w http.ResponseWriter, what string) {
	respondJSON(w, http.StatusOK, MessageResponse{Status: "Success", Message: what + " deleted successfully"})
}

// handleError maps domain error kinds to HTTP statuses. Unknown errors are
// logged and answered with a generic 500.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, "invalid_argument", verr.Error(), verr.Messages...)
	case errors.Is(err, domain.ErrValidation):
		respondError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		respondError(w, http.StatusForbidden, "permission_denied", "access denied")
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrConflict):
		respondError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, domain.ErrUnavailable):
		slog.WarnContext(r.Context(), "dependency unavailable", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusServiceUnavailable, "unavailable", "service temporarily unavailable")
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// decodeJSON reads a single JSON object into dst. Unknown fields are rejected.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.NewValidationError(fmt.Sprintf("request body must not exceed %d bytes", maxErr.Limit))
		}
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("request body is required")
		}
		return domain.NewValidationError("invalid JSON body: " + err.Error())
	}
	return nil
}
