package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"bountyhub.org/internal/bounty"
	"bountyhub.org/internal/obs"
)

// errorEnvelope is the uniform error body. Details stays null unless a
// handler has something safe to attach.
type errorEnvelope struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Details any    `json:"details"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, message string) {
	writeErrorDetails(w, r, code, message, nil)
}

func writeErrorDetails(w http.ResponseWriter, r *http.Request, code int, message string, details any) {
	if code >= http.StatusInternalServerError {
		obs.Logger().Error().
			Int("status", code).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("error", message).
			Msg("request failed")
	}
	writeJSON(w, code, errorEnvelope{Status: code, Error: message, Details: details})
}

// decodeJSON parses the request body into dst, rejecting unknown fields and
// oversized bodies.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

// respondServiceError translates domain sentinels for errors no handler
// mapped explicitly. Unexpected failures log and return a generic 500.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, bounty.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, trimSentinel(err.Error()))
	case errors.Is(err, bounty.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, bounty.ErrConflict):
		writeError(w, r, http.StatusConflict, "Email already registered")
	case errors.Is(err, bounty.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Resource not found")
	case errors.Is(err, bounty.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "You do not have permission to perform this action")
	default:
		obs.Logger().Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("unhandled service error")
		writeError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

// trimSentinel drops the "invalid input: " prefix so clients see only the
// human-readable part.
func trimSentinel(msg string) string {
	if rest, ok := strings.CutPrefix(msg, bounty.ErrInvalidInput.Error()+": "); ok {
		return rest
	}
	return msg
}
