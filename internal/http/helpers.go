package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"paisa/internal/core"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// readJSON decodes the request body into dst, rejecting unknown fields and
// oversized bodies.
func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// userID extracts the caller's user scope. Authentication happens upstream,
// here the header is only required to be present.
func userID(r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get("X-User-ID"))
	return id, id != ""
}

func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
	}
	return id, ok
}

// isValidationError reports whether err comes from input the caller can fix.
func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrEmptyMerchant) ||
		errors.Is(err, core.ErrMerchantTooLong) ||
		errors.Is(err, core.ErrZeroDate) ||
		errors.Is(err, core.ErrInvalidCurrency) ||
		errors.Is(err, core.ErrUnknownCategory)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
