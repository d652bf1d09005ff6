package http

import (
	"net/http"

	"paisa/internal/core"
	applog "paisa/internal/log"
)

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGetSettings(w, r)
	case http.MethodPut:
		s.handleUpdateSettings(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUserID(w, r)
	if !ok {
		return
	}

	settings, err := s.store.Get(r.Context(), uid)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Load settings failed",
			applog.FieldError, err,
			applog.FieldUserID, uid)
		writeError(w, http.StatusInternalServerError, "Could not load settings right now. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var patch core.SettingsPatch
	if err := readJSON(r, &patch); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	updated, err := s.store.Update(r.Context(), uid, patch)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Update settings failed",
			applog.FieldError, err,
			applog.FieldUserID, uid)
		writeError(w, http.StatusInternalServerError, "Could not save settings right now. Please try again.")
		return
	}

	// Budget and currency changes reshape the dashboard
	s.dashCache.Delete(uid)

	writeJSON(w, http.StatusOK, updated)
}
