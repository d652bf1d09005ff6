package http

import (
	"errors"
	"net/http"
	"strings"

	"paisa/internal/ai"
	applog "paisa/internal/log"
)

type categorizeRequest struct {
	Text string `json:"text"`
}

type scanReceiptRequest struct {
	PhotoDataURI string `json:"photoDataUri"`
}

type suggestBudgetRequest struct {
	SpendingHistory string `json:"spendingHistory"`
	FinancialGoals  string `json:"financialGoals"`
}

func (s *Server) aiReady(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return false
	}
	if s.ai == nil {
		writeError(w, http.StatusServiceUnavailable, "AI features are not configured")
		return false
	}
	return true
}

func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	if !s.aiReady(w, r) {
		return
	}
	uid, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req categorizeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusUnprocessableEntity, "text is required")
		return
	}

	extraction, err := s.ai.CategorizeNotification(r.Context(), req.Text)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Categorization failed",
			applog.FieldError, err,
			applog.FieldUserID, uid)
		writeError(w, http.StatusBadGateway, "Could not categorize the notification right now. Please try again.")
		return
	}

	// Partial extractions are fine, absent fields stay absent.
	writeJSON(w, http.StatusOK, extraction)
}

func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	if !s.aiReady(w, r) {
		return
	}
	uid, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req scanReceiptRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if req.PhotoDataURI == "" {
		writeError(w, http.StatusUnprocessableEntity, "photoDataUri is required")
		return
	}

	details, err := s.ai.ScanReceipt(r.Context(), req.PhotoDataURI)
	if err != nil {
		switch {
		case errors.Is(err, ai.ErrScanTimeout):
			writeError(w, http.StatusGatewayTimeout, "Receipt scan timed out. Please try again.")
		case errors.Is(err, ai.ErrPartialExtraction):
			writeError(w, http.StatusUnprocessableEntity, "Could not read every field from the receipt. Please enter it manually.")
		case errors.Is(err, ai.ErrInvalidDataURI):
			writeError(w, http.StatusUnprocessableEntity, "photoDataUri must be a base64 data URI")
		default:
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Receipt scan failed",
				applog.FieldError, err,
				applog.FieldUserID, uid)
			writeError(w, http.StatusBadGateway, "Could not scan the receipt right now. Please try again.")
		}
		return
	}

	writeJSON(w, http.StatusOK, details)
}

func (s *Server) handleSuggestBudget(w http.ResponseWriter, r *http.Request) {
	if !s.aiReady(w, r) {
		return
	}
	uid, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req suggestBudgetRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
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

	advice, err := s.ai.SuggestBudget(r.Context(), settings.Income, req.SpendingHistory, req.FinancialGoals)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Budget advice failed",
			applog.FieldError, err,
			applog.FieldUserID, uid)
		writeError(w, http.StatusBadGateway, "Could not generate budget advice right now. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, advice)
}
