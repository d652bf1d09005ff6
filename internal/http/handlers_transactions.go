package http

import (
	"errors"
	"net/http"
	"time"

	"paisa/internal/core"
	applog "paisa/internal/log"
	"paisa/internal/store"
)

type createTransactionRequest struct {
	Merchant string `json:"merchant"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date,omitempty"`
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListTransactions(w, r)
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUserID(w, r)
	if !ok {
		return
	}

	transactions, err := s.store.ListRecent(r.Context(), uid, time.Now())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "List transactions failed",
			applog.FieldError, err,
			applog.FieldUserID, uid)
		writeError(w, http.StatusInternalServerError, "Could not load transactions right now. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createTransactionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	category, err := core.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "unknown category")
		return
	}

	date := time.Now()
	if req.Date != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid date, expected YYYY-MM-DD")
			return
		}
	}

	tx := core.Transaction{
		UserID:   uid,
		Merchant: sanitizeInput(req.Merchant),
		Amount:   core.FromCents(cents),
		Category: category,
		Date:     date,
	}

	created, err := s.store.Create(r.Context(), tx)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Create transaction failed",
			applog.FieldError, err,
			applog.FieldUserID, uid,
			applog.FieldMerchant, tx.Merchant,
			applog.FieldAmountCents, tx.Amount.Cents)
		writeError(w, http.StatusInternalServerError, "Could not save the transaction right now. Please try again.")
		return
	}

	s.publishSnapshot(r.Context(), uid)
	s.queueSync(r, uid, created.ID)

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, http.MethodDelete)
		return
	}
	uid, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	if err := s.store.Delete(r.Context(), uid, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Delete transaction failed",
			applog.FieldError, err,
			applog.FieldUserID, uid,
			applog.FieldTransactionID, id)
		writeError(w, http.StatusInternalServerError, "Could not delete the transaction right now. Please try again.")
		return
	}

	s.publishSnapshot(r.Context(), uid)
	s.queueDelete(r, uid, id)

	w.WriteHeader(http.StatusNoContent)
}

// queueSync enqueues mirroring work. Queue trouble never fails the write.
func (s *Server) queueSync(r *http.Request, uid, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionSync(r.Context(), uid, id); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Failed to queue transaction sync",
			applog.FieldError, err,
			applog.FieldTransactionID, id)
	}
}

func (s *Server) queueDelete(r *http.Request, uid, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionDelete(r.Context(), uid, id); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Failed to queue transaction delete",
			applog.FieldError, err,
			applog.FieldTransactionID, id)
	}
}
