package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"paisa/internal/core"
	"paisa/internal/engine"
	applog "paisa/internal/log"
)

type trendPointJSON struct {
	engine.TrendPoint
	Label             string `json:"label"`
	FormattedSpending string `json:"formattedSpending"`
}

type dashboardResponse struct {
	Balance           engine.Balance               `json:"balance"`
	Budget            engine.BudgetProgress        `json:"budget"`
	MonthlyTrend      []trendPointJSON             `json:"monthlyTrend"`
	CategoryBreakdown map[core.Category]core.Money `json:"categoryBreakdown"`
	Currency          core.Currency                `json:"currency"`
	FormattedBalance  string                       `json:"formattedBalance"`
}

// buildDashboard runs the aggregation engine over a fresh snapshot.
func (s *Server) buildDashboard(ctx context.Context, userID string, now time.Time) (dashboardResponse, error) {
	settings, err := s.store.Get(ctx, userID)
	if err != nil {
		return dashboardResponse{}, fmt.Errorf("load settings: %w", err)
	}
	transactions, err := s.store.ListRecent(ctx, userID, now)
	if err != nil {
		return dashboardResponse{}, fmt.Errorf("list transactions: %w", err)
	}
	return renderDashboard(transactions, settings, now), nil
}

// renderDashboard assembles the response from an in-hand snapshot, so SSE
// pushes can reuse it without a second listing round-trip.
func renderDashboard(transactions []core.Transaction, settings core.Settings, now time.Time) dashboardResponse {
	balance := engine.ComputeBalance(transactions, settings, now)
	budget := engine.ComputeBudgetProgress(transactions, settings, settings.CategoryBudgets, now)

	trend := engine.ComputeMonthlyTrend(transactions, now, engine.DefaultTrendMonths)
	points := make([]trendPointJSON, len(trend))
	for i, p := range trend {
		points[i] = trendPointJSON{
			TrendPoint:        p,
			Label:             p.Label(),
			FormattedSpending: core.FormatCompact(p.Spending, settings.Currency),
		}
	}

	return dashboardResponse{
		Balance:           balance,
		Budget:            budget,
		MonthlyTrend:      points,
		CategoryBreakdown: engine.ComputeCategoryBreakdown(transactions, now),
		Currency:          settings.Currency,
		FormattedBalance:  core.FormatCurrency(balance.Balance, settings.Currency),
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	uid, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if cached, hit := s.dashCache.Get(uid); hit {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	resp, err := s.buildDashboard(r.Context(), uid, time.Now())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard build failed",
			applog.FieldError, err,
			applog.FieldUserID, uid)
		writeError(w, http.StatusInternalServerError, "Could not load the dashboard right now. Please try again.")
		return
	}

	s.dashCache.Set(uid, resp)
	writeJSON(w, http.StatusOK, resp)
}

// handleTransactionStream pushes a dashboard refresh over SSE every time the
// user's snapshot changes. The first event fires immediately so a client
// never renders empty.
func (s *Server) handleTransactionStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	uid, ok := requireUserID(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	updates, cancel := s.hub.Subscribe(uid)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	logger := applog.FromContext(ctx)
	logger.InfoContext(ctx, "Dashboard stream opened", applog.FieldUserID, uid)

	initial, err := s.buildDashboard(ctx, uid, time.Now())
	if err != nil {
		logger.ErrorContext(ctx, "Initial stream snapshot failed", applog.FieldError, err)
		return
	}
	if err := writeSSE(w, flusher, initial); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "Dashboard stream closed", applog.FieldUserID, uid)
			return
		case snapshot, open := <-updates:
			if !open {
				return
			}
			settings, err := s.store.Get(ctx, uid)
			if err != nil {
				logger.ErrorContext(ctx, "Stream settings load failed", applog.FieldError, err)
				continue
			}
			if err := writeSSE(w, flusher, renderDashboard(snapshot, settings, time.Now())); err != nil {
				return
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, resp dashboardResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: dashboard\ndata: %s\n\n", payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// publishSnapshot refreshes subscribers after a write. Failures only log:
// the write itself already succeeded.
func (s *Server) publishSnapshot(ctx context.Context, uid string) {
	s.dashCache.Delete(uid)

	transactions, err := s.store.ListRecent(ctx, uid, time.Now())
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Snapshot refresh failed",
			applog.FieldError, err,
			applog.FieldUserID, uid)
		return
	}
	s.hub.Publish(uid, transactions)
}
