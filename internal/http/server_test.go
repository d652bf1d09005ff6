package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"paisa/internal/ai"
	"paisa/internal/amqp"
	"paisa/internal/feedback"
	applog "paisa/internal/log"
	"paisa/internal/store"
	"paisa/internal/store/memory"
)

type fakePublisher struct {
	syncs    []string
	deletes  []string
	feedback []amqp.FeedbackMessage
	err      error
}

func (f *fakePublisher) PublishTransactionSync(ctx context.Context, userID, id string) error {
	if f.err != nil {
		return f.err
	}
	f.syncs = append(f.syncs, id)
	return nil
}

func (f *fakePublisher) PublishTransactionDelete(ctx context.Context, userID, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deletes = append(f.deletes, id)
	return nil
}

func (f *fakePublisher) PublishFeedback(ctx context.Context, msg amqp.FeedbackMessage) error {
	if f.err != nil {
		return f.err
	}
	f.feedback = append(f.feedback, msg)
	return nil
}

type fakeSender struct {
	sent []feedback.Submission
	err  error
}

func (f *fakeSender) Send(ctx context.Context, sub feedback.Submission) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sub)
	return nil
}

type fakeGenerator struct {
	text string
	err  error
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	return f.text, f.err
}

func (f *fakeGenerator) GenerateFromImage(ctx context.Context, prompt, mimeType string, data []byte) (string, error) {
	return f.text, f.err
}

func testLogger() *applog.Logger {
	return applog.New(applog.Config{
		Component: applog.ComponentHTTP,
		Handler:   slog.NewTextHandler(io.Discard, nil),
	})
}

func newTestServer(t *testing.T, mutate func(*Options)) *Server {
	t.Helper()

	opts := Options{
		Store: memory.New(),
		Hub:   store.NewHub(),
	}
	if mutate != nil {
		mutate(&opts)
	}
	srv := NewServer(":0", testLogger(), opts)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func doRequest(srv *Server, method, path, userID string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(srv, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestMissingUserIDHeader(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(srv, http.MethodGet, "/api/dashboard", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if !strings.Contains(resp.Error, "X-User-ID") {
		t.Errorf("error = %q, want mention of X-User-ID", resp.Error)
	}
}

func TestCreateListDeleteTransaction(t *testing.T) {
	pub := &fakePublisher{}
	srv := newTestServer(t, func(o *Options) { o.Publisher = pub })

	rec := doRequest(srv, http.MethodPost, "/api/transactions", "user-1", createTransactionRequest{
		Merchant: "Swiggy",
		Amount:   "450.00",
		Category: "Food",
		Date:     time.Now().Format("2006-01-02"),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}

	var created struct {
		ID     string `json:"id"`
		Amount int64  `json:"amount"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created transaction has no id")
	}
	if created.Amount != 45000 {
		t.Errorf("amount = %d cents, want 45000", created.Amount)
	}
	if len(pub.syncs) != 1 || pub.syncs[0] != created.ID {
		t.Errorf("queued syncs = %v, want [%s]", pub.syncs, created.ID)
	}

	rec = doRequest(srv, http.MethodGet, "/api/transactions", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list length = %d, want 1", len(list))
	}

	// Other users never see it
	rec = doRequest(srv, http.MethodGet, "/api/transactions", "user-2", nil)
	var other []json.RawMessage
	_ = json.Unmarshal(rec.Body.Bytes(), &other)
	if len(other) != 0 {
		t.Errorf("other user's list length = %d, want 0", len(other))
	}

	rec = doRequest(srv, http.MethodDelete, "/api/transactions/"+created.ID, "user-1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if len(pub.deletes) != 1 {
		t.Errorf("queued deletes = %v, want one entry", pub.deletes)
	}

	rec = doRequest(srv, http.MethodDelete, "/api/transactions/"+created.ID, "user-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name string
		req  createTransactionRequest
	}{
		{name: "bad amount", req: createTransactionRequest{Merchant: "X", Amount: "-3", Category: "Food"}},
		{name: "zero amount", req: createTransactionRequest{Merchant: "X", Amount: "0", Category: "Food"}},
		{name: "unknown category", req: createTransactionRequest{Merchant: "X", Amount: "10", Category: "Groceries"}},
		{name: "empty merchant", req: createTransactionRequest{Merchant: "   ", Amount: "10", Category: "Food"}},
		{name: "merchant too long", req: createTransactionRequest{Merchant: strings.Repeat("x", 201), Amount: "10", Category: "Food"}},
		{name: "bad date", req: createTransactionRequest{Merchant: "X", Amount: "10", Category: "Food", Date: "05-03-2025"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(srv, http.MethodPost, "/api/transactions", "user-1", tt.req)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422 (body %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t, nil)

	doRequest(srv, http.MethodPost, "/api/transactions", "user-1", createTransactionRequest{
		Merchant: "Metro card", Amount: "150", Category: "Transport",
	})

	rec := doRequest(srv, http.MethodGet, "/api/dashboard", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Balance struct {
			Expenses int64 `json:"expenses"`
		} `json:"balance"`
		MonthlyTrend      []json.RawMessage `json:"monthlyTrend"`
		CategoryBreakdown map[string]int64  `json:"categoryBreakdown"`
		Currency          string            `json:"currency"`
		FormattedBalance  string            `json:"formattedBalance"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if resp.Balance.Expenses != 15000 {
		t.Errorf("expenses = %d cents, want 15000", resp.Balance.Expenses)
	}
	if len(resp.MonthlyTrend) != 6 {
		t.Errorf("trend length = %d, want 6", len(resp.MonthlyTrend))
	}
	if resp.CategoryBreakdown["Transport"] != 15000 {
		t.Errorf("breakdown[Transport] = %d, want 15000", resp.CategoryBreakdown["Transport"])
	}
	if resp.Currency != "INR" {
		t.Errorf("currency = %q, want INR", resp.Currency)
	}
	if !strings.HasPrefix(resp.FormattedBalance, "Rs") && !strings.HasPrefix(resp.FormattedBalance, "-Rs") {
		t.Errorf("formattedBalance = %q, want rupee formatting", resp.FormattedBalance)
	}
}

func TestDashboardCacheInvalidatedOnWrite(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(srv, http.MethodGet, "/api/dashboard", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", rec.Code)
	}

	doRequest(srv, http.MethodPost, "/api/transactions", "user-1", createTransactionRequest{
		Merchant: "Chemist", Amount: "99.50", Category: "Health",
	})

	rec = doRequest(srv, http.MethodGet, "/api/dashboard", "user-1", nil)
	var resp struct {
		Balance struct {
			Expenses int64 `json:"expenses"`
		} `json:"balance"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if resp.Balance.Expenses != 9950 {
		t.Errorf("expenses = %d cents after write, want 9950", resp.Balance.Expenses)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(srv, http.MethodGet, "/api/settings", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get settings status = %d", rec.Code)
	}
	var settings struct {
		Currency      string `json:"currency"`
		MonthlyBudget int64  `json:"monthlyBudget"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &settings); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if settings.Currency != "INR" || settings.MonthlyBudget != 50000_00 {
		t.Errorf("defaults = %+v", settings)
	}

	rec = doRequest(srv, http.MethodPut, "/api/settings", "user-1", map[string]any{
		"currency":      "USD",
		"monthlyBudget": 200000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("put settings status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(srv, http.MethodGet, "/api/settings", "user-1", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &settings); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if settings.Currency != "USD" || settings.MonthlyBudget != 200000 {
		t.Errorf("updated settings = %+v", settings)
	}
}

func TestSettingsInvalidCurrency(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(srv, http.MethodPut, "/api/settings", "user-1", map[string]any{
		"currency": "GBP",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestSettingsNegativeCategoryBudget(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(srv, http.MethodPut, "/api/settings", "user-1", map[string]any{
		"categoryBudgets": map[string]int64{"Food": -5000},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422, body %s", rec.Code, rec.Body.String())
	}
}

func TestAIEndpointsUnconfigured(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/api/ai/categorize", "/api/ai/scan-receipt", "/api/ai/suggest-budget"} {
		rec := doRequest(srv, http.MethodPost, path, "user-1", map[string]string{})
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want 503", path, rec.Code)
		}
	}
}

func TestCategorizeEndpoint(t *testing.T) {
	gen := &fakeGenerator{text: `{"category":"Food","amount":450.5,"merchant":"Zomato"}`}
	srv := newTestServer(t, func(o *Options) { o.AI = ai.New(gen, ai.DefaultScanTimeout) })

	rec := doRequest(srv, http.MethodPost, "/api/ai/categorize", "user-1", categorizeRequest{
		Text: "Rs 450.50 debited at Zomato",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var extraction struct {
		Category string `json:"category"`
		Amount   *int64 `json:"amount"`
		Merchant string `json:"merchant"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &extraction); err != nil {
		t.Fatalf("decode extraction: %v", err)
	}
	if extraction.Category != "Food" || extraction.Merchant != "Zomato" {
		t.Errorf("extraction = %+v", extraction)
	}
	if extraction.Amount == nil || *extraction.Amount != 45050 {
		t.Errorf("amount = %v, want 45050 cents", extraction.Amount)
	}
}

func TestCategorizeEmptyText(t *testing.T) {
	srv := newTestServer(t, func(o *Options) {
		o.AI = ai.New(&fakeGenerator{text: "{}"}, ai.DefaultScanTimeout)
	})

	rec := doRequest(srv, http.MethodPost, "/api/ai/categorize", "user-1", categorizeRequest{Text: "  "})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestScanReceiptBadDataURI(t *testing.T) {
	srv := newTestServer(t, func(o *Options) {
		o.AI = ai.New(&fakeGenerator{text: "{}"}, ai.DefaultScanTimeout)
	})

	rec := doRequest(srv, http.MethodPost, "/api/ai/scan-receipt", "user-1", scanReceiptRequest{
		PhotoDataURI: "not-a-data-uri",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422, body %s", rec.Code, rec.Body.String())
	}
}

func TestFeedbackQueued(t *testing.T) {
	pub := &fakePublisher{}
	srv := newTestServer(t, func(o *Options) { o.Publisher = pub })

	rec := doRequest(srv, http.MethodPost, "/api/feedback", "user-1", feedbackRequest{
		FeedbackType: "Feature Request",
		Email:        "user@example.com",
		Message:      "would love a dark theme",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(pub.feedback) != 1 || pub.feedback[0].UserID != "user-1" {
		t.Errorf("queued feedback = %+v", pub.feedback)
	}
	if pub.feedback[0].FeedbackType != "Feature Request" {
		t.Errorf("feedback type = %q, want Feature Request", pub.feedback[0].FeedbackType)
	}
}

func TestFeedbackInlineWhenQueueUnavailable(t *testing.T) {
	sender := &fakeSender{}
	srv := newTestServer(t, func(o *Options) { o.Sender = sender })

	rec := doRequest(srv, http.MethodPost, "/api/feedback", "user-1", feedbackRequest{
		FeedbackType: "General",
		Email:        "user@example.com",
		Message:      "would love a dark theme",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(sender.sent) != 1 {
		t.Errorf("sent = %+v, want one submission", sender.sent)
	}
}

func TestFeedbackWithoutEmail(t *testing.T) {
	sender := &fakeSender{}
	srv := newTestServer(t, func(o *Options) { o.Sender = sender })

	rec := doRequest(srv, http.MethodPost, "/api/feedback", "user-1", feedbackRequest{
		FeedbackType: "Bug",
		Message:      "the trend chart flickers on reload",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("anonymous feedback status = %d, want 202, body %s", rec.Code, rec.Body.String())
	}
	if len(sender.sent) != 1 || sender.sent[0].Email != "" {
		t.Errorf("sent = %+v, want one submission without email", sender.sent)
	}
}

func TestFeedbackValidation(t *testing.T) {
	srv := newTestServer(t, func(o *Options) { o.Sender = &fakeSender{} })

	tests := []struct {
		name string
		req  feedbackRequest
	}{
		{name: "missing type", req: feedbackRequest{Email: "user@example.com", Message: "long enough message"}},
		{name: "bad email", req: feedbackRequest{FeedbackType: "Bug", Email: "nope", Message: "long enough message"}},
		{name: "short message", req: feedbackRequest{FeedbackType: "Bug", Email: "user@example.com", Message: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(srv, http.MethodPost, "/api/feedback", "user-1", tt.req)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", rec.Code)
			}
		})
	}
}

func TestDashboardStreamInitialEvent(t *testing.T) {
	srv := newTestServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // handler writes the initial event, then sees the closed context

	req := httptest.NewRequest(http.MethodGet, "/api/transactions/stream", nil).WithContext(ctx)
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q, want text/event-stream", ct)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "event: dashboard\ndata: ") {
		t.Errorf("stream body = %q, want an initial dashboard event", body)
	}
}

func TestRateLimitOnMutatingRequests(t *testing.T) {
	srv := newTestServer(t, func(o *Options) { o.RateLimitPerMinute = 2 })

	var last int
	for i := 0; i < 3; i++ {
		rec := doRequest(srv, http.MethodPost, "/api/feedback", "user-1", feedbackRequest{
			FeedbackType: "General",
			Email:        "user@example.com",
			Message:      "long enough message here",
		})
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third mutating request status = %d, want 429", last)
	}

	// Reads stay unthrottled
	rec := doRequest(srv, http.MethodGet, "/api/dashboard", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("read status = %d, want 200", rec.Code)
	}
}
