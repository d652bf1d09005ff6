package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewSubmission(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		fbType  string
		email   string
		message string
		wantErr error
	}{
		{name: "valid", fbType: "General", email: "user@example.com", message: "the dashboard is great"},
		{name: "trims email", fbType: "General", email: "  user@example.com  ", message: "the dashboard is great"},
		{name: "missing type", fbType: "", email: "user@example.com", message: "the dashboard is great", wantErr: ErrMissingType},
		{name: "blank type", fbType: "   ", email: "user@example.com", message: "the dashboard is great", wantErr: ErrMissingType},
		{name: "bad email", fbType: "Bug", email: "not-an-email", message: "the dashboard is great", wantErr: ErrInvalidEmail},
		{name: "short message", fbType: "Bug", email: "user@example.com", message: "too short", wantErr: ErrMessageTooShort},
		{name: "whitespace padding does not count", fbType: "Bug", email: "user@example.com", message: "   hi   ", wantErr: ErrMessageTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := NewSubmission("user-1", tt.fbType, tt.email, tt.message, now)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewSubmission error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSubmission: %v", err)
			}
			if sub.Email != "user@example.com" {
				t.Errorf("email = %q, want trimmed address", sub.Email)
			}
			if !sub.SubmittedAt.Equal(now) {
				t.Errorf("submittedAt = %v, want %v", sub.SubmittedAt, now)
			}
		})
	}
}

func TestNewSubmissionWithoutEmail(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	sub, err := NewSubmission("user-1", "Feature Request", "", "this message is definitely long enough", now)
	if err != nil {
		t.Fatalf("anonymous submission rejected: %v", err)
	}
	if sub.Email != "" {
		t.Errorf("email = %q, want empty", sub.Email)
	}
	if sub.Type != "Feature Request" {
		t.Errorf("type = %q, want Feature Request", sub.Type)
	}
}

func TestWebhookSenderPostsJSON(t *testing.T) {
	var got Submission
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sub, err := NewSubmission("user-1", "General", "user@example.com", "works well on mobile too", time.Now())
	if err != nil {
		t.Fatalf("NewSubmission: %v", err)
	}

	if err := NewWebhookSender(srv.URL).Send(context.Background(), sub); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.UserID != "user-1" || got.Email != "user@example.com" {
		t.Errorf("webhook payload = %+v", got)
	}
}

func TestWebhookSenderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	sub, _ := NewSubmission("user-1", "Bug", "user@example.com", "something long enough", time.Now())
	if err := NewWebhookSender(srv.URL).Send(context.Background(), sub); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestWebhookSenderUnconfiguredSimulatesSuccess(t *testing.T) {
	sub, _ := NewSubmission("user-1", "General", "user@example.com", "something long enough", time.Now())
	if err := NewWebhookSender("").Send(context.Background(), sub); err != nil {
		t.Fatalf("Send with empty URL: %v", err)
	}
}
