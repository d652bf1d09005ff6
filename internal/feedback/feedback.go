package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"
)

const minMessageLen = 10

var (
	ErrMissingType     = errors.New("feedback type is required")
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrMessageTooShort = errors.New("message must be at least 10 characters")
)

// Submission is a validated feedback entry ready for delivery.
type Submission struct {
	UserID      string    `json:"userId"`
	Type        string    `json:"feedbackType"`
	Email       string    `json:"email,omitempty"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// NewSubmission validates the inputs and builds a Submission. The type is
// free-form (Bug, Feature Request, General) but required; the email is
// optional and only validated when present.
func NewSubmission(userID, feedbackType, email, message string, now time.Time) (Submission, error) {
	feedbackType = strings.TrimSpace(feedbackType)
	if feedbackType == "" {
		return Submission{}, ErrMissingType
	}
	email = strings.TrimSpace(email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return Submission{}, ErrInvalidEmail
		}
	}
	if len(strings.TrimSpace(message)) < minMessageLen {
		return Submission{}, ErrMessageTooShort
	}
	return Submission{
		UserID:      userID,
		Type:        feedbackType,
		Email:       email,
		Message:     message,
		SubmittedAt: now,
	}, nil
}

// Sender delivers a feedback submission to its destination.
type Sender interface {
	Send(ctx context.Context, sub Submission) error
}

// WebhookSender posts submissions as JSON to a configured webhook URL.
// With an empty URL delivery is simulated: the submission is logged and
// reported as sent.
type WebhookSender struct {
	url    string
	client *http.Client
}

func NewWebhookSender(url string) *WebhookSender {
	return &WebhookSender{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *WebhookSender) Send(ctx context.Context, sub Submission) error {
	if s.url == "" {
		slog.InfoContext(ctx, "Feedback webhook not configured, simulating delivery",
			"user_id", sub.UserID,
			"feedback_type", sub.Type)
		return nil
	}

	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post feedback webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("feedback webhook returned status %d", resp.StatusCode)
	}

	slog.InfoContext(ctx, "Feedback delivered", "user_id", sub.UserID)
	return nil
}
