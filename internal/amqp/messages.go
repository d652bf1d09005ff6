package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message kinds carried on the sync queue.
const (
	KindTransactionSync   = "transaction.sync"
	KindTransactionDelete = "transaction.delete"
	KindFeedback          = "feedback"
)

// Envelope wraps every queued message so a single queue can carry
// transaction mirroring and feedback delivery work.
type Envelope struct {
	Kind      string          `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// TransactionSyncMessage is a lightweight pointer to a transaction that
// needs mirroring. The worker fetches the full row from the database.
type TransactionSyncMessage struct {
	UserID        string `json:"userId"`
	TransactionID string `json:"transactionId"`
}

// TransactionDeleteMessage asks the worker to remove a mirrored row.
type TransactionDeleteMessage struct {
	UserID        string `json:"userId"`
	TransactionID string `json:"transactionId"`
}

// FeedbackMessage carries a user-submitted feedback entry for delivery.
type FeedbackMessage struct {
	UserID       string    `json:"userId"`
	FeedbackType string    `json:"feedbackType"`
	Email        string    `json:"email,omitempty"`
	Message      string    `json:"message"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

func newEnvelope(kind string, payload any) (*Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return &Envelope{
		Kind:      kind,
		Timestamp: time.Now(),
		Payload:   body,
	}, nil
}

// ToJSON converts the envelope to JSON bytes.
func (e *Envelope) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EnvelopeFromJSON creates an envelope from JSON bytes.
func EnvelopeFromJSON(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// DecodePayload unmarshals the envelope payload into dst.
func (e *Envelope) DecodePayload(dst any) error {
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Kind, err)
	}
	return nil
}
