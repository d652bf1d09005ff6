package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"paisa/internal/amqp"
	"paisa/internal/core"
	"paisa/internal/feedback"
	"paisa/internal/sheets"
	"paisa/internal/store"
)

// TransactionGetter fetches a single transaction for mirroring.
type TransactionGetter interface {
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
}

// SyncWorker consumes queue envelopes: it mirrors transactions to the
// spreadsheet and delivers queued feedback.
type SyncWorker struct {
	store  TransactionGetter
	mirror sheets.Mirror
	sender feedback.Sender
}

func NewSyncWorker(store TransactionGetter, mirror sheets.Mirror, sender feedback.Sender) *SyncWorker {
	return &SyncWorker{
		store:  store,
		mirror: mirror,
		sender: sender,
	}
}

// Handle dispatches one envelope. Unknown kinds are logged and dropped so
// a bad message cannot wedge the queue.
func (w *SyncWorker) Handle(ctx context.Context, env *amqp.Envelope) error {
	switch env.Kind {
	case amqp.KindTransactionSync:
		var msg amqp.TransactionSyncMessage
		if err := env.DecodePayload(&msg); err != nil {
			return err
		}
		return w.handleSync(ctx, msg)
	case amqp.KindTransactionDelete:
		var msg amqp.TransactionDeleteMessage
		if err := env.DecodePayload(&msg); err != nil {
			return err
		}
		return w.handleDelete(ctx, msg)
	case amqp.KindFeedback:
		var msg amqp.FeedbackMessage
		if err := env.DecodePayload(&msg); err != nil {
			return err
		}
		return w.handleFeedback(ctx, msg)
	default:
		slog.WarnContext(ctx, "Dropping message of unknown kind", "kind", env.Kind)
		return nil
	}
}

func (w *SyncWorker) handleSync(ctx context.Context, msg amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"user_id", msg.UserID,
		"transaction_id", msg.TransactionID)

	tx, err := w.store.GetTransaction(ctx, msg.UserID, msg.TransactionID)
	if err != nil {
		// Deleted before we got to it: mirroring would resurrect the row.
		if errors.Is(err, store.ErrNotFound) {
			slog.InfoContext(ctx, "Transaction gone, skipping mirror",
				"transaction_id", msg.TransactionID)
			return nil
		}
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if w.mirror == nil {
		slog.WarnContext(ctx, "No mirror configured, skipping sync",
			"transaction_id", msg.TransactionID)
		return nil
	}

	ref, err := w.mirror.Append(ctx, tx)
	if err != nil {
		return fmt.Errorf("mirror transaction: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored transaction",
		"transaction_id", tx.ID,
		"row_ref", ref)
	return nil
}

func (w *SyncWorker) handleDelete(ctx context.Context, msg amqp.TransactionDeleteMessage) error {
	slog.InfoContext(ctx, "Processing delete message",
		"user_id", msg.UserID,
		"transaction_id", msg.TransactionID)

	if w.mirror == nil {
		slog.WarnContext(ctx, "No mirror configured, skipping deletion",
			"transaction_id", msg.TransactionID)
		return nil
	}

	if err := w.mirror.Delete(ctx, msg.TransactionID); err != nil {
		return fmt.Errorf("delete mirrored transaction: %w", err)
	}
	return nil
}

func (w *SyncWorker) handleFeedback(ctx context.Context, msg amqp.FeedbackMessage) error {
	if w.sender == nil {
		slog.WarnContext(ctx, "No feedback sender configured, dropping submission",
			"user_id", msg.UserID)
		return nil
	}

	sub := feedback.Submission{
		UserID:      msg.UserID,
		Type:        msg.FeedbackType,
		Email:       msg.Email,
		Message:     msg.Message,
		SubmittedAt: msg.SubmittedAt,
	}
	if err := w.sender.Send(ctx, sub); err != nil {
		return fmt.Errorf("deliver feedback: %w", err)
	}
	return nil
}
