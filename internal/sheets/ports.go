package sheets

import (
	"context"

	"paisa/internal/core"
)

// Ports for outbound adapters.
type (
	TransactionWriter interface {
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	TransactionDeleter interface {
		Delete(ctx context.Context, transactionID string) error
	}

	// Mirror combines the operations the sync worker needs.
	Mirror interface {
		TransactionWriter
		TransactionDeleter
	}
)
