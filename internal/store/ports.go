// Package store defines the outbound ports for transaction and settings
// persistence, plus the snapshot hub that gives the dashboard its push-based
// refresh model.
package store

import (
	"context"
	"errors"
	"time"

	"paisa/internal/core"
)

// ErrNotFound is returned when a transaction id does not exist for the user.
var ErrNotFound = errors.New("not found")

// Ports for outbound adapters.
type (
	TransactionWriter interface {
		// Create persists the transaction as a single atomic write and
		// returns it with its assigned id.
		Create(ctx context.Context, t core.Transaction) (core.Transaction, error)
	}

	TransactionDeleter interface {
		Delete(ctx context.Context, userID, id string) error
	}

	// TransactionLister returns a user's transactions inside the bounded
	// recent window, ordered by date descending.
	TransactionLister interface {
		ListRecent(ctx context.Context, userID string, now time.Time) ([]core.Transaction, error)
	}

	SettingsReader interface {
		// Get returns the user's settings, creating the default record on
		// first access.
		Get(ctx context.Context, userID string) (core.Settings, error)
	}

	SettingsWriter interface {
		// Update applies a partial patch and returns the merged record.
		Update(ctx context.Context, userID string, patch core.SettingsPatch) (core.Settings, error)
	}
)

// Backend bundles every port a full store implements.
type Backend interface {
	TransactionWriter
	TransactionDeleter
	TransactionLister
	SettingsReader
	SettingsWriter
}

// RecentWindowStart returns the lower bound of the listing window: the
// first instant of the calendar month five months before now's month. That
// covers exactly the six trend buckets the dashboard renders.
func RecentWindowStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()-5, 1, 0, 0, 0, 0, now.Location())
}
