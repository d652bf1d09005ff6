// Package memory is the in-process store backend used by tests and as the
// default when no database is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"paisa/internal/core"
	"paisa/internal/store"
)

type Store struct {
	mu       sync.Mutex
	txns     map[string][]core.Transaction // by user
	settings map[string]core.Settings
}

var _ store.Backend = (*Store)(nil)

func New() *Store {
	return &Store{
		txns:     make(map[string][]core.Transaction),
		settings: make(map[string]core.Settings),
	}
}

// Create validates and stores the transaction, assigning a fresh id.
func (s *Store) Create(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txns[t.UserID] = append(s.txns[t.UserID], t)
	return t, nil
}

func (s *Store) Delete(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.txns[userID]
	for i, t := range list {
		if t.ID == id {
			s.txns[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// ListRecent returns the user's transactions inside the recent window,
// newest first. The result is a copy.
func (s *Store) ListRecent(_ context.Context, userID string, now time.Time) ([]core.Transaction, error) {
	cutoff := store.RecentWindowStart(now)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Transaction, 0, len(s.txns[userID]))
	for _, t := range s.txns[userID] {
		if !t.Date.Before(cutoff) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// Get returns the user's settings, materializing defaults on first access.
func (s *Store) Get(_ context.Context, userID string) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg, ok := s.settings[userID]; ok {
		return cfg, nil
	}
	cfg := core.DefaultSettings()
	s.settings[userID] = cfg
	return cfg, nil
}

func (s *Store) Update(ctx context.Context, userID string, patch core.SettingsPatch) (core.Settings, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return core.Settings{}, err
	}
	merged := patch.Apply(current)
	if err := merged.Validate(); err != nil {
		return core.Settings{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[userID] = merged
	return merged, nil
}
