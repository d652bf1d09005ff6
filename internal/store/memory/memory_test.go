package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"paisa/internal/core"
	"paisa/internal/store"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTx(merchant string, cents int64, date time.Time) core.Transaction {
	return core.Transaction{
		UserID:   "u1",
		Merchant: merchant,
		Amount:   core.Money{Cents: cents},
		Category: core.CategoryFood,
		Date:     date,
	}
}

func TestCreateAssignsID(t *testing.T) {
	s := New()
	created, err := s.Create(context.Background(), newTx("Cafe", 450_00, now))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected assigned id")
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	s := New()
	bad := newTx("", 450_00, now)
	if _, err := s.Create(context.Background(), bad); !errors.Is(err, core.ErrEmptyMerchant) {
		t.Fatalf("expected ErrEmptyMerchant, got %v", err)
	}
}

func TestListRecentOrderAndWindow(t *testing.T) {
	s := New()
	ctx := context.Background()

	inWindow1, _ := s.Create(ctx, newTx("A", 100_00, now.AddDate(0, 0, -1)))
	inWindow2, _ := s.Create(ctx, newTx("B", 200_00, now.AddDate(0, -2, 0)))
	if _, err := s.Create(ctx, newTx("Old", 300_00, now.AddDate(0, -8, 0))); err != nil {
		t.Fatalf("create old: %v", err)
	}

	got, err := s.ListRecent(ctx, "u1", now)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("listed %d transactions, want 2 (old one outside window)", len(got))
	}
	if got[0].ID != inWindow1.ID || got[1].ID != inWindow2.ID {
		t.Error("transactions not ordered newest first")
	}
}

func TestDelete(t *testing.T) {
	s := New()
	ctx := context.Background()
	created, _ := s.Create(ctx, newTx("Cafe", 450_00, now))

	if err := s.Delete(ctx, "u1", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "u1", created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}

	got, _ := s.ListRecent(ctx, "u1", now)
	if len(got) != 0 {
		t.Fatalf("expected empty list after delete, got %d", len(got))
	}
}

func TestSettingsDefaultsOnFirstAccess(t *testing.T) {
	s := New()
	got, err := s.Get(context.Background(), "fresh-user")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := core.DefaultSettings()
	if got.Currency != want.Currency || got.MonthlyBudget != want.MonthlyBudget {
		t.Errorf("first access should create defaults, got %+v", got)
	}
}

func TestSettingsUpdate(t *testing.T) {
	s := New()
	ctx := context.Background()

	income := core.Money{Cents: 85000_00}
	updated, err := s.Update(ctx, "u1", core.SettingsPatch{Income: &income})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Income != income {
		t.Errorf("income = %d, want %d", updated.Income.Cents, income.Cents)
	}

	// Persisted
	got, _ := s.Get(ctx, "u1")
	if got.Income != income {
		t.Error("update not persisted")
	}

	// Invalid patch rejected
	bad := core.Currency("GBP")
	if _, err := s.Update(ctx, "u1", core.SettingsPatch{Currency: &bad}); !errors.Is(err, core.ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
}
