// Package storage is the SQLite persistence backend. Transaction writes are
// single-row atomic inserts; settings live one row per user with the
// composite fields (category budgets, notification flags) JSON-encoded.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"paisa/internal/core"
	"paisa/internal/store"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ store.Backend = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Create implements store.TransactionWriter.
func (r *SQLiteRepository) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, merchant, amount_cents, category, date_unix_ns)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Merchant, t.Amount.Cents, string(t.Category), t.Date.UnixNano())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"user_id", t.UserID,
		"merchant", t.Merchant,
		"amount_cents", t.Amount.Cents,
		"category", t.Category)

	return t, nil
}

// Delete implements store.TransactionDeleter.
func (r *SQLiteRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListRecent implements store.TransactionLister. Results are bounded to the
// trailing six-month window and ordered newest first.
func (r *SQLiteRepository) ListRecent(ctx context.Context, userID string, now time.Time) ([]core.Transaction, error) {
	cutoff := store.RecentWindowStart(now)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, merchant, amount_cents, category, date_unix_ns
		FROM transactions
		WHERE user_id = ? AND date_unix_ns >= ?
		ORDER BY date_unix_ns DESC`,
		userID, cutoff.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t        core.Transaction
			cents    int64
			category string
			dateNS   int64
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Merchant, &cents, &category, &dateNS); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Amount = core.Money{Cents: cents}
		t.Category = core.Category(category)
		t.Date = time.Unix(0, dateNS).UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// Get implements store.SettingsReader, inserting the default record on
// first access.
func (r *SQLiteRepository) Get(ctx context.Context, userID string) (core.Settings, error) {
	settings, err := r.readSettings(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return core.Settings{}, err
	}

	defaults := core.DefaultSettings()
	if err := r.writeSettings(ctx, userID, defaults, true); err != nil {
		return core.Settings{}, err
	}
	slog.InfoContext(ctx, "Created default settings", "user_id", userID)
	return defaults, nil
}

// Update implements store.SettingsWriter.
func (r *SQLiteRepository) Update(ctx context.Context, userID string, patch core.SettingsPatch) (core.Settings, error) {
	current, err := r.Get(ctx, userID)
	if err != nil {
		return core.Settings{}, err
	}
	merged := patch.Apply(current)
	if err := merged.Validate(); err != nil {
		return core.Settings{}, err
	}
	if err := r.writeSettings(ctx, userID, merged, false); err != nil {
		return core.Settings{}, err
	}
	return merged, nil
}

func (r *SQLiteRepository) readSettings(ctx context.Context, userID string) (core.Settings, error) {
	var (
		s           core.Settings
		incomeCents int64
		currency    string
		budgetCents int64
		budgetsJSON string
		notifyJSON  string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT income_cents, currency, monthly_budget_cents, category_budgets, notifications
		FROM user_settings WHERE user_id = ?`, userID).
		Scan(&incomeCents, &currency, &budgetCents, &budgetsJSON, &notifyJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Settings{}, err
		}
		return core.Settings{}, fmt.Errorf("query settings: %w", err)
	}

	s.Income = core.Money{Cents: incomeCents}
	s.Currency = core.Currency(currency)
	s.MonthlyBudget = core.Money{Cents: budgetCents}
	if err := json.Unmarshal([]byte(budgetsJSON), &s.CategoryBudgets); err != nil {
		return core.Settings{}, fmt.Errorf("decode category budgets: %w", err)
	}
	if err := json.Unmarshal([]byte(notifyJSON), &s.Notifications); err != nil {
		return core.Settings{}, fmt.Errorf("decode notifications: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) writeSettings(ctx context.Context, userID string, s core.Settings, firstAccess bool) error {
	budgetsJSON, err := json.Marshal(s.CategoryBudgets)
	if err != nil {
		return fmt.Errorf("encode category budgets: %w", err)
	}
	notifyJSON, err := json.Marshal(s.Notifications)
	if err != nil {
		return fmt.Errorf("encode notifications: %w", err)
	}

	query := `
		INSERT INTO user_settings (user_id, income_cents, currency, monthly_budget_cents, category_budgets, notifications, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET
			income_cents = excluded.income_cents,
			currency = excluded.currency,
			monthly_budget_cents = excluded.monthly_budget_cents,
			category_budgets = excluded.category_budgets,
			notifications = excluded.notifications,
			updated_at = CURRENT_TIMESTAMP`
	if firstAccess {
		// Concurrent first reads must not clobber each other.
		query = `
		INSERT INTO user_settings (user_id, income_cents, currency, monthly_budget_cents, category_budgets, notifications)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`
	}

	if _, err := r.db.ExecContext(ctx, query,
		userID, s.Income.Cents, string(s.Currency), s.MonthlyBudget.Cents,
		string(budgetsJSON), string(notifyJSON)); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// GetTransaction fetches one row by id; used by the sync worker to mirror a
// freshly created transaction.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	var (
		t        core.Transaction
		cents    int64
		category string
		dateNS   int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, merchant, amount_cents, category, date_unix_ns
		FROM transactions WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&t.ID, &t.UserID, &t.Merchant, &cents, &category, &dateNS)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("query transaction: %w", err)
	}
	t.Amount = core.Money{Cents: cents}
	t.Category = core.Category(category)
	t.Date = time.Unix(0, dateNS).UTC()
	return t, nil
}
