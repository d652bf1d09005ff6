package core

import (
	"errors"
	"strings"
	"time"
)

// Currency selects display formatting only; all computation is
// currency-agnostic.
type Currency string

const (
	CurrencyINR Currency = "INR"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyMerchant   = errors.New("empty merchant")
	ErrMerchantTooLong = errors.New("merchant too long (max 200 characters)")
	ErrZeroDate        = errors.New("date cannot be zero")
	ErrInvalidCurrency = errors.New("invalid currency")
)

// Transaction is a single recorded expense. Immutable once created; the
// only lifecycle operation after creation is deletion.
type Transaction struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	Merchant string    `json:"merchant"`
	Amount   Money     `json:"amount"`
	Category Category  `json:"category"`
	Date     time.Time `json:"date"`
}

// NotificationPrefs are pass-through alert toggles; nothing in this module
// computes them, they only ride along on Settings.
type NotificationPrefs struct {
	Overspending   bool `json:"overspending"`
	BillReminders  bool `json:"billReminders"`
	IncomeDeposits bool `json:"incomeDeposits"`
}

// Settings is the per-user configuration record. One per user, created with
// defaults on first access.
type Settings struct {
	Income          Money              `json:"income"`
	Currency        Currency           `json:"currency"`
	MonthlyBudget   Money              `json:"monthlyBudget"`
	CategoryBudgets map[Category]Money `json:"categoryBudgets"`
	Notifications   NotificationPrefs  `json:"notifications"`
}

// DefaultSettings returns the record created for a new user: no income,
// INR, a 50000.00 monthly budget, overspending and bill reminders on.
func DefaultSettings() Settings {
	return Settings{
		Income:          Money{},
		Currency:        CurrencyINR,
		MonthlyBudget:   Money{Cents: 50000_00},
		CategoryBudgets: DefaultCategoryBudgets(),
		Notifications: NotificationPrefs{
			Overspending:   true,
			BillReminders:  true,
			IncomeDeposits: false,
		},
	}
}

// DefaultCategoryBudgets is the stock per-category ceiling table. Categories
// absent from the map have no ceiling (budget 0).
func DefaultCategoryBudgets() map[Category]Money {
	return map[Category]Money{
		CategoryFood:      {Cents: 12000_00},
		CategoryShopping:  {Cents: 10000_00},
		CategoryTransport: {Cents: 5000_00},
		CategoryBills:     {Cents: 15000_00},
	}
}

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyINR, CurrencyUSD, CurrencyEUR:
		return true
	}
	return false
}

// Validate rejects malformed transactions before they reach storage or the
// aggregation engine. The engine itself never validates.
func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Merchant)) == 0 {
		return ErrEmptyMerchant
	}
	if len(t.Merchant) > 200 {
		return ErrMerchantTooLong
	}
	if t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if !t.Category.IsValid() {
		return ErrUnknownCategory
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (s Settings) Validate() error {
	if s.Income.Cents < 0 {
		return ErrInvalidAmount
	}
	if s.MonthlyBudget.Cents < 0 {
		return ErrInvalidAmount
	}
	if !s.Currency.IsValid() {
		return ErrInvalidCurrency
	}
	for c, m := range s.CategoryBudgets {
		if !c.IsValid() {
			return ErrUnknownCategory
		}
		if m.Cents < 0 {
			return ErrInvalidAmount
		}
	}
	return nil
}

// SettingsPatch is a partial settings update; nil fields are left untouched.
type SettingsPatch struct {
	Income          *Money             `json:"income,omitempty"`
	Currency        *Currency          `json:"currency,omitempty"`
	MonthlyBudget   *Money             `json:"monthlyBudget,omitempty"`
	CategoryBudgets map[Category]Money `json:"categoryBudgets,omitempty"`
	Notifications   *NotificationPrefs `json:"notifications,omitempty"`
}

// Apply merges the patch into s and returns the result.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.Income != nil {
		s.Income = *p.Income
	}
	if p.Currency != nil {
		s.Currency = *p.Currency
	}
	if p.MonthlyBudget != nil {
		s.MonthlyBudget = *p.MonthlyBudget
	}
	if p.CategoryBudgets != nil {
		s.CategoryBudgets = p.CategoryBudgets
	}
	if p.Notifications != nil {
		s.Notifications = *p.Notifications
	}
	return s
}
