// Package core holds the domain model shared by every other package:
// transactions, per-user settings, the category taxonomy, and money
// parsing/formatting helpers.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Money is a monetary value in minor units (paise, cents). All computation
// runs on Cents; floats only appear at the display boundary.
type Money struct {
	Cents int64
}

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third fractional digit.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted.
// Signed and non-positive values are rejected: transaction amounts are
// always positive expense magnitudes.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Guard the *100 below
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// FromCents wraps a cent value in a Money.
func FromCents(cents int64) Money {
	return Money{Cents: cents}
}

// Float returns the major-unit value as a float64 for display purposes.
// Use Cents for arithmetic to avoid floating-point drift.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m - other. Negative results are valid (overspend).
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// MarshalJSON encodes the amount as a bare number of cents.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(m.Cents, 10)), nil
}

// UnmarshalJSON accepts a bare number of cents.
func (m *Money) UnmarshalJSON(data []byte) error {
	cents, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return ErrInvalidAmount
	}
	m.Cents = cents
	return nil
}
