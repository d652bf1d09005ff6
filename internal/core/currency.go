package core

import (
	"fmt"
	"math"
	"strconv"
)

// FormatCurrency renders a Money for display in the given currency.
// Computation never depends on this; it only affects presentation.
//
//	INR -> "Rs 1,23,456.78"  (Indian grouping)
//	USD -> "$1,234.56"
//	EUR -> "1.234,56 €"
func FormatCurrency(m Money, c Currency) string {
	neg := m.Cents < 0
	cents := m.Cents
	if neg {
		cents = -cents
	}
	major := cents / 100
	frac := cents % 100

	var s string
	switch c {
	case CurrencyINR:
		s = fmt.Sprintf("Rs %s.%02d", groupIndian(major), frac)
	case CurrencyEUR:
		s = fmt.Sprintf("%s,%02d €", groupThousands(major, "."), frac)
	default: // USD
		s = fmt.Sprintf("$%s.%02d", groupThousands(major, ","), frac)
	}
	if neg {
		return "-" + s
	}
	return s
}

// FormatCompact renders a rounded short form for tight layouts,
// e.g. "Rs 12k" for 12000.00. The symbol sits where FormatCurrency
// puts it, so EUR trails the number.
func FormatCompact(m Money, c Currency) string {
	v := m.Float()
	var num string
	if math.Abs(v) >= 1000 {
		num = fmt.Sprintf("%dk", int64(math.Round(v/1000)))
	} else {
		num = strconv.FormatInt(int64(math.Round(v)), 10)
	}
	switch c {
	case CurrencyINR:
		return "Rs " + num
	case CurrencyEUR:
		return num + " €"
	default:
		return "$ " + num
	}
}

// groupThousands inserts sep every three digits: 1234567 -> "1,234,567".
func groupThousands(n int64, sep string) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	out := ""
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out += sep
		}
		out += string(r)
	}
	return out
}

// groupIndian applies the Indian numbering system: the last three digits
// form one group, every two digits after that. 1234567 -> "12,34,567".
func groupIndian(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	head := s[:len(s)-3]
	tail := s[len(s)-3:]
	out := ""
	for i, r := range head {
		if i > 0 && (len(head)-i)%2 == 0 {
			out += ","
		}
		out += string(r)
	}
	return out + "," + tail
}
