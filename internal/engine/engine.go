// Package engine computes every derived dashboard metric from a snapshot of
// transactions and settings. All functions are pure: the reference instant
// is an explicit parameter, inputs are never mutated, and identical inputs
// produce identical results, so concurrent callers need no coordination.
package engine

import (
	"time"

	"paisa/internal/core"
)

// DefaultTrendMonths is the trend window shown on the dashboard chart.
const DefaultTrendMonths = 6

// Balance is the headline money summary for the current calendar month.
type Balance struct {
	Income   core.Money `json:"income"`
	Expenses core.Money `json:"expenses"`
	Balance  core.Money `json:"balance"`
	// PercentChange compares this month's expenses to last month's, at full
	// precision. Display rounding is the caller's concern.
	PercentChange float64 `json:"percentChangeFromLastMonth"`
}

// CategoryProgress is one row of the per-category budget table.
type CategoryProgress struct {
	Name            core.Category `json:"name"`
	Spent           core.Money    `json:"spent"`
	Budget          core.Money    `json:"budget"`
	ProgressPercent float64       `json:"progressPercent"`
}

// BudgetProgress is the monthly budget summary plus one entry per category
// in canonical order. ProgressPercent is never clamped: overspend must stay
// visible.
type BudgetProgress struct {
	TotalSpent      core.Money         `json:"totalSpent"`
	Budget          core.Money         `json:"budget"`
	Remaining       core.Money         `json:"remaining"`
	ProgressPercent float64            `json:"progressPercent"`
	PerCategory     []CategoryProgress `json:"perCategory"`
}

// TrendPoint is one calendar-month bucket of the spending trend.
type TrendPoint struct {
	Year     int        `json:"year"`
	Month    time.Month `json:"month"`
	Spending core.Money `json:"spending"`
}

// Label returns the short English month name ("Jan"). Richer locale
// handling belongs to the caller; Year+Month are the canonical identifier.
func (p TrendPoint) Label() string {
	return p.Month.String()[:3]
}

// sameMonth reports whether date falls in the calendar month holding ref,
// evaluated in ref's location.
func sameMonth(date, ref time.Time) bool {
	d := date.In(ref.Location())
	return d.Year() == ref.Year() && d.Month() == ref.Month()
}

// monthStart returns the first instant of the calendar month n months
// before (or after, for negative n) the month containing ref.
func monthStart(ref time.Time, n int) time.Time {
	return time.Date(ref.Year(), ref.Month()-time.Month(n), 1, 0, 0, 0, 0, ref.Location())
}

func sumMonth(transactions []core.Transaction, ref time.Time) core.Money {
	var total core.Money
	for _, t := range transactions {
		if sameMonth(t.Date, ref) {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// ComputeBalance derives income, current-month expenses, remaining balance
// and the percent change against the previous calendar month.
//
// When last month had no expenses the change is 100 if anything was spent
// this month and 0 otherwise, so a fresh account never divides by zero.
func ComputeBalance(transactions []core.Transaction, settings core.Settings, now time.Time) Balance {
	expenses := sumMonth(transactions, now)
	lastMonth := sumMonth(transactions, monthStart(now, 1))

	var change float64
	switch {
	case lastMonth.IsZero() && expenses.IsZero():
		change = 0
	case lastMonth.IsZero():
		change = 100
	default:
		change = float64(expenses.Cents-lastMonth.Cents) / float64(lastMonth.Cents) * 100
	}

	return Balance{
		Income:        settings.Income,
		Expenses:      expenses,
		Balance:       settings.Income.Sub(expenses),
		PercentChange: change,
	}
}

// ComputeBudgetProgress derives current-month spend against the overall
// monthly budget and the per-category ceilings. Every category in the fixed
// enumeration gets an entry, zero-spend included; callers may truncate for
// display but never the engine.
func ComputeBudgetProgress(transactions []core.Transaction, settings core.Settings, categoryBudgets map[core.Category]core.Money, now time.Time) BudgetProgress {
	spentByCategory := ComputeCategoryBreakdown(transactions, now)

	var total core.Money
	for _, amount := range spentByCategory {
		total = total.Add(amount)
	}

	budget := settings.MonthlyBudget
	var progress float64
	if budget.Cents > 0 {
		progress = float64(total.Cents) / float64(budget.Cents) * 100
	}

	perCategory := make([]CategoryProgress, 0, len(core.Categories()))
	for _, cat := range core.Categories() {
		spent := spentByCategory[cat]
		catBudget := categoryBudgets[cat]
		var catProgress float64
		if catBudget.Cents > 0 {
			catProgress = float64(spent.Cents) / float64(catBudget.Cents) * 100
		}
		perCategory = append(perCategory, CategoryProgress{
			Name:            cat,
			Spent:           spent,
			Budget:          catBudget,
			ProgressPercent: catProgress,
		})
	}

	return BudgetProgress{
		TotalSpent:      total,
		Budget:          budget,
		Remaining:       budget.Sub(total),
		ProgressPercent: progress,
		PerCategory:     perCategory,
	}
}

// ComputeMonthlyTrend buckets spending by calendar month for the monthCount
// months ending with now's month, oldest first. Buckets are calendar months
// regardless of how far into the current month now is; monthCount <= 0
// falls back to DefaultTrendMonths.
func ComputeMonthlyTrend(transactions []core.Transaction, now time.Time, monthCount int) []TrendPoint {
	if monthCount <= 0 {
		monthCount = DefaultTrendMonths
	}
	points := make([]TrendPoint, 0, monthCount)
	for i := monthCount - 1; i >= 0; i-- {
		bucket := monthStart(now, i)
		points = append(points, TrendPoint{
			Year:     bucket.Year(),
			Month:    bucket.Month(),
			Spending: sumMonth(transactions, bucket),
		})
	}
	return points
}

// ComputeCategoryBreakdown sums current-month spending per category.
// Categories with no current-month transactions are absent from the map,
// unlike ComputeBudgetProgress which always lists all of them.
func ComputeCategoryBreakdown(transactions []core.Transaction, now time.Time) map[core.Category]core.Money {
	breakdown := make(map[core.Category]core.Money)
	for _, t := range transactions {
		if sameMonth(t.Date, now) {
			breakdown[t.Category] = breakdown[t.Category].Add(t.Amount)
		}
	}
	return breakdown
}
