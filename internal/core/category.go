package core

import "errors"

// Category is the closed spending taxonomy. Every transaction carries
// exactly one; there is no free-form tagging.
type Category string

const (
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryBills         Category = "Bills"
	CategoryShopping      Category = "Shopping"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealth        Category = "Health"
	CategoryOthers        Category = "Others"
)

// ErrUnknownCategory is returned for values outside the taxonomy. Matching
// is exact, "food" is not a category.
var ErrUnknownCategory = errors.New("unknown category")

// categoryOrder fixes the canonical presentation order used everywhere a
// full category list is rendered.
var categoryOrder = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryBills,
	CategoryShopping,
	CategoryEntertainment,
	CategoryHealth,
	CategoryOthers,
}

// Categories returns the taxonomy in canonical order. The slice is a copy,
// callers may mutate it freely.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

func (c Category) IsValid() bool {
	for _, known := range categoryOrder {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory validates raw input against the taxonomy.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", ErrUnknownCategory
	}
	return c, nil
}
