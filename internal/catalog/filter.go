package catalog

import "strings"

// Filter represents the composable filter criteria for the catalog page.
// Each criterion is independent; applying several is the intersection of
// applying each alone. Zero values disable the corresponding criterion.
type Filter struct {
	Category string  `form:"category"`
	Search   string  `form:"q"`
	MinPrice float64 `form:"min_price"`
	MaxPrice float64 `form:"max_price"`
}

// IsZero reports whether no criterion is set.
func (f Filter) IsZero() bool {
	return f.Category == "" && f.Search == "" && f.MinPrice <= 0 && f.MaxPrice <= 0
}

// Apply returns the products matching every set criterion, preserving order.
// The input slice is never mutated.
func (f Filter) Apply(products []Product) []Product {
	if f.IsZero() {
		return products
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Matches reports whether the product passes every set criterion.
func (f Filter) Matches(p Product) bool {
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.Search != "" && !matchesSearch(p, f.Search) {
		return false
	}
	if f.MinPrice > 0 && p.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && p.Price > f.MaxPrice {
		return false
	}
	return true
}

// matchesSearch does a case-insensitive substring match over the product's
// title and description.
func matchesSearch(p Product, q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}
