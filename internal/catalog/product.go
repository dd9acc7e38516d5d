// Package catalog holds the storefront's domain model and the presentational
// logic applied to products fetched from the upstream API. Products are
// external read-only records: they are fetched, rendered, and discarded, and
// derived values such as the pre-discount price are computed at render time.
package catalog

import "math"

// Product is the external product record as served by the upstream API.
type Product struct {
	ID                 int      `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Category           string   `json:"category"`
	Brand              string   `json:"brand"`
	Price              float64  `json:"price"`
	DiscountPercentage float64  `json:"discountPercentage"`
	Rating             float64  `json:"rating"`
	Stock              int      `json:"stock"`
	Thumbnail          string   `json:"thumbnail"`
	Images             []string `json:"images"`
}

// Category is a product category as listed by the upstream API.
type Category struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ProductList is the upstream envelope for product collections.
type ProductList struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Skip     int       `json:"skip"`
	Limit    int       `json:"limit"`
}

// HasDiscount reports whether a pre-discount price should be displayed.
// Discounts of 100% or more have no finite pre-discount price and are
// treated as undiscounted.
func (p Product) HasDiscount() bool {
	return p.DiscountPercentage > 0 && p.DiscountPercentage < 100
}

// OriginalPrice derives the pre-discount price from the discounted price:
// original = price / (1 - discount/100). For an undiscounted product it is
// the price itself.
func (p Product) OriginalPrice() float64 {
	if !p.HasDiscount() {
		return p.Price
	}
	return roundCents(p.Price / (1 - p.DiscountPercentage/100))
}

// Savings is the absolute amount saved against the pre-discount price.
// Zero for an undiscounted product.
func (p Product) Savings() float64 {
	if !p.HasDiscount() {
		return 0
	}
	return roundCents(p.OriginalPrice() - p.Price)
}

// InStock reports whether the product can currently be bought.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// roundCents 四舍五入到分。
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
