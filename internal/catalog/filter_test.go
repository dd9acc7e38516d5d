package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProducts() []Product {
	return []Product{
		{ID: 1, Title: "iPhone 9", Description: "An apple mobile", Category: "smartphones", Price: 549},
		{ID: 2, Title: "iPhone X", Description: "Model A19211", Category: "smartphones", Price: 899},
		{ID: 3, Title: "Samsung Universe 9", Description: "Samsung's new variant", Category: "smartphones", Price: 1249},
		{ID: 4, Title: "MacBook Pro", Description: "MacBook Pro 2021 with mini-LED display", Category: "laptops", Price: 1749},
		{ID: 5, Title: "Perfume Oil", Description: "Mega discount", Category: "fragrances", Price: 13},
	}
}

func TestFilterByCategory(t *testing.T) {
	got := Filter{Category: "laptops"}.Apply(sampleProducts())
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].ID)
}

func TestFilterBySearch(t *testing.T) {
	got := Filter{Search: "iphone"}.Apply(sampleProducts())
	require.Len(t, got, 2)

	// Search also covers descriptions, case-insensitively.
	got = Filter{Search: "MINI-LED"}.Apply(sampleProducts())
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].ID)
}

func TestFilterByPriceBounds(t *testing.T) {
	got := Filter{MinPrice: 500}.Apply(sampleProducts())
	assert.Len(t, got, 4)

	got = Filter{MaxPrice: 900}.Apply(sampleProducts())
	assert.Len(t, got, 3)

	got = Filter{MinPrice: 500, MaxPrice: 900}.Apply(sampleProducts())
	assert.Len(t, got, 2)
}

// TestFilterComposition verifies that applying all criteria at once yields
// the intersection of applying each alone.
func TestFilterComposition(t *testing.T) {
	products := sampleProducts()
	combined := Filter{
		Category: "smartphones",
		Search:   "iphone",
		MinPrice: 600,
		MaxPrice: 1000,
	}

	individual := []Filter{
		{Category: combined.Category},
		{Search: combined.Search},
		{MinPrice: combined.MinPrice},
		{MaxPrice: combined.MaxPrice},
	}

	inIntersection := func(p Product) bool {
		for _, f := range individual {
			if !f.Matches(p) {
				return false
			}
		}
		return true
	}

	got := combined.Apply(products)
	want := make([]Product, 0)
	for _, p := range products {
		if inIntersection(p) {
			want = append(want, p)
		}
	}

	assert.Equal(t, want, got)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ID)
}

func TestZeroFilterReturnsAll(t *testing.T) {
	products := sampleProducts()
	got := Filter{}.Apply(products)
	assert.Len(t, got, len(products))
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	products := sampleProducts()
	_ = Filter{Category: "laptops"}.Apply(products)
	assert.Equal(t, sampleProducts(), products)
}
