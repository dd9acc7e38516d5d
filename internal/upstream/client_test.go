package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noobtrump/storefront/pkg/errors"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products":[{"id":1,"title":"iPhone 9","price":549,"discountPercentage":12.96,"category":"smartphones"}],"total":1,"skip":0,"limit":0}`))
	})
	mux.HandleFunc("/products/1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"title":"iPhone 9","price":549,"rating":4.69,"stock":94,"images":["a.jpg","b.jpg"]}`))
	})
	mux.HandleFunc("/products/category/smartphones", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products":[{"id":1,"title":"iPhone 9"}],"total":1}`))
	})
	mux.HandleFunc("/products/categories", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"slug":"smartphones","name":"Smartphones","url":"https://example.test/products/category/smartphones"}]`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchProducts(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL, 0)

	products, err := client.FetchProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "iPhone 9", products[0].Title)
	assert.Equal(t, 549.0, products[0].Price)
}

func TestFetchProduct(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL, 0)

	p, err := client.FetchProduct(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 94, p.Stock)
	assert.Len(t, p.Images, 2)
}

func TestFetchProductNotFound(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL, 0)

	p, err := client.FetchProduct(context.Background(), 12345)
	assert.Nil(t, p)
	assert.True(t, errors.IsProductNotFound(err))
}

func TestFetchCategoryAndCategories(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL, 0)
	ctx := context.Background()

	products, err := client.FetchCategory(ctx, "smartphones")
	require.NoError(t, err)
	assert.Len(t, products, 1)

	categories, err := client.FetchCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "smartphones", categories[0].Slug)
}

func TestServerErrorMapsToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, 0)
	_, err := client.FetchProducts(context.Background())
	assert.True(t, errors.IsUpstreamUnavailable(err))
}

func TestUnreachableUpstreamMapsToUnavailable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 0)
	_, err := client.FetchProducts(context.Background())
	assert.True(t, errors.IsUpstreamUnavailable(err))
}

func TestMalformedBodyMapsToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, 0)
	_, err := client.FetchProducts(context.Background())
	assert.True(t, errors.IsUpstreamUnavailable(err))
}
