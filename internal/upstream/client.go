// Package upstream implements the client for the third-party product REST
// API. The storefront owns no product data; everything is fetched from here.
// JSON in, JSON out; the API contract is not owned by this repository.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/noobtrump/storefront/internal/catalog"
	"github.com/noobtrump/storefront/pkg/errors"
)

const (
	// DefaultBaseURL is the public demo catalog API.
	DefaultBaseURL = "https://dummyjson.com"

	defaultTimeout = 10 * time.Second

	// maxBodyBytes caps upstream response bodies.
	maxBodyBytes = 8 << 20
)

// Client talks to the upstream product API. It implements catalog.Fetcher.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an upstream client. An empty baseURL selects the public
// demo API; a non-positive timeout selects the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchProducts retrieves the full product set.
func (c *Client) FetchProducts(ctx context.Context) ([]catalog.Product, error) {
	// limit=0 asks the upstream for the complete set in one response.
	var list catalog.ProductList
	if err := c.getJSON(ctx, "/products?limit=0", &list); err != nil {
		return nil, err
	}
	return list.Products, nil
}

// FetchProduct retrieves a single product. A missing identifier yields
// errors.ErrProductNotFound.
func (c *Client) FetchProduct(ctx context.Context, id int) (*catalog.Product, error) {
	var p catalog.Product
	if err := c.getJSON(ctx, fmt.Sprintf("/products/%d", id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FetchCategory retrieves the products of one category.
func (c *Client) FetchCategory(ctx context.Context, slug string) ([]catalog.Product, error) {
	var list catalog.ProductList
	if err := c.getJSON(ctx, "/products/category/"+url.PathEscape(slug), &list); err != nil {
		return nil, err
	}
	return list.Products, nil
}

// FetchCategories retrieves the category list.
func (c *Client) FetchCategories(ctx context.Context) ([]catalog.Category, error) {
	var categories []catalog.Category
	if err := c.getJSON(ctx, "/products/categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// getJSON performs a GET against the upstream and decodes the JSON body.
// A 404 maps to ErrProductNotFound; transport errors, server errors, and
// malformed bodies map to ErrUpstreamUnavailable.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.ErrProductNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: upstream returned %s", errors.ErrUpstreamUnavailable, resp.Status)
	}

	body := io.LimitReader(resp.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", errors.ErrUpstreamUnavailable, err)
	}
	return nil
}
