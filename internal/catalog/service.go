package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/noobtrump/storefront/pkg/cache"
	"github.com/noobtrump/storefront/pkg/errors"
	"github.com/noobtrump/storefront/pkg/loader"
)

// Invalidation tags and cache key prefixes. A product detail entry carries
// both the collection tag and its own per-product tag.
const (
	TagProducts   = "products"
	TagCategories = "categories"

	keyProducts   = "products:all"
	keyCategories = "categories:all"

	PathProducts   = "/products"
	PathCategories = "/categories"
)

// ProductTag returns the invalidation tag for a single product.
func ProductTag(id int) string {
	return fmt.Sprintf("product:%d", id)
}

func productKey(id int) string {
	return fmt.Sprintf("products:id:%d", id)
}

func categoryKey(slug string) string {
	return "products:category:" + slug
}

// Fetcher retrieves catalog data from the upstream product API.
// The upstream client implements it; tests substitute their own.
type Fetcher interface {
	FetchProducts(ctx context.Context) ([]Product, error)
	FetchProduct(ctx context.Context, id int) (*Product, error)
	FetchCategory(ctx context.Context, slug string) ([]Product, error)
	FetchCategories(ctx context.Context) ([]Category, error)
}

// Lifetimes declares the per-fetch cache lifecycles the pages rely on.
// Category listings change rarely and get a longer lifecycle than products.
type Lifetimes struct {
	Products   cache.Lifetime
	Product    cache.Lifetime
	Categories cache.Lifetime
}

// DefaultLifetimes returns the lifecycles used when the configuration
// declares none.
func DefaultLifetimes() Lifetimes {
	return Lifetimes{
		Products:   cache.Lifetime{Stale: 30 * time.Second, Revalidate: time.Minute, Expire: 5 * time.Minute},
		Product:    cache.Lifetime{Stale: time.Minute, Revalidate: 2 * time.Minute, Expire: 10 * time.Minute},
		Categories: cache.Lifetime{Stale: 5 * time.Minute, Revalidate: 30 * time.Minute, Expire: time.Hour},
	}
}

// Service is the storefront's catalog service. It reads through the
// freshness cache into the upstream API and degrades upstream failures to
// empty results so the rendering layer never observes a raw network error.
type Service struct {
	cache     *cache.Cache
	fetcher   Fetcher
	lifetimes Lifetimes
	logger    *slog.Logger
}

// NewService creates a catalog service.
func NewService(c *cache.Cache, fetcher Fetcher, lifetimes Lifetimes, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cache:     c,
		fetcher:   fetcher,
		lifetimes: lifetimes,
		logger:    logger,
	}
}

// Products returns the full product set. Upstream failures degrade to an
// empty slice.
func (s *Service) Products(ctx context.Context) []Product {
	ld := loader.NewWithDirectives(loader.Directives{
		Stale:      s.lifetimes.Products.Stale,
		Revalidate: s.lifetimes.Products.Revalidate,
		Expire:     s.lifetimes.Products.Expire,
		Tags:       []string{TagProducts},
		Path:       PathProducts,
	}, func(ctx context.Context, _ string) (interface{}, error) {
		return s.fetcher.FetchProducts(ctx)
	})

	value, _, err := s.cache.GetOrLoad(ctx, keyProducts, ld)
	if err != nil {
		s.logger.Warn("product list unavailable, serving empty set", "error", err)
		return []Product{}
	}
	return value.([]Product)
}

// Filtered returns the products matching the filter, applied client-side
// over the full fetched set.
func (s *Service) Filtered(ctx context.Context, f Filter) []Product {
	return f.Apply(s.Products(ctx))
}

// Product returns a single product by identifier.
// A missing identifier yields errors.ErrProductNotFound; any other upstream
// failure yields errors.ErrUpstreamUnavailable. Both carry a nil product.
func (s *Service) Product(ctx context.Context, id int) (*Product, error) {
	ld := loader.NewWithDirectives(loader.Directives{
		Stale:      s.lifetimes.Product.Stale,
		Revalidate: s.lifetimes.Product.Revalidate,
		Expire:     s.lifetimes.Product.Expire,
		Tags:       []string{TagProducts, ProductTag(id)},
		Path:       fmt.Sprintf("%s/%d", PathProducts, id),
	}, func(ctx context.Context, _ string) (interface{}, error) {
		return s.fetcher.FetchProduct(ctx, id)
	})

	value, _, err := s.cache.GetOrLoad(ctx, productKey(id), ld)
	if err != nil {
		// The loader's error survives in the chain, so a missing product is
		// distinguishable from a failing upstream.
		// 加载器的错误保留在链中，因此可区分商品缺失与上游故障。
		if errors.IsProductNotFound(err) {
			return nil, errors.ErrProductNotFound
		}
		s.logger.Warn("product unavailable", "id", id, "error", err)
		return nil, errors.ErrUpstreamUnavailable
	}
	return value.(*Product), nil
}

// Category returns the products of one category. Upstream failures degrade
// to an empty slice.
func (s *Service) Category(ctx context.Context, slug string) []Product {
	ld := loader.NewWithDirectives(loader.Directives{
		Stale:      s.lifetimes.Products.Stale,
		Revalidate: s.lifetimes.Products.Revalidate,
		Expire:     s.lifetimes.Products.Expire,
		Tags:       []string{TagProducts, "category:" + slug},
		Path:       PathProducts + "/category/" + slug,
	}, func(ctx context.Context, _ string) (interface{}, error) {
		return s.fetcher.FetchCategory(ctx, slug)
	})

	value, _, err := s.cache.GetOrLoad(ctx, categoryKey(slug), ld)
	if err != nil {
		s.logger.Warn("category unavailable, serving empty set", "slug", slug, "error", err)
		return []Product{}
	}
	return value.([]Product)
}

// Categories returns the category list. Upstream failures degrade to an
// empty slice.
func (s *Service) Categories(ctx context.Context) []Category {
	ld := loader.NewWithDirectives(loader.Directives{
		Stale:      s.lifetimes.Categories.Stale,
		Revalidate: s.lifetimes.Categories.Revalidate,
		Expire:     s.lifetimes.Categories.Expire,
		Tags:       []string{TagCategories},
		Path:       PathCategories,
	}, func(ctx context.Context, _ string) (interface{}, error) {
		return s.fetcher.FetchCategories(ctx)
	})

	value, _, err := s.cache.GetOrLoad(ctx, keyCategories, ld)
	if err != nil {
		s.logger.Warn("categories unavailable, serving empty set", "error", err)
		return []Category{}
	}
	return value.([]Category)
}

// Featured returns the n highest-rated products, for the home page.
func (s *Service) Featured(ctx context.Context, n int) []Product {
	products := s.Products(ctx)
	sorted := make([]Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rating > sorted[j].Rating
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// Overview carries the independently fetched sections of the home page.
type Overview struct {
	Featured   []Product
	Categories []Category
}

// Overview fetches the home page sections concurrently and awaits both.
// Each section degrades independently.
func (s *Service) Overview(ctx context.Context, featured int) Overview {
	var (
		wg sync.WaitGroup
		ov Overview
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		ov.Featured = s.Featured(ctx, featured)
	}()
	go func() {
		defer wg.Done()
		ov.Categories = s.Categories(ctx)
	}()
	wg.Wait()
	return ov
}

// RefreshProducts implements the storefront's refresh action: with expire
// false the products tag is marked stale (serve-then-refresh), with expire
// true the entries are expired immediately (next read blocks on a reload).
func (s *Service) RefreshProducts(ctx context.Context, expire bool) int {
	if expire {
		n := s.cache.InvalidateTag(ctx, TagProducts)
		s.logger.Info("products tag expired", "entries", n)
		return n
	}
	n := s.cache.MarkStaleTag(ctx, TagProducts)
	s.logger.Info("products tag marked stale", "entries", n)
	return n
}

// InvalidatePath expires every cache entry originating from path.
func (s *Service) InvalidatePath(ctx context.Context, path string) int {
	n := s.cache.InvalidatePath(ctx, path)
	s.logger.Info("path invalidated", "path", path, "entries", n)
	return n
}

// CacheStats exposes the cache statistics for the monitoring endpoint.
func (s *Service) CacheStats(ctx context.Context) (*cache.Stats, error) {
	return s.cache.Stats(ctx)
}
