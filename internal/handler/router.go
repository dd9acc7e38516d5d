package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/noobtrump/storefront/internal/metrics"
	"github.com/noobtrump/storefront/internal/middleware"
	"github.com/noobtrump/storefront/pkg/cache"
)

// NewRouter assembles the gin engine: middleware chain, page routes, the
// JSON API mirror, and the cache administration endpoints.
func NewRouter(h *Handler, api *API, admin *Admin, m *metrics.Metrics, c *cache.Cache, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger))
	if m != nil {
		r.Use(middleware.Observe(m))
	}

	// Pages carry the cache freshness headers.
	pages := r.Group("/")
	pages.Use(middleware.CacheHeaders(c))
	{
		pages.GET("/", h.Home)
		pages.GET("/products", h.Products)
		pages.GET("/products/:id", h.ProductDetail)
		pages.GET("/categories", h.Categories)
	}

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/products", api.ListProducts)
		apiGroup.GET("/products/:id", api.GetProduct)
		apiGroup.GET("/categories", api.ListCategories)
	}

	r.POST("/revalidate", admin.Revalidate)
	r.POST("/actions/refresh-products", admin.RefreshProducts)
	r.GET("/cache/stats", admin.CacheStats)
	r.GET("/healthz", admin.Healthz)
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	r.NoRoute(h.NotFound)
	return r
}
