package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noobtrump/storefront/internal/catalog"
)

// Admin serves the cache invalidation and monitoring endpoints.
type Admin struct {
	svc    *catalog.Service
	logger *slog.Logger
}

func NewAdmin(svc *catalog.Service, logger *slog.Logger) *Admin {
	if logger == nil {
		logger = slog.Default()
	}
	return &Admin{svc: svc, logger: logger}
}

type revalidateRequest struct {
	Path string `json:"path" binding:"required"`
}

// Revalidate expires every cache entry recorded against a path.
// POST /revalidate  {"path": "/products"}
func (ad *Admin) Revalidate(c *gin.Context) {
	var req revalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}
	if !strings.HasPrefix(req.Path, "/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path must start with /"})
		return
	}

	n := ad.svc.InvalidatePath(c.Request.Context(), req.Path)
	c.JSON(http.StatusOK, gin.H{
		"revalidated": req.Path,
		"entries":     n,
		"now":         time.Now().UTC().Format(time.RFC3339),
	})
}

type refreshRequest struct {
	Expire bool `json:"expire" form:"expire"`
}

// RefreshProducts is the storefront's refresh action. With expire false the
// cached catalog is marked stale and refreshed in the background; with
// expire true the next read blocks on a fresh load. The endpoint accepts
// both the page's form post and a JSON body.
// POST /actions/refresh-products
func (ad *Admin) RefreshProducts(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n := ad.svc.RefreshProducts(c.Request.Context(), req.Expire)

	// Browser form posts navigate back to the listing.
	if strings.Contains(c.GetHeader("Accept"), "text/html") {
		c.Redirect(http.StatusSeeOther, catalog.PathProducts)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired": req.Expire, "entries": n})
}

// CacheStats exposes cache counters as JSON.
// GET /cache/stats
func (ad *Admin) CacheStats(c *gin.Context) {
	stats, err := ad.svc.CacheStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Healthz is the liveness probe.
func (ad *Admin) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
