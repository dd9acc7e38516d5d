// Package middleware provides the gin middleware stack for the storefront:
// request IDs, structured request logging, cache statistics headers, and
// HTTP metrics collection.
package middleware

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noobtrump/storefront/internal/metrics"
	"github.com/noobtrump/storefront/pkg/cache"
)

// RequestIDHeader is the header carrying the per-request identifier.
const RequestIDHeader = "X-Request-ID"

// requestIDKey is the gin context key for the request ID.
const requestIDKey = "request_id"

// RequestID assigns every request a UUID unless the client supplied one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger returns a middleware that logs request information.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		// Start timer
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		// Process request
		c.Next()

		logger.Info("request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(requestIDKey),
		)
	}
}

// CacheHeaders returns a middleware that adds cache statistics to the
// response headers, making the lifecycle behavior observable from a browser.
func CacheHeaders(cacheInstance *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Headers must be set before the handler starts streaming the body.
		stats, err := cacheInstance.Stats(c)
		if err != nil {
			c.Next()
			return
		}

		c.Header("X-Cache-Hits", fmt.Sprintf("%d", stats.Hits))
		c.Header("X-Cache-Misses", fmt.Sprintf("%d", stats.Misses))
		c.Header("X-Cache-Stale-Serves", fmt.Sprintf("%d", stats.StaleServes))

		// 计算命中率
		hitRatio := 0.0
		if stats.Hits+stats.Misses > 0 {
			hitRatio = float64(stats.Hits) / float64(stats.Hits+stats.Misses)
		}
		c.Header("X-Cache-Hit-Ratio", fmt.Sprintf("%.2f", hitRatio))
		c.Header("X-Cache-Entries", fmt.Sprintf("%d", stats.EntryCount))

		c.Next()
	}
}

// Observe returns a middleware feeding the Prometheus HTTP metrics.
func Observe(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Use the route template rather than the raw URL to bound cardinality.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
