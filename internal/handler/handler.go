// Package handler wires the catalog service and renderer into gin routes.
package handler

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noobtrump/storefront/internal/catalog"
	"github.com/noobtrump/storefront/internal/render"
	"github.com/noobtrump/storefront/pkg/errors"
)

const featuredCount = 6

// Handler serves the storefront's HTML pages.
type Handler struct {
	svc      *catalog.Service
	renderer *render.Renderer
	logger   *slog.Logger
}

func New(svc *catalog.Service, renderer *render.Renderer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, renderer: renderer, logger: logger}
}

// Home streams the shell immediately and defers the featured and category
// sections, so a cold cache never delays the first byte.
func (h *Handler) Home(c *gin.Context) {
	ctx := c.Request.Context()
	h.renderer.Stream(ctx, c.Writer, "home", gin.H{"Title": "Home"},
		render.Section{
			Slot: "featured",
			Render: func(ctx context.Context) (template.HTML, error) {
				return h.renderer.Fragment("product_grid", h.svc.Featured(ctx, featuredCount))
			},
		},
		render.Section{
			Slot: "categories",
			Render: func(ctx context.Context) (template.HTML, error) {
				return h.renderer.Fragment("category_list", h.svc.Categories(ctx))
			},
		},
	)
}

// Products renders the filterable product listing. An upstream outage
// degrades to an empty listing rather than an error page.
func (h *Handler) Products(c *gin.Context) {
	var f catalog.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		h.renderer.ErrorPage(c.Writer, http.StatusBadRequest, "Those filters don't look right.", err.Error())
		return
	}

	ctx := c.Request.Context()
	h.renderer.Page(c.Writer, http.StatusOK, "products", gin.H{
		"Title":      "Products",
		"Filter":     f,
		"Products":   h.svc.Filtered(ctx, f),
		"Categories": h.svc.Categories(ctx),
	})
}

// ProductDetail renders a single product. A missing product gets the
// not-found page; an unreachable upstream gets the error fallback.
func (h *Handler) ProductDetail(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		h.renderer.NotFoundPage(c.Writer, "That product")
		return
	}

	p, err := h.svc.Product(c.Request.Context(), id)
	switch {
	case err == nil:
		h.renderer.Page(c.Writer, http.StatusOK, "product", gin.H{"Title": p.Title, "Product": p})
	case errors.IsProductNotFound(err):
		h.renderer.NotFoundPage(c.Writer, "That product")
	default:
		h.logger.Error("product page failed", "id", id, "error", err)
		h.renderer.ErrorPage(c.Writer, http.StatusBadGateway, "The catalog is temporarily unavailable.", "")
	}
}

// Categories renders the category index.
func (h *Handler) Categories(c *gin.Context) {
	h.renderer.Page(c.Writer, http.StatusOK, "categories", gin.H{
		"Title":      "Categories",
		"Categories": h.svc.Categories(c.Request.Context()),
	})
}

// NotFound is the fallback for unknown routes.
func (h *Handler) NotFound(c *gin.Context) {
	h.renderer.NotFoundPage(c.Writer, "")
}
