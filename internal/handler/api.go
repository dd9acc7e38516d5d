package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noobtrump/storefront/internal/catalog"
	"github.com/noobtrump/storefront/pkg/errors"
)

// API serves the JSON mirror of the storefront pages.
type API struct {
	svc *catalog.Service
}

func NewAPI(svc *catalog.Service) *API {
	return &API{svc: svc}
}

// ListProducts returns the filtered product listing as JSON.
// GET /api/products?category=&q=&min_price=&max_price=
func (a *API) ListProducts(c *gin.Context) {
	var f catalog.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	products := a.svc.Filtered(c.Request.Context(), f)
	c.JSON(http.StatusOK, gin.H{"products": products, "total": len(products)})
}

// GetProduct returns one product as JSON.
// GET /api/products/:id
func (a *API) GetProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	p, err := a.svc.Product(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, p)
	case errors.IsProductNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream unavailable"})
	}
}

// ListCategories returns the category index as JSON.
// GET /api/categories
func (a *API) ListCategories(c *gin.Context) {
	categories := a.svc.Categories(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"categories": categories, "total": len(categories)})
}
