package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront/apperrors"
	"storefront/database"
	"storefront/models"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// parseProductFilter reads the catalog query string. Missing values take
// their defaults; malformed ones are rejected.
func parseProductFilter(c *gin.Context) (models.ProductFilter, error) {
	f := models.ProductFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		SortBy:   c.Query("sortBy"),
		Order:    c.Query("order"),
		Page:     1,
		Limit:    defaultPageLimit,
	}

	if v := c.Query("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return f, apperrors.BadRequest("Invalid page parameter")
		}
		f.Page = page
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return f, apperrors.BadRequest("Invalid limit parameter")
		}
		f.Limit = min(limit, maxPageLimit)
	}

	var err error
	if f.MinPrice, err = priceParam(c, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = priceParam(c, "maxPrice"); err != nil {
		return f, err
	}
	return f, nil
}

func priceParam(c *gin.Context, key string) (*decimal.Decimal, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, apperrors.BadRequest("Invalid " + key + " parameter")
	}
	return &d, nil
}

func (h *Controller) GetProducts(c *gin.Context) {
	filter, err := parseProductFilter(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	store, ok := h.store(c)
	if !ok {
		return
	}

	products, total, err := store.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, apperrors.Internal("Failed to fetch products", err))
		return
	}

	c.JSON(http.StatusOK, models.ProductPage{
		Products:   products,
		Pagination: models.NewPagination(filter.Page, filter.Limit, total),
	})
}

func (h *Controller) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.fail(c, apperrors.BadRequest("Invalid product ID"))
		return
	}
	store, ok := h.store(c)
	if !ok {
		return
	}

	product, err := store.GetProduct(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		h.fail(c, apperrors.NotFound("Product not found"))
		return
	}
	if err != nil {
		h.fail(c, apperrors.Internal("Failed to fetch product", err))
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Controller) GetCategories(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	categories, err := store.ListCategories(c.Request.Context())
	if err != nil {
		h.fail(c, apperrors.Internal("Failed to fetch categories", err))
		return
	}
	c.JSON(http.StatusOK, categories)
}
