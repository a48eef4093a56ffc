package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/apperrors"
	"storefront/database"
	"storefront/models"
)

func (h *Controller) GetCart(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	store, ok := h.store(c)
	if !ok {
		return
	}

	lines, err := store.GetCart(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, apperrors.Internal("Failed to fetch cart", err))
		return
	}
	c.JSON(http.StatusOK, lines)
}

func (h *Controller) AddToCart(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req models.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID <= 0 {
		h.fail(c, apperrors.BadRequest("Product ID is required"))
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity < 1 {
		h.fail(c, apperrors.BadRequest("Quantity must be at least 1"))
		return
	}

	store, ok := h.store(c)
	if !ok {
		return
	}
	err := store.AddToCart(c.Request.Context(), userID, req.ProductID, quantity)
	switch {
	case errors.Is(err, database.ErrNotFound):
		h.fail(c, apperrors.NotFound("Product not found"))
	case errors.Is(err, database.ErrProductOutOfStock):
		h.fail(c, apperrors.BadRequest("Product is out of stock"))
	case err != nil:
		h.fail(c, apperrors.Internal("Failed to add item to cart", err))
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Item added to cart successfully"})
	}
}

func (h *Controller) UpdateCartItem(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	cartID, err := strconv.ParseInt(c.Param("cartId"), 10, 64)
	if err != nil {
		h.fail(c, apperrors.BadRequest("Invalid cart item ID"))
		return
	}

	var req models.UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity < 1 {
		h.fail(c, apperrors.BadRequest("Valid quantity is required"))
		return
	}

	store, ok := h.store(c)
	if !ok {
		return
	}
	err = store.UpdateCartItem(c.Request.Context(), userID, cartID, req.Quantity)
	switch {
	case errors.Is(err, database.ErrNotFound):
		h.fail(c, apperrors.NotFound("Cart item not found"))
	case err != nil:
		h.fail(c, apperrors.Internal("Failed to update cart item", err))
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Cart item updated successfully"})
	}
}

func (h *Controller) RemoveFromCart(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		h.fail(c, apperrors.BadRequest("Invalid product ID"))
		return
	}

	store, ok := h.store(c)
	if !ok {
		return
	}
	err = store.RemoveFromCart(c.Request.Context(), userID, productID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		h.fail(c, apperrors.NotFound("Cart item not found"))
	case err != nil:
		h.fail(c, apperrors.Internal("Failed to remove item from cart", err))
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart successfully"})
	}
}

func (h *Controller) ClearCart(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	store, ok := h.store(c)
	if !ok {
		return
	}

	if err := store.ClearCart(c.Request.Context(), userID); err != nil {
		h.fail(c, apperrors.Internal("Failed to clear cart", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared successfully"})
}
