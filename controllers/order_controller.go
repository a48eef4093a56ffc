package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/apperrors"
	"storefront/database"
	"storefront/logger"
	"storefront/middlewares"
	"storefront/models"
)

const publishTimeout = 5 * time.Second

// CreateOrder checks out the caller's cart. The body is optional.
func (h *Controller) CreateOrder(c *gin.Context) {
	defer func() {
		status := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("create", status)
	}()

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.fail(c, apperrors.BadRequest("Invalid request body"))
		return
	}

	store, ok := h.store(c)
	if !ok {
		return
	}

	receipt, err := store.CreateOrder(c.Request.Context(), userID, req)
	if err != nil {
		var oos *database.OutOfStockError
		switch {
		case errors.Is(err, database.ErrCartEmpty):
			h.fail(c, apperrors.BadRequest("Cart is empty"))
		case errors.As(err, &oos):
			h.fail(c, apperrors.BadRequest("Some items are out of stock").
				WithDetails(gin.H{"outOfStockItems": oos.Names}))
		default:
			h.fail(c, apperrors.Internal("Failed to create order", err))
		}
		return
	}

	logger.Info(c, "order created",
		zap.Int64("order_id", receipt.OrderID),
		zap.Int64("user_id", userID),
		zap.String("total", receipt.TotalAmount.String()))

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Order created successfully",
		"orderId":     receipt.OrderID,
		"totalAmount": receipt.TotalAmount,
	})

	h.publishCreated(c, userID, receipt)
}

// publishCreated announces a committed order. Failures are logged only; the
// order stands either way.
func (h *Controller) publishCreated(c *gin.Context, userID int64, receipt *models.OrderReceipt) {
	if h.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	event := models.OrderEvent{
		OrderID:  receipt.OrderID,
		UserID:   userID,
		Type:     models.OrderEventCreated,
		Status:   models.OrderStatusPending,
		Total:    receipt.TotalAmount,
		Occurred: time.Now().UTC(),
	}
	if err := h.events.PublishOrderEvent(ctx, event); err != nil {
		logger.Error(c, "Failed to publish order created event", err, zap.Int64("order_id", receipt.OrderID))
	}
}

func (h *Controller) GetUserOrders(c *gin.Context) {
	defer func() {
		status := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("list", status)
	}()

	userID, ok := h.userID(c)
	if !ok {
		return
	}
	store, ok := h.store(c)
	if !ok {
		return
	}

	orders, err := store.ListOrders(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, apperrors.Internal("Failed to fetch orders", err))
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Controller) GetOrderDetails(c *gin.Context) {
	defer func() {
		status := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("get", status)
	}()

	userID, ok := h.userID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.fail(c, apperrors.BadRequest("Invalid order ID"))
		return
	}
	store, ok := h.store(c)
	if !ok {
		return
	}

	order, err := store.GetOrder(c.Request.Context(), userID, orderID)
	if errors.Is(err, database.ErrNotFound) {
		h.fail(c, apperrors.NotFound("Order not found"))
		return
	}
	if err != nil {
		h.fail(c, apperrors.Internal("Failed to fetch order", err))
		return
	}
	c.JSON(http.StatusOK, order)
}
