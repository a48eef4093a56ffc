package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/apperrors"
	"storefront/models"
)

func (h *Controller) SubmitContact(c *gin.Context) {
	var msg models.ContactMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		h.fail(c, apperrors.BadRequest(bindingMessage(err)))
		return
	}
	store, ok := h.store(c)
	if !ok {
		return
	}

	if err := store.SaveContactMessage(c.Request.Context(), &msg); err != nil {
		h.fail(c, apperrors.Internal("Failed to send message", err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Contact message sent successfully"})
}
