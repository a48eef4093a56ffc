package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health answers even while the store is still connecting.
func (h *Controller) Health(c *gin.Context) {
	state, driver := h.db.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":   "OK",
		"message":  "Server is running",
		"database": state.String(),
		"driver":   driver,
	})
}
