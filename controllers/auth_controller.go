package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront/apperrors"
	"storefront/database"
	"storefront/logger"
	"storefront/middlewares"
	"storefront/models"
)

func (h *Controller) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperrors.BadRequest(bindingMessage(err)))
		return
	}
	store, ok := h.store(c)
	if !ok {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.fail(c, apperrors.Internal("Failed to register user", err))
		return
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
	err = store.CreateUser(c.Request.Context(), user)
	if errors.Is(err, database.ErrEmailTaken) {
		h.fail(c, apperrors.BadRequest("User already exists with this email"))
		return
	}
	if err != nil {
		h.fail(c, apperrors.Internal("Failed to register user", err))
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		h.fail(c, apperrors.Internal("Failed to register user", err))
		return
	}
	c.JSON(http.StatusCreated, models.AuthResponse{Message: "User registered successfully", User: user, Token: token})
}

func (h *Controller) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperrors.BadRequest(bindingMessage(err)))
		return
	}
	store, ok := h.store(c)
	if !ok {
		return
	}

	user, err := store.GetUserByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, database.ErrNotFound) {
		h.fail(c, apperrors.Unauthorized("Invalid credentials"))
		return
	}
	if err != nil {
		h.fail(c, apperrors.Internal("Login failed", err))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		h.fail(c, apperrors.Unauthorized("Invalid credentials"))
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		h.fail(c, apperrors.Internal("Login failed", err))
		return
	}
	c.JSON(http.StatusOK, models.AuthResponse{Message: "Login successful", User: user, Token: token})
}

func (h *Controller) Me(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	store, ok := h.store(c)
	if !ok {
		return
	}

	user, err := store.GetUserByID(c.Request.Context(), userID)
	if errors.Is(err, database.ErrNotFound) {
		h.fail(c, apperrors.NotFound("User not found"))
		return
	}
	if err != nil {
		h.fail(c, apperrors.Internal("Failed to fetch user", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout revokes the presented token for the rest of its lifetime.
func (h *Controller) Logout(c *gin.Context) {
	claims, ok := middlewares.GetClaims(c)
	if !ok {
		h.fail(c, apperrors.Unauthorized("User not authenticated"))
		return
	}

	if err := h.denylist.Revoke(c.Request.Context(), claims.ID, h.tokens.Remaining(claims)); err != nil {
		h.fail(c, apperrors.Internal("Failed to log out", err))
		return
	}
	logger.Info(c, "user logged out", zap.Int64("user_id", claims.UserID))
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
