package middlewares

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/apperrors"
	"storefront/logger"
	"storefront/sessions"
	"storefront/utils"
)

const (
	UserIDKey = "userID"
	ClaimsKey = "claims"
)

// AuthMiddleware requires a valid, unrevoked bearer token and stores the
// caller's id and claims in the context.
func AuthMiddleware(tokens *utils.TokenManager, denylist sessions.Denylist) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			apperrors.Respond(c, apperrors.Unauthorized("Access token required"), false)
			return
		}

		claims, err := tokens.ParseToken(strings.TrimSpace(tokenString))
		if err != nil {
			apperrors.Respond(c, apperrors.Unauthorized("Invalid or expired token"), false)
			return
		}

		revoked, err := denylist.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			// fail open
			logger.Warn(c, "denylist lookup failed", zap.Error(err))
		}
		if revoked {
			apperrors.Respond(c, apperrors.Unauthorized("Token has been revoked"), false)
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// GetUserID returns the authenticated user's id.
func GetUserID(c *gin.Context) (int64, error) {
	if val, ok := c.Get(UserIDKey); ok {
		if id, ok := val.(int64); ok && id > 0 {
			return id, nil
		}
	}
	return 0, errors.New("user ID not found in context")
}

func GetClaims(c *gin.Context) (*utils.Claims, bool) {
	val, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := val.(*utils.Claims)
	return claims, ok
}
