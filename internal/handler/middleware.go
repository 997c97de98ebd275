package handler

import (
	"net/http"
	"strings"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/service"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// AuthMiddleware resolves the Bearer token into a user identity. The core
// trusts whatever identity the token carries.
func AuthMiddleware(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing token", "success": false})
			return
		}

		userID, err := auth.ParseToken(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token", "success": false})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// CurrentUserID returns the authenticated identity set by AuthMiddleware.
func CurrentUserID(c *gin.Context) string {
	v, _ := c.Get(userIDKey)
	id, _ := v.(string)
	return id
}
