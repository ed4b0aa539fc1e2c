package middleware

import (
	"net/http"
	"strings"

	"github.com/futhaxball/backend/internal/auth"
	"github.com/futhaxball/backend/internal/config"
	"github.com/gin-gonic/gin"
)

// OperatorKey is the gin context key holding the operator username.
const OperatorKey = "operator"

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(h, "Bearer ")
}

// OperatorAuth validates a bearer operator JWT and sets OperatorKey.
func OperatorAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		username, err := auth.ParseOperatorToken(cfg.JWTSecret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(OperatorKey, username)
		c.Next()
	}
}
