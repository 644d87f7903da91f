package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"inventory-backend/internal/shared/response"
	"inventory-backend/pkg/jwt"
)

// AuthMiddleware xác thực Bearer token cho các admin mutation routes.
// Read endpoints (availability, health, metrics) không đi qua đây.
func AuthMiddleware(manager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Lấy token từ Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		// 2. Extract token từ "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		// 3. Verify và parse JWT
		claims, err := manager.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		// 4. Set caller identity vào context cho audit trail
		c.Set("subject", claims.Subject)
		c.Set("role", claims.Role)

		c.Next()
	}
}
