package middleware

import (
	"github.com/gin-gonic/gin"

	"inventory-backend/internal/shared/response"
)

// AdminMiddleware chặn các route mutate tồn kho trực tiếp: chỉ operator
// với role admin được adjust/batch/reconcile/dispatch sync. Đứng sau
// AuthMiddleware, role đọc từ claims đã verify.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		roleValue, exists := c.Get("role")
		if !exists {
			response.Forbidden(c, "Admin role required")
			c.Abort()
			return
		}

		role, ok := roleValue.(string)
		if !ok || role != "admin" {
			response.Forbidden(c, "Admin role required")
			c.Abort()
			return
		}

		c.Next()
	}
}
