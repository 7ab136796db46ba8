package middleware

import (
	"CPOverflow/internal/service"

	"github.com/gin-gonic/gin"
)

// ActivityMiddleware 已登录请求刷新活跃时间，需放在 AuthMiddleware 之后
func ActivityMiddleware(presenceSvc service.PresenceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := c.GetUint64("user_id"); uid != 0 {
			presenceSvc.Touch(uid)
		}
		c.Next()
	}
}
