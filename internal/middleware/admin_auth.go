package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"adwall/internal/constants"
	"adwall/internal/service"
)

// AdminAuth 管理员认证中间件，未启用认证时直接放行
func AdminAuth(authService service.AdminAuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authService.Enabled() {
			c.Next()
			return
		}

		// 从请求头获取Token，兼容 Bearer 前缀
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "msg": constants.ErrUnauthorized, "data": nil})
			return
		}
		if err := authService.Verify(c.Request.Context(), token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "msg": constants.ErrInvalidToken, "data": nil})
			return
		}

		c.Set("admin", true)
		c.Next()
	}
}
