package admin

import (
	"github.com/gin-gonic/gin"
)

// RegisterAdminRoutes 注册管理员API路由，router 已挂载管理员认证中间件
func RegisterAdminRoutes(router *gin.RouterGroup, adTypeHandler *AdTypeAdminHandler, formConfigHandler *FormConfigAdminHandler) {
	// 广告类型管理路由
	adTypes := router.Group("/ad-types")
	{
		adTypes.POST("", adTypeHandler.CreateAdType)
		adTypes.PUT("/:id", adTypeHandler.UpdateAdType)
		adTypes.DELETE("/:id", adTypeHandler.DeleteAdType)
	}

	// 表单配置管理路由
	router.PUT("/form-config", formConfigHandler.SaveFormConfig)
}
