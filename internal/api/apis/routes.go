package apis

import (
	"github.com/gin-gonic/gin"

	"adwall/internal/api/admin"
	"adwall/internal/api/handler"
)

// RegisterPublicRoutes 注册不需要认证的API路由
func RegisterPublicRoutes(
	router *gin.RouterGroup,
	adHandler *handler.AdHandler,
	adTypeHandler *handler.AdTypeHandler,
	formConfigHandler *handler.FormConfigHandler,
	videoHandler *handler.VideoHandler,
	loginHandler *admin.LoginHandler,
) {
	router.GET("/health", handler.Health)

	// 广告相关路由
	ads := router.Group("/ads")
	{
		ads.GET("", adHandler.ListAds)
		ads.POST("", adHandler.CreateAd)
		ads.PUT("/:id", adHandler.UpdateAd)
		ads.DELETE("/:id", adHandler.DeleteAd)
		ads.POST("/:id/increment-heat", adHandler.IncrementHeat)
		ads.POST("/:id/copy", adHandler.CopyAd)
	}

	router.GET("/ad-types", adTypeHandler.ListAdTypes)
	router.GET("/form-config", formConfigHandler.GetFormConfig)
	router.POST("/videos/upload", videoHandler.UploadVideo)
	router.POST("/admin/login", loginHandler.Login)
}
