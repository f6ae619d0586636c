package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"adwall/config"
	"adwall/internal/api/admin"
	"adwall/internal/api/apis"
	"adwall/internal/api/handler"
	"adwall/internal/middleware"
	"adwall/internal/repository"
	"adwall/internal/service"
	"adwall/pkg/async"
	"adwall/pkg/events"
	"adwall/pkg/logger"
	"adwall/pkg/storage"
)

// Services 路由依赖的服务
type Services struct {
	Ads         service.AdService
	AdTypes     service.AdTypeService
	FormConfigs service.FormConfigService
	Videos      service.VideoService
	Auth        service.AdminAuthService
}

// NewServices 初始化存储库和服务，redisClient 可以为空
func NewServices(
	cfg *config.Config,
	logger *logger.Logger,
	db *sqlx.DB,
	redisClient *redis.Client,
	worker *async.Worker,
	publisher events.Publisher,
	videoStore storage.Storage,
) Services {
	// 初始化存储库
	adRepo := repository.NewAdRepository(db)
	adTypeRepo := repository.NewAdTypeRepository(db)
	formConfigRepo := repository.NewFormConfigRepository(db)
	videoRepo := repository.NewVideoRepository(db)

	// 初始化服务
	formConfigService := service.NewFormConfigService(adTypeRepo, formConfigRepo, redisClient, logger)
	return Services{
		Ads:         service.NewAdService(adRepo, videoRepo, formConfigService, redisClient, worker, publisher, logger),
		AdTypes:     service.NewAdTypeService(adTypeRepo, redisClient, logger),
		FormConfigs: formConfigService,
		Videos:      service.NewVideoService(adTypeRepo, videoRepo, videoStore, logger),
		Auth: service.NewAdminAuthService(cfg.Admin.PasswordHash,
			time.Duration(cfg.Admin.TokenTTLHour)*time.Hour, redisClient, logger),
	}
}

// SetupRouter 设置API路由，uploadDir 非空时以 /uploads 提供本地文件
func SetupRouter(cfg *config.Config, logger *logger.Logger, svc Services, uploadDir string) *gin.Engine {
	// 创建Gin引擎
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = 32 << 20

	// 使用中间件
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.FrontendOrigin))

	if uploadDir != "" {
		router.Static("/uploads", uploadDir)
	}

	// 初始化处理器
	adHandler := handler.NewAdHandler(svc.Ads, logger)
	adTypeHandler := handler.NewAdTypeHandler(svc.AdTypes, logger)
	formConfigHandler := handler.NewFormConfigHandler(svc.FormConfigs, logger)
	videoHandler := handler.NewVideoHandler(svc.Videos, cfg.PublicBaseURL, cfg.Upload.MaxMB*1024*1024, logger)
	loginHandler := admin.NewLoginHandler(svc.Auth, logger)

	// 初始化管理员处理器
	adTypeAdminHandler := admin.NewAdTypeAdminHandler(svc.AdTypes, logger)
	formConfigAdminHandler := admin.NewFormConfigAdminHandler(svc.FormConfigs, logger)

	apiGroup := router.Group("/api")

	// 注册不需要认证的路由
	apis.RegisterPublicRoutes(apiGroup, adHandler, adTypeHandler, formConfigHandler, videoHandler, loginHandler)

	// 注册管理员API路由
	adminRouter := apiGroup.Group("/admin")
	adminRouter.Use(middleware.AdminAuth(svc.Auth))
	admin.RegisterAdminRoutes(adminRouter, adTypeAdminHandler, formConfigAdminHandler)

	return router
}
