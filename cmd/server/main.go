package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"adwall/config"
	"adwall/internal/api"
	"adwall/internal/scheduler"
	"adwall/pkg/async"
	"adwall/pkg/database"
	"adwall/pkg/events"
	"adwall/pkg/logger"
	"adwall/pkg/network"
	"adwall/pkg/storage"
)

// orphanRetention 上传后超过该时长仍未关联广告的视频会被清理
const orphanRetention = 24 * time.Hour

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}

	// 初始化日志
	logger := logger.NewLoggerWithConfig(cfg.LogLevel, cfg.LogFile)
	defer logger.Close()

	// 初始化数据库连接
	db, err := database.NewMySQLConnection(cfg.Database)
	if err != nil {
		logger.Fatal("无法链接到数据库", "error", err)
	}
	defer db.Close()

	// Redis 是可选的，未配置时不使用缓存
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = database.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("无法链接到Redis", "error", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn("未配置 REDIS_HOST，缓存已禁用")
	}

	// 视频存储
	var videoStore storage.Storage
	uploadDir := ""
	if cfg.S3.Bucket != "" {
		videoStore, err = storage.NewS3(context.Background(), cfg.S3, logger)
		if err != nil {
			logger.Fatal("初始化 S3 失败", "error", err)
		}
	} else {
		local, err := storage.NewLocal(cfg.Upload.Dir, "/uploads")
		if err != nil {
			logger.Fatal("创建上传目录失败", "dir", cfg.Upload.Dir, "error", err)
		}
		videoStore, uploadDir = local, local.Root()
	}

	// 广告变更事件
	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		if down := network.Unreachable(context.Background(), cfg.Kafka.Brokers, 3*time.Second); len(down) > 0 {
			logger.Warn("部分 Kafka broker 无法连接，事件发送可能失败", "brokers", down)
		}
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		logger.Info("广告事件发送到 Kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	defer publisher.Close()

	// 创建异步工作器
	worker := async.NewWorker(100, logger)
	worker.Start(5)
	defer worker.Stop()

	svc := api.NewServices(cfg, logger, db, redisClient, worker, publisher, videoStore)

	// 孤儿视频清理
	janitor := scheduler.NewVideoJanitor(svc.Videos, orphanRetention, logger)
	if err := janitor.Start(cfg.Upload.CleanupCron); err != nil {
		logger.Fatal("启动视频清理调度器失败", "error", err)
	}
	defer janitor.Stop()

	// 初始化API路由
	router := api.SetupRouter(cfg, logger, svc, uploadDir)

	// 创建HTTP服务器
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.APIPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器（非阻塞）
	go func() {
		logger.Info(fmt.Sprintf("服务器启动于端口: %d", cfg.APIPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("启动服务器失败", "error", err)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("服务器被强制关闭", "error", err)
	}

	logger.Info("服务器已正常退出")
}
