package main

import (
	"context"
	"log"
	"time"

	"adwall/config"
	"adwall/pkg/database"
	"adwall/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}
	logger := logger.NewLogger(cfg.LogLevel)
	defer logger.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	logger.Info("开始迁移", "database", cfg.Database.DBName)
	if err := database.EnsureDatabase(ctx, cfg.Database); err != nil {
		logger.Fatal("创建数据库失败", "error", err)
	}

	db, err := database.NewMySQLConnection(cfg.Database)
	if err != nil {
		logger.Fatal("无法链接到数据库", "error", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, logger); err != nil {
		logger.Fatal("迁移失败", "error", err)
	}
	logger.Info("迁移成功")
}
