package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"adwall/config"
	"adwall/internal/repository"
	"adwall/pkg/database"
	"adwall/pkg/logger"
)

func main() {
	// 解析命令行参数
	var numAds, concurrency int
	flag.IntVar(&numAds, "n", 200, "要生成的广告数量")
	flag.IntVar(&concurrency, "c", 10, "并发数")
	flag.Parse()

	if numAds <= 0 || concurrency <= 0 {
		fmt.Println("错误: 数量和并发数必须大于 0")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}
	logger := logger.NewLogger(cfg.LogLevel)
	defer logger.Close()

	db, err := database.NewMySQLConnection(cfg.Database)
	if err != nil {
		logger.Fatal("无法链接到数据库", "error", err)
	}
	defer db.Close()

	ctx := context.Background()
	types, err := repository.NewAdTypeRepository(db).ListActive(ctx)
	if err != nil {
		logger.Fatal("查询广告类型失败", "error", err)
	}
	if len(types) == 0 {
		logger.Fatal("没有可用的广告类型，请先执行迁移")
	}
	typeIDs := make([]int64, 0, len(types))
	for _, t := range types {
		typeIDs = append(typeIDs, t.ID)
	}

	start := time.Now()
	created := Seed(ctx, repository.NewAdRepository(db), typeIDs, numAds, concurrency, logger)
	logger.Info("数据填充完成", "created", created, "requested", numAds, "duration", time.Since(start))
}
