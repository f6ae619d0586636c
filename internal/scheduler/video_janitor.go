package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"adwall/pkg/logger"
)

// OrphanCleaner 清理未关联广告的视频
type OrphanCleaner interface {
	CleanupOrphans(ctx context.Context, olderThan time.Duration) (int, error)
}

// VideoJanitor 按 cron 表达式定时清理孤儿视频
type VideoJanitor struct {
	cleaner   OrphanCleaner
	cron      *cron.Cron
	olderThan time.Duration
	timeout   time.Duration
	logger    *logger.Logger
}

// NewVideoJanitor 创建视频清理调度器，olderThan 以内上传的视频不会被清理
func NewVideoJanitor(cleaner OrphanCleaner, olderThan time.Duration, logger *logger.Logger) *VideoJanitor {
	return &VideoJanitor{
		cleaner:   cleaner,
		cron:      cron.New(),
		olderThan: olderThan,
		timeout:   10 * time.Minute,
		logger:    logger,
	}
}

// Start 注册并启动定时任务，spec 为标准五段 cron 表达式
func (j *VideoJanitor) Start(spec string) error {
	entryID, err := j.cron.AddFunc(spec, j.RunOnce)
	if err != nil {
		return fmt.Errorf("添加视频清理任务失败: %w", err)
	}
	j.cron.Start()
	j.logger.Info("视频清理调度器启动", "schedule", spec, "entry_id", int(entryID))
	return nil
}

// RunOnce 执行一次清理
func (j *VideoJanitor) RunOnce() {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	removed, err := j.cleaner.CleanupOrphans(ctx, j.olderThan)
	if err != nil {
		j.logger.Error("清理孤儿视频失败", "error", err)
		return
	}
	j.logger.Info("清理孤儿视频完成", "removed", removed, "duration", time.Since(start))
}

// Stop 停止调度并等待正在执行的任务结束
func (j *VideoJanitor) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("视频清理调度器停止")
}
