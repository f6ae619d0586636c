package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"adwall/pkg/logger"
)

// ErrStopped 工作器已停止，不再接收任务
var ErrStopped = errors.New("工作器已停止")

// Task 表示一个异步任务
type Task struct {
	ID       string
	Handler  func(ctx context.Context) error
	Timeout  time.Duration
	RetryMax int
}

// Worker 异步任务处理器
type Worker struct {
	taskQueue chan Task
	mu        sync.RWMutex
	stopped   bool
	logger    *logger.Logger
	wg        sync.WaitGroup
	backoff   time.Duration
}

// NewWorker 创建一个新的工作器
func NewWorker(queueSize int, logger *logger.Logger) *Worker {
	return &Worker{
		taskQueue: make(chan Task, queueSize),
		logger:    logger,
		backoff:   time.Second,
	}
}

// Start 启动工作器
func (w *Worker) Start(numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.processTask()
	}
}

// Stop 停止接收任务，等待队列中的任务执行完
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.taskQueue)
	w.mu.Unlock()
	w.wg.Wait()
}

// Submit 将任务加入队列，队列满时阻塞
func (w *Worker) Submit(task Task) error {
	if task.ID == "" {
		task.ID = fmt.Sprintf("task_%d", time.Now().UnixNano())
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrStopped
	}
	w.taskQueue <- task
	return nil
}

// AddTask 以默认超时和重试次数加入任务
func (w *Worker) AddTask(name string, handler func(ctx context.Context) error) error {
	return w.Submit(Task{
		ID:       fmt.Sprintf("%s_%d", name, time.Now().UnixNano()),
		Handler:  handler,
		Timeout:  30 * time.Second,
		RetryMax: 2,
	})
}

// processTask 处理任务的工作循环
func (w *Worker) processTask() {
	defer w.wg.Done()

	for task := range w.taskQueue {
		w.executeTask(task)
	}
}

// executeTask 执行单个任务
func (w *Worker) executeTask(task Task) {
	start := time.Now()
	w.logger.Debug("开始执行异步任务", "task_id", task.ID)

	// 创建带超时的上下文
	ctx := context.Background()
	if task.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, task.Timeout)
		defer cancel()
	}

	// 执行任务，支持重试
	var err error
	for attempt := 0; attempt <= task.RetryMax; attempt++ {
		if attempt > 0 {
			w.logger.Info("重试异步任务", "task_id", task.ID, "attempt", attempt)
			time.Sleep(w.backoff * time.Duration(attempt))
		}

		err = task.Handler(ctx)
		if err == nil {
			break
		}

		w.logger.Warn("异步任务执行失败", "task_id", task.ID, "attempt", attempt, "error", err)
	}

	if err != nil {
		w.logger.Error("异步任务最终失败", "task_id", task.ID, "error", err)
		return
	}
	w.logger.Debug("异步任务完成", "task_id", task.ID, "duration", time.Since(start))
}
