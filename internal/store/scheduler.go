package store

import "time"

// Timer 可取消的定时任务
type Timer interface {
	Stop() bool
}

// Scheduler 安排延迟执行的回调，防抖和延迟重排都通过它触发
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler 基于 time.AfterFunc 的调度器
func RealScheduler() Scheduler {
	return realScheduler{}
}
