// Package scheduler 提供定时任务调度
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/romsreu/hotel-premier/internal/common/logger"
)

// DefaultTaskTimeout 单次任务最长执行时间
const DefaultTaskTimeout = 5 * time.Minute

const logModule = "scheduler"

// Scheduler 基于 cron 表达式的定时任务调度器
type Scheduler struct {
	cron    *cron.Cron
	tasks   map[string]*Task
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	mu      sync.Mutex
}

// Task 定时任务
type Task struct {
	Name    string
	Spec    string
	Handler func(ctx context.Context) error
	entryID cron.EntryID
}

// NewScheduler 创建调度器，同一任务上一次未结束时跳过本次触发
func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cronLogger := cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		tasks:   make(map[string]*Task),
		ctx:     ctx,
		cancel:  cancel,
		timeout: DefaultTaskTimeout,
	}
}

// SetTimeout 设置单次任务超时
func (s *Scheduler) SetTimeout(timeout time.Duration) {
	s.timeout = timeout
}

// AddTask 添加任务，spec 为标准 cron 表达式或 @every 1h 之类的描述符
func (s *Scheduler) AddTask(name, spec string, handler func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[name]; ok {
		return fmt.Errorf("task %q already registered", name)
	}

	task := &Task{Name: name, Spec: spec, Handler: handler}
	id, err := s.cron.AddFunc(spec, func() { s.execute(task) })
	if err != nil {
		return fmt.Errorf("invalid spec %q for task %q: %w", spec, name, err)
	}
	task.entryID = id
	s.tasks[name] = task
	return nil
}

// Start 启动调度器
func (s *Scheduler) Start() {
	logger.Info("[Scheduler] starting", logger.Module(logModule), logger.Int("tasks", len(s.tasks)))
	s.cron.Start()
}

// Stop 停止调度器并等待执行中的任务结束
func (s *Scheduler) Stop() {
	logger.Info("[Scheduler] stopping", logger.Module(logModule))
	s.cancel()
	<-s.cron.Stop().Done()
	logger.Info("[Scheduler] stopped", logger.Module(logModule))
}

// RunNow 立即执行一次指定任务
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	task, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("task %q not found", name)
	}
	return s.execute(task)
}

// NextRun 任务下次触发时间，调度器未启动时为零值
func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.Lock()
	task, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(task.entryID).Next
}

// execute 执行任务
func (s *Scheduler) execute(task *Task) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := task.Handler(ctx)
	if err != nil {
		logger.Error("[Scheduler] task failed", logger.Module(logModule), logger.String("task", task.Name), logger.Err(err))
		return err
	}
	logger.Info("[Scheduler] task completed", logger.Module(logModule), logger.String("task", task.Name), logger.Duration("elapsed", time.Since(start)))
	return nil
}

// cronLogger 将 cron 内部日志输出到 zap
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.GetSugar().Debugw("[cron] "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.GetSugar().Errorw("[cron] "+msg, append(keysAndValues, "error", err)...)
}
