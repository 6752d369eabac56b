// Package scheduler 提供定时任务调度功能，使用 gocron/v2 库.
//
// 任务按名称登记，同一任务不会并发执行；每次执行的状态、耗时与错误记录在 JobInfo 中，
// 供管理接口查看和手动触发.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/yeisme/worksheethub/pkg/log"
)

// ErrJobNotFound 按名称找不到任务.
var ErrJobNotFound = errors.New("job not found")

// JobStatus 表示任务的状态类型.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled" // 等待下一次触发
	StatusRunning   JobStatus = "running"
	StatusError     JobStatus = "error" // 最近一次执行失败
)

// Task 任务函数，返回的错误记录到 JobInfo.Error.
type Task func(ctx context.Context) error

// JobInfo 表示定时任务的信息，用于可视化和监控.
type JobInfo struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	CronExpr    string        `json:"cron_expr"`
	NextRun     time.Time     `json:"next_run"`
	LastRun     time.Time     `json:"last_run"`
	LastSuccess time.Time     `json:"last_success,omitempty"`
	LastElapsed time.Duration `json:"last_elapsed"`
	Runs        int           `json:"runs"`
	Status      JobStatus     `json:"status"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Scheduler 是定时任务调度器的实现.
type Scheduler struct {
	scheduler gocron.Scheduler
	jobs      map[string]gocron.Job // 以任务名称为键
	jobInfos  map[string]*JobInfo   // 以任务名称为键
	jobIDs    map[uuid.UUID]string  // 以任务ID为键，映射到名称
	schedules map[string]cron.Schedule
	mu        sync.RWMutex
	logger    zerolog.Logger
	now       func() time.Time
}

// NewScheduler 创建一个新的 Scheduler 实例.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		scheduler: s,
		jobs:      make(map[string]gocron.Job),
		jobInfos:  make(map[string]*JobInfo),
		jobIDs:    make(map[uuid.UUID]string),
		schedules: make(map[string]cron.Schedule),
		logger:    log.Component("scheduler"),
		now:       time.Now,
	}, nil
}

// AddCron 添加一个基于 cron 表达式（五段）的定时任务.
// ctx 传给每次执行，取消后正在运行的任务应尽快返回.
func (s *Scheduler) AddCron(ctx context.Context, name, cronExpr string, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job with name %s already exists", name)
	}

	// gocron 同样使用五段标准语法
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}

	j, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func(ctx context.Context) { s.run(ctx, name, task) }, ctx),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}

	now := s.now()

	s.jobs[name] = j
	s.jobIDs[j.ID()] = name
	s.schedules[name] = schedule
	s.jobInfos[name] = &JobInfo{
		ID:        j.ID().String(),
		Name:      name,
		CronExpr:  cronExpr,
		NextRun:   s.nextRun(name),
		Status:    StatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.logger.Info().Str("job", name).Str("cron", cronExpr).Msg("Added cron job")

	return nil
}

// run 执行任务并记录状态，panic 记为失败.
func (s *Scheduler) run(ctx context.Context, name string, task Task) {
	start := s.now()
	s.setStatus(name, func(info *JobInfo) {
		info.Status = StatusRunning
		info.LastRun = start
	})

	var err error

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in job: %v", r)
			}
		}()

		err = task(ctx)
	}()

	elapsed := s.now().Sub(start)

	s.setStatus(name, func(info *JobInfo) {
		info.Runs++
		info.LastElapsed = elapsed

		if err != nil {
			info.Status = StatusError
			info.Error = err.Error()

			return
		}

		info.Status = StatusScheduled
		info.Error = ""
		info.LastSuccess = s.now()
	})

	if err != nil {
		s.logger.Error().Err(err).Str("job", name).Dur("elapsed", elapsed).Msg("Job failed")
		return
	}

	s.logger.Info().Str("job", name).Dur("elapsed", elapsed).Msg("Job finished")
}

func (s *Scheduler) setStatus(name string, update func(*JobInfo)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info, exists := s.jobInfos[name]; exists {
		update(info)
		info.UpdatedAt = s.now()
	}
}

// RunNow 立即触发一次任务，不影响原有调度.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	job, exists := s.jobs[name]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%s: %w", name, ErrJobNotFound)
	}

	return job.RunNow()
}

// RemoveJobByName 通过名称移除任务.
func (s *Scheduler) RemoveJobByName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("%s: %w", name, ErrJobNotFound)
	}

	if err := s.scheduler.RemoveJob(job.ID()); err != nil {
		return err
	}

	delete(s.jobs, name)
	delete(s.jobInfos, name)
	delete(s.jobIDs, job.ID())
	delete(s.schedules, name)

	s.logger.Info().Str("job", name).Msg("Removed job")

	return nil
}

// GetJobInfoByName 通过名称获取任务信息.
func (s *Scheduler) GetJobInfoByName(name string) (JobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, exists := s.jobInfos[name]
	if !exists {
		return JobInfo{}, fmt.Errorf("%s: %w", name, ErrJobNotFound)
	}

	return s.snapshot(name, info), nil
}

// GetJobInfos 返回所有定时任务的信息，按名称排序.
func (s *Scheduler) GetJobInfos() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]JobInfo, 0, len(s.jobInfos))
	for name, info := range s.jobInfos {
		jobs = append(jobs, s.snapshot(name, info))
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })

	return jobs
}

// snapshot 复制一份 JobInfo 并刷新下次运行时间，调用方持有锁.
func (s *Scheduler) snapshot(name string, info *JobInfo) JobInfo {
	out := *info
	out.NextRun = s.nextRun(name)

	return out
}

// nextRun 调度器启动前 gocron 返回零值，此时按 cron 表达式推算.
func (s *Scheduler) nextRun(name string) time.Time {
	if job, ok := s.jobs[name]; ok {
		if next, err := job.NextRun(); err == nil && !next.IsZero() {
			return next
		}
	}

	if schedule, ok := s.schedules[name]; ok {
		return schedule.Next(s.now())
	}

	return time.Time{}
}

// Start 启动调度器.
func (s *Scheduler) Start() {
	s.logger.Info().Int("jobs", len(s.GetJobInfos())).Msg("Starting scheduler")
	s.scheduler.Start()
}

// StopJobs 停止调度，已登记的任务保留，调用 Start 可恢复.
func (s *Scheduler) StopJobs() error {
	return s.scheduler.StopJobs()
}

// JobsWaitingInQueue 等待执行的任务数.
func (s *Scheduler) JobsWaitingInQueue() int {
	return s.scheduler.JobsWaitingInQueue()
}

// Shutdown 停止调度器并等待正在运行的任务结束.
func (s *Scheduler) Shutdown() error {
	s.logger.Info().Msg("Stopping scheduler")
	return s.scheduler.Shutdown()
}
