package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	ErrUnknownJob = errors.New("unknown job")
	ErrStopped    = errors.New("scheduler stopped")
)

// Job 收到的 ctx 在 Stop 超时后会被取消
type Job func(ctx context.Context)

type entry struct {
	id       cron.EntryID
	interval time.Duration
	run      cron.Job
}

// Scheduler 按固定间隔运行任务，同一 jobID 只保留一个注册
type Scheduler struct {
	cron   *cron.Cron
	logger cron.Logger

	mu      sync.Mutex
	entries map[string]entry
	stopped bool
	// 手动触发的运行
	manual sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

func New() *Scheduler {
	logger := cron.PrintfLogger(log.Default())
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(logger)),
		logger:  logger,
		entries: make(map[string]entry),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Schedule 注册或替换任务；正在运行时到点的触发会被跳过，panic 会被记录而不会打断调度
func (s *Scheduler) Schedule(jobID string, interval time.Duration, job Job) error {
	if jobID == "" {
		return errors.New("empty job id")
	}
	if interval < time.Second {
		return fmt.Errorf("interval %s is shorter than 1s", interval)
	}
	if job == nil {
		return errors.New("nil job")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}

	if old, ok := s.entries[jobID]; ok {
		s.cron.Remove(old.id)
		log.Printf("scheduler: job %s replaced", jobID)
	}

	wrapped := cron.NewChain(
		cron.Recover(s.logger),
		cron.SkipIfStillRunning(s.logger),
	).Then(cron.FuncJob(func() {
		start := time.Now()
		log.Printf("scheduler: job %s started", jobID)
		job(s.ctx)
		log.Printf("scheduler: job %s finished in %s", jobID, time.Since(start).Round(time.Millisecond))
	}))

	id := s.cron.Schedule(cron.Every(interval), wrapped)
	s.entries[jobID] = entry{id: id, interval: interval, run: wrapped}
	log.Printf("scheduler: job %s every %s", jobID, interval)
	return nil
}

// RunNow 立即在后台运行一次，不影响原有节奏；若该任务正在运行则跳过
func (s *Scheduler) RunNow(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	e, ok := s.entries[jobID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, jobID)
	}

	s.manual.Add(1)
	go func() {
		defer s.manual.Done()
		e.run.Run()
	}()
	return nil
}

// Jobs 返回已注册的任务 id
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Next 下次计划运行时间，调度未启动时为零值
func (s *Scheduler) Next(jobID string) time.Time {
	s.mu.Lock()
	e, ok := s.entries[jobID]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(e.id).Next
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止触发新的运行并等待运行中的任务；ctx 到期后取消任务的 ctx 并返回
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	cronDone := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.manual.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		log.Printf("scheduler: stop timed out, running jobs abandoned")
		return ctx.Err()
	}
}
