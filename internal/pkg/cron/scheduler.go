package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task is a named function invoked on a fixed interval. Tasks receive the
// scheduler's context and must return promptly once it is cancelled.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler drives background payroll maintenance tasks, currently the
// award eligibility sweep.
type Scheduler struct {
	mu     sync.Mutex
	tasks  []Task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{ctx: ctx, cancel: cancel}
}

// Register queues a task. Registration after Start has no effect until the
// next Start call.
func (s *Scheduler) Register(name string, interval time.Duration, run func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = append(s.tasks, Task{Name: name, Interval: interval, Run: run})
	slog.Info("Scheduled task registered", "name", name, "interval", interval)
}

// Start launches one goroutine per task. Each task fires immediately, then
// on every interval tick until Stop.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.loop(t)
	}
	slog.Info("Scheduler started", "task_count", len(s.tasks))
}

// Stop cancels the scheduler context and waits for running tasks to drain.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	slog.Info("Scheduler stopped")
}

func (s *Scheduler) loop(t Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	s.execute(t)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.execute(t)
		}
	}
}

func (s *Scheduler) execute(t Task) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Scheduled task panicked", "name", t.Name, "panic", r)
		}
	}()

	start := time.Now()
	if err := t.Run(s.ctx); err != nil {
		slog.Error("Scheduled task failed", "name", t.Name, "error", err, "duration", time.Since(start))
		return
	}
	slog.Debug("Scheduled task completed", "name", t.Name, "duration", time.Since(start))
}

// RunOnce fires every task a single time with the caller's context.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tasks {
		if err := t.Run(ctx); err != nil {
			slog.Error("Scheduled task failed", "name", t.Name, "error", err)
		}
	}
}
