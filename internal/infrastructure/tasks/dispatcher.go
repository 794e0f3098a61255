// Package tasks runs the engine's fire-and-forget side effects (ledger
// synchronization, transactional email) on a bounded in-process queue.
// Delivery is best-effort at-most-once: a full queue drops the task with a
// warning and a failed task is only retried through the manual sync path.
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a named unit of background work
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Config holds dispatcher tuning
type Config struct {
	// Workers is the number of concurrent task runners
	Workers int
	// QueueSize bounds the pending task queue; dispatches beyond it drop
	QueueSize int
	// TaskTimeout bounds each task's execution
	TaskTimeout time.Duration
}

// DefaultConfig returns conservative defaults
func DefaultConfig() Config {
	return Config{
		Workers:     4,
		QueueSize:   64,
		TaskTimeout: 30 * time.Second,
	}
}

// Dispatcher executes tasks asynchronously on a fixed worker pool
type Dispatcher struct {
	queue     chan Task
	timeout   time.Duration
	logger    *zap.Logger
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewDispatcher creates and starts a dispatcher
func NewDispatcher(cfg Config, logger *zap.Logger) *Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 30 * time.Second
	}

	d := &Dispatcher{
		queue:   make(chan Task, cfg.QueueSize),
		timeout: cfg.TaskTimeout,
		logger:  logger,
	}

	d.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go d.worker()
	}

	return d
}

// Dispatch enqueues a task without blocking the caller. It reports whether
// the task was accepted; a full queue drops the task.
func (d *Dispatcher) Dispatch(name string, run func(ctx context.Context) error) bool {
	select {
	case d.queue <- Task{Name: name, Run: run}:
		return true
	default:
		d.logger.Warn("task queue full, dropping task", zap.String("task", name))
		return false
	}
}

// Close stops accepting tasks and waits for in-flight work to finish
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
		d.wg.Wait()
	})
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for task := range d.queue {
		d.run(task)
	}
}

// run executes one task with its own detached, bounded context. Tasks are
// launched after the originating request has completed, so they must not
// inherit the request context.
func (d *Dispatcher) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("task panicked",
				zap.String("task", task.Name),
				zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	start := time.Now()
	if err := task.Run(ctx); err != nil {
		d.logger.Error("task failed",
			zap.String("task", task.Name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return
	}

	d.logger.Debug("task completed",
		zap.String("task", task.Name),
		zap.Duration("elapsed", time.Since(start)))
}
