// Package scanjobs provides an optional job scheduler: it pulls scan
// requests off a source (database poll or HTTP webhook), drives
// internal/scan.Scanner against each request's classpath roots, and
// persists the resulting Class Graph through internal/repository.
package scanjobs

import (
	"context"
	"sync"
	"time"

	"github.com/classgraph/classgraph/internal/scanjobs/source"
	"github.com/classgraph/classgraph/pkg/config"
	"github.com/classgraph/classgraph/pkg/model"
	"github.com/classgraph/classgraph/pkg/utils"
)

// Task represents a scan job queued for processing by the worker pool.
type Task struct {
	ID       int64
	JobUUID  string
	Source   model.SourceKind
	Roots    []string
	Params   model.ScanParams
	Priority int // Higher value = higher priority
}

// TaskProcessor defines the interface for processing a single scan job.
type TaskProcessor interface {
	// Process runs the scan named by task to completion: it scans the
	// task's roots, persists the resulting graph, and notifies the
	// configured webhook, returning an error only if the job itself
	// failed (a task already marked Failed is not an error here).
	Process(ctx context.Context, task *Task) error
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	PollInterval  time.Duration // How often to poll for new tasks
	WorkerCount   int           // Number of concurrent workers
	PrioritySlots int           // Reserved slots for high priority tasks
	TaskBatchSize int           // Max tasks to fetch per poll
}

// DefaultSchedulerConfig returns default scheduler configuration.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		PollInterval:  2 * time.Second,
		WorkerCount:   5,
		PrioritySlots: 2,
		TaskBatchSize: 10,
	}
}

// FromConfig creates scheduler config from application config.
func FromConfig(cfg *config.SchedulerConfig) *SchedulerConfig {
	return &SchedulerConfig{
		PollInterval:  time.Duration(cfg.PollInterval) * time.Second,
		WorkerCount:   cfg.WorkerCount,
		PrioritySlots: cfg.PrioritySlots,
		TaskBatchSize: cfg.TaskBatchSize,
	}
}

// Scheduler manages scan-job scheduling and worker pool.
type Scheduler struct {
	config    *SchedulerConfig
	processor TaskProcessor
	logger    utils.Logger

	// Source-based task fetching (Strategy Pattern)
	aggregator *source.Aggregator

	workerPool chan struct{} // Semaphore for worker count
	taskQueue  chan *Task    // Task queue
	wg         sync.WaitGroup

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// New creates a new Scheduler with a source aggregator.
func New(cfg *SchedulerConfig, aggregator *source.Aggregator, processor TaskProcessor, logger utils.Logger) *Scheduler {
	if cfg == nil {
		cfg = DefaultSchedulerConfig()
	}
	if logger == nil {
		logger = &utils.NullLogger{}
	}

	return &Scheduler{
		config:     cfg,
		aggregator: aggregator,
		processor:  processor,
		logger:     logger,
		workerPool: make(chan struct{}, cfg.WorkerCount),
		taskQueue:  make(chan *Task, cfg.TaskBatchSize*2),
		stopCh:     make(chan struct{}),
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("starting scan job scheduler with %d workers", s.config.WorkerCount)

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	// Fill the worker pool semaphore
	for i := 0; i < s.config.WorkerCount; i++ {
		s.workerPool <- struct{}{}
	}

	// Start the aggregator
	if err := s.aggregator.Start(ctx); err != nil {
		return err
	}

	// Start the source-based event loop
	go s.sourceEventLoop(ctx)

	// Start the task processing loop
	go s.processLoop(ctx)

	return nil
}

// Stop stops the scheduler gracefully.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scan job scheduler...")

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)

	// Wait for all workers to complete
	s.wg.Wait()
	s.logger.Info("scan job scheduler stopped")
}

// shouldAcceptTask determines if a task should be accepted based on priority.
func (s *Scheduler) shouldAcceptTask(task *Task) bool {
	activeWorkers := s.config.WorkerCount - len(s.workerPool)
	reservedSlots := s.config.WorkerCount - s.config.PrioritySlots

	// High priority tasks can always be accepted if there's capacity
	if task.Priority > 0 {
		return activeWorkers < s.config.WorkerCount
	}

	// Normal priority tasks can only use non-reserved slots
	return activeWorkers < reservedSlots
}

// processLoop processes queued tasks.
func (s *Scheduler) processLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case task := <-s.taskQueue:
			// Acquire a worker slot
			select {
			case <-s.workerPool:
				s.wg.Add(1)
				go s.processTask(ctx, task)
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			}
		}
	}
}

// processTask processes a single scan job.
func (s *Scheduler) processTask(ctx context.Context, task *Task) {
	defer func() {
		s.workerPool <- struct{}{} // Release worker slot
		s.wg.Done()
	}()

	s.logger.Info("processing scan job %d (job=%s, roots=%d)", task.ID, task.JobUUID, len(task.Roots))

	startTime := time.Now()
	err := s.processor.Process(ctx, task)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("scan job %d failed after %v: %v", task.ID, duration, err)
		return
	}

	s.logger.Info("scan job %d completed successfully in %v", task.ID, duration)
}

// sourceEventLoop receives task events from the aggregator and queues them for processing.
func (s *Scheduler) sourceEventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case event, ok := <-s.aggregator.Tasks():
			if !ok {
				s.logger.Info("aggregator channel closed")
				return
			}

			task := convertEventToTask(event)

			if !s.shouldAcceptTask(task) {
				s.logger.Debug("skipping scan job %d due to priority constraints", task.ID)
				continue
			}

			select {
			case s.taskQueue <- task:
				s.logger.Info("queued scan job %d (job=%s) from source %s/%s",
					task.ID, task.JobUUID, event.SourceType, event.SourceName)
			default:
				// Queue full, nack the event so it can be retried
				s.logger.Warn("task queue full, nacking scan job %d", task.ID)
				if err := s.aggregator.Nack(ctx, event, "task queue full"); err != nil {
					s.logger.Error("failed to nack event: %v", err)
				}
			}
		}
	}
}

// convertEventToTask converts a source.TaskEvent to a scanjobs.Task.
func convertEventToTask(event *source.TaskEvent) *Task {
	t := event.Task
	return &Task{
		ID:       t.ID,
		JobUUID:  t.JobUUID,
		Source:   t.Source,
		Roots:    t.Roots,
		Params:   t.RequestParams,
		Priority: event.Priority,
	}
}

// Stats returns current scheduler statistics.
func (s *Scheduler) Stats() SchedulerStats {
	return SchedulerStats{
		ActiveWorkers: s.config.WorkerCount - len(s.workerPool),
		TotalWorkers:  s.config.WorkerCount,
		QueuedTasks:   len(s.taskQueue),
		Running:       s.running,
	}
}

// SchedulerStats holds scheduler statistics.
type SchedulerStats struct {
	ActiveWorkers int  `json:"active_workers"`
	TotalWorkers  int  `json:"total_workers"`
	QueuedTasks   int  `json:"queued_tasks"`
	Running       bool `json:"running"`
}
