package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/regwatch/app/jobs"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const taskTimeout = time.Hour

var (
	ErrQueueFull   = errors.New("task queue is full")
	ErrJobInFlight = errors.New("job is already queued or running")
)

// Scheduler runs tasks on a single worker: a job run is sequential end to end
// and two runs never share provider quotas concurrently.
type Scheduler struct {
	jobCache  *jobs.JobCache
	services  *Services
	interval  time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	taskQueue chan TaskInterface

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewScheduler(jobCache *jobs.JobCache, services *Services, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		jobCache:  jobCache,
		services:  services,
		interval:  interval,
		ctx:       ctx,
		cancel:    cancel,
		taskQueue: make(chan TaskInterface, 100),
		inFlight:  make(map[string]bool),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return ErrQueueFull
	}
}

// EnqueueJob queues an immediate run of the named job.
func (s *Scheduler) EnqueueJob(jobName string) (string, error) {
	job, err := s.jobCache.GetJob(jobName)
	if err != nil {
		return "", err
	}

	if !s.claim(jobName) {
		return "", fmt.Errorf("%w: %s", ErrJobInFlight, jobName)
	}

	task := NewRunJobTask(job, s.services)
	if err := s.EnqueueTask(task); err != nil {
		s.release(jobName)
		return "", err
	}
	return task.GetID(), nil
}

func (s *Scheduler) enqueueStartupTasks() {
	allJobs := s.jobCache.GetJobs()
	if len(allJobs) == 0 {
		slog.Debug("No job configurations found")
		return
	}

	slog.Debug("Processing job configurations", "count", len(allJobs))

	for _, name := range jobs.Names(allJobs) {
		syncTask := NewSyncJobTask(allJobs[name], s.services)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncJobTask", "job", name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	enabledJobs := s.jobCache.GetEnabledJobs()
	if len(enabledJobs) == 0 {
		slog.Debug("No enabled job configurations found")
		return
	}

	now := s.services.now()

	for _, name := range jobs.Names(enabledJobs) {
		job, err := s.services.JobRepo.GetJob(name)
		if err != nil {
			slog.Warn("Failed to get job from database, skipping", "job", name, "error", err)
			continue
		}
		if job == nil || job.NextRunAt == nil {
			slog.Warn("Job not registered in database, skipping", "job", name)
			continue
		}

		if job.NextRunAt.After(now) {
			slog.Debug("Job not due yet", "job", name, "next_run_at", job.NextRunAt)
			continue
		}

		if !s.claim(name) {
			slog.Debug("Job already queued or running", "job", name)
			continue
		}

		if err := s.EnqueueTask(NewRunJobTask(enabledJobs[name], s.services)); err != nil {
			s.release(name)
			slog.Warn("Failed to enqueue RunJobTask", "job", name, "error", err)
		}
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		s.done(task)
		return
	}

	slog.Error("Worker task execution failed", "type", string(task.GetType()), "id", task.GetID(), "job", task.GetJobName(), "retry_count", task.GetRetryCount(), "error", err)

	if IsPermanent(err) || !task.CanRetry() {
		slog.Error("Task failed permanently", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		s.done(task)
		return
	}

	task.IncrementRetryCount()
	delay := retryDelay(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "job", task.GetJobName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", delay.String())

	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			return
		case <-timer.C:
		}

		if retryErr := s.EnqueueTask(task); retryErr != nil {
			slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			s.done(task)
		}
	}()
}

func (s *Scheduler) claim(jobName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[jobName] {
		return false
	}
	s.inFlight[jobName] = true
	return true
}

func (s *Scheduler) release(jobName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, jobName)
}

func (s *Scheduler) done(task TaskInterface) {
	if task.GetType() == TaskTypeRunJob {
		s.release(task.GetJobName())
	}
}
