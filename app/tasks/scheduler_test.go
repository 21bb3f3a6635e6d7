package tasks

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mockTask struct {
	Task
	err   error
	calls int
}

func (m *mockTask) Execute(ctx context.Context) error {
	m.calls++
	return m.err
}

func TestSchedulerEnqueuesDueEnabledJobs(t *testing.T) {
	h := newTestHarness()
	jobCache := newTestJobCache(t, map[string]string{
		"founder":    founderJob,
		"new_member": disabledJob,
	})
	s := NewScheduler(jobCache, h.services, time.Minute)

	h.jobRepo.setNextRun("founder", testNow.Add(-time.Minute))
	h.jobRepo.setNextRun("new_member", testNow.Add(-time.Minute))

	s.enqueueTasks()

	if len(s.taskQueue) != 1 {
		t.Fatalf("Expected 1 queued task, got %d", len(s.taskQueue))
	}
	task := <-s.taskQueue
	if task.GetType() != TaskTypeRunJob || task.GetJobName() != "founder" {
		t.Errorf("Expected founder run task, got %s %s", task.GetType(), task.GetJobName())
	}

	// founder is still in flight, so the next tick must not queue it again
	s.enqueueTasks()
	if len(s.taskQueue) != 0 {
		t.Errorf("Expected no duplicate task, got %d", len(s.taskQueue))
	}
}

func TestSchedulerSkipsJobsNotDue(t *testing.T) {
	h := newTestHarness()
	jobCache := newTestJobCache(t, map[string]string{"founder": founderJob})
	s := NewScheduler(jobCache, h.services, time.Minute)

	h.jobRepo.setNextRun("founder", testNow.Add(time.Hour))
	s.enqueueTasks()

	if len(s.taskQueue) != 0 {
		t.Errorf("Expected no queued task, got %d", len(s.taskQueue))
	}
}

func TestSchedulerSkipsUnregisteredJobs(t *testing.T) {
	h := newTestHarness()
	jobCache := newTestJobCache(t, map[string]string{"founder": founderJob})
	s := NewScheduler(jobCache, h.services, time.Minute)

	s.enqueueTasks()

	if len(s.taskQueue) != 0 {
		t.Errorf("Expected no queued task, got %d", len(s.taskQueue))
	}
}

func TestSchedulerStartupSyncsAllJobs(t *testing.T) {
	h := newTestHarness()
	jobCache := newTestJobCache(t, map[string]string{
		"founder":    founderJob,
		"new_member": disabledJob,
	})
	s := NewScheduler(jobCache, h.services, time.Minute)

	s.enqueueStartupTasks()

	if len(s.taskQueue) != 2 {
		t.Fatalf("Expected 2 sync tasks, got %d", len(s.taskQueue))
	}
	for i := 0; i < 2; i++ {
		task := <-s.taskQueue
		if task.GetType() != TaskTypeSyncJob {
			t.Errorf("Expected sync task, got %s", task.GetType())
		}
	}
}

func TestSchedulerEnqueueJob(t *testing.T) {
	h := newTestHarness()
	jobCache := newTestJobCache(t, map[string]string{"founder": founderJob})
	s := NewScheduler(jobCache, h.services, time.Minute)

	id, err := s.EnqueueJob("founder")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if id == "" {
		t.Error("Expected task ID")
	}

	if _, err := s.EnqueueJob("founder"); !errors.Is(err, ErrJobInFlight) {
		t.Errorf("Expected ErrJobInFlight, got %v", err)
	}

	if _, err := s.EnqueueJob("missing"); err == nil {
		t.Error("Expected error for unknown job")
	}
}

func TestSchedulerPermanentFailureReleasesJob(t *testing.T) {
	h := newTestHarness()
	jobCache := newTestJobCache(t, map[string]string{"founder": founderJob})
	s := NewScheduler(jobCache, h.services, time.Minute)
	defer s.Stop()

	task := &mockTask{Task: NewTask(TaskTypeRunJob, "founder"), err: Permanent(errors.New("bad config"))}
	s.claim("founder")

	s.executeTask(task)

	if task.calls != 1 {
		t.Errorf("Expected 1 execution, got %d", task.calls)
	}
	if task.GetRetryCount() != 0 {
		t.Errorf("Expected no retry, got %d", task.GetRetryCount())
	}
	if !s.claim("founder") {
		t.Error("Expected job to be released after permanent failure")
	}
}

func TestSchedulerRetryKeepsJobInFlight(t *testing.T) {
	h := newTestHarness()
	jobCache := newTestJobCache(t, map[string]string{"founder": founderJob})
	s := NewScheduler(jobCache, h.services, time.Minute)
	defer s.Stop()

	task := &mockTask{Task: NewTask(TaskTypeRunJob, "founder"), err: errors.New("timeout")}
	s.claim("founder")

	s.executeTask(task)

	if task.GetRetryCount() != 1 {
		t.Errorf("Expected retry count 1, got %d", task.GetRetryCount())
	}
	if s.claim("founder") {
		t.Error("Expected job to stay in flight while a retry is pending")
	}

	select {
	case requeued := <-s.taskQueue:
		if requeued != TaskInterface(task) {
			t.Error("Expected the same task to be re-enqueued")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Expected task to be re-enqueued")
	}
}

func TestSchedulerRunsDueJobEndToEnd(t *testing.T) {
	h := newTestHarness()
	jobCache := newTestJobCache(t, map[string]string{"founder": founderJob})
	s := NewScheduler(jobCache, h.services, 20*time.Millisecond)

	h.jobRepo.setNextRun("founder", testNow.Add(-time.Minute))

	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		h.jobRepo.mu.Lock()
		updates := len(h.jobRepo.schedules)
		h.jobRepo.mu.Unlock()
		if updates > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Expected the due job to run")
}

func TestSchedulerEnqueueJobQueueFull(t *testing.T) {
	h := newTestHarness()
	jobCache := newTestJobCache(t, map[string]string{"founder": founderJob})
	s := NewScheduler(jobCache, h.services, time.Minute)

	for i := 0; i < cap(s.taskQueue); i++ {
		if err := s.EnqueueTask(&mockTask{Task: NewTask(TaskTypeSyncJob, "other")}); err != nil {
			t.Fatalf("Expected queue to accept task %d, got %v", i, err)
		}
	}

	if _, err := s.EnqueueJob("founder"); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Expected ErrQueueFull, got %v", err)
	}
	if !s.claim("founder") {
		t.Error("Expected job to be released when the queue is full")
	}
}
