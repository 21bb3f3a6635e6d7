package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/regwatch/app/jobs"
)

// SyncJobTask registers a job in the database and seeds its next run.
type SyncJobTask struct {
	Task
	job      *jobs.Job
	services *Services
}

func NewSyncJobTask(job *jobs.Job, services *Services) *SyncJobTask {
	return &SyncJobTask{
		Task:     NewTask(TaskTypeSyncJob, job.Name),
		job:      job,
		services: services,
	}
}

func (t *SyncJobTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	nextRun := t.job.NextRun(t.services.now(), t.services.Location)

	if err := t.services.JobRepo.UpsertJob(t.JobName, nextRun); err != nil {
		slog.Error("Task failed", "type", "SyncJob", "job", t.JobName, "error", err)
		return fmt.Errorf("failed to sync job to database: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncJob",
		"job", t.JobName,
		"schedule", t.job.Schedule,
		"duration", t.GetDuration())

	return nil
}
