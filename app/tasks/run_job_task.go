package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/regwatch/app/database"
	"github.com/lysyi3m/regwatch/app/digest"
	"github.com/lysyi3m/regwatch/app/jobs"
)

// RunJobTask fetches, composes and delivers one job's digest. The composed
// message survives a failed delivery so a retry only re-sends.
type RunJobTask struct {
	Task
	job      *jobs.Job
	services *Services

	runID     string
	startedAt time.Time
	message   *digest.Message
	pairs     int
	articles  int
}

func NewRunJobTask(job *jobs.Job, services *Services) *RunJobTask {
	return &RunJobTask{
		Task:     NewTask(TaskTypeRunJob, job.Name),
		job:      job,
		services: services,
	}
}

func (t *RunJobTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if t.message == nil {
		if err := t.compose(ctx); err != nil {
			t.finish(database.RunStatusFailed, err)
			return err
		}
	}

	if err := t.services.Mailer.Send(ctx, t.message, t.job.Email.Password()); err != nil {
		err = fmt.Errorf("failed to deliver digest: %w", err)
		t.finish(database.RunStatusFailed, err)
		return err
	}

	t.finish(database.RunStatusSucceeded, nil)

	slog.Info("Task completed",
		"type", "RunJob",
		"job", t.JobName,
		"run_id", t.runID,
		"duration", t.GetDuration(),
		"pairs", t.pairs,
		"articles", t.articles,
		"recipients", len(t.message.To))

	return nil
}

func (t *RunJobTask) compose(ctx context.Context) error {
	t.startedAt = t.services.now()
	t.runID = uuid.NewString()

	if err := t.services.RunRepo.StartRun(t.runID, t.JobName, t.startedAt); err != nil {
		return fmt.Errorf("failed to record run start: %w", err)
	}

	runner, err := t.services.Builder.Build(t.job.IncludePublishedAt)
	if err != nil {
		return Permanent(err)
	}

	result := runner.Run(ctx, t.job.AllKeywords(), t.job.Mode())
	t.pairs = result.Len()
	t.articles = result.Total()

	envelope := digest.Envelope{
		From:    t.job.Email.Sender,
		To:      t.job.Email.Recipients,
		Subject: t.job.Email.Subject,
	}

	message, err := t.services.Composer.Compose(envelope, t.job.Mode(), result, t.services.now())
	if err != nil {
		return Permanent(fmt.Errorf("failed to compose digest: %w", err))
	}
	t.message = message

	return nil
}

// finish records the outcome and advances the schedule. Failures here are
// logged only; the digest outcome is what the caller acts on.
func (t *RunJobTask) finish(status database.RunStatus, runErr error) {
	now := t.services.now()

	if t.runID != "" {
		outcome := database.RunOutcome{Status: status, Pairs: t.pairs, Articles: t.articles}
		if runErr != nil {
			outcome.Error = runErr.Error()
		}
		if err := t.services.RunRepo.FinishRun(t.runID, now, outcome); err != nil {
			slog.Warn("Failed to record run outcome", "job", t.JobName, "run_id", t.runID, "error", err)
		}
	}

	lastRun := t.startedAt
	if lastRun.IsZero() {
		lastRun = now
	}
	nextRun := t.job.NextRun(now, t.services.Location)
	if err := t.services.JobRepo.UpdateSchedule(t.JobName, lastRun, nextRun); err != nil {
		slog.Warn("Failed to update job schedule", "job", t.JobName, "error", err)
	}
}
