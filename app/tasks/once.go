package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/regwatch/app/jobs"
)

// RunOnce syncs and runs each job in order without the scheduler, retrying
// in place. It reports an error when any job ends without a delivered digest.
func RunOnce(ctx context.Context, services *Services, selected []*jobs.Job) error {
	var errs []error

	for _, job := range selected {
		if err := runToCompletion(ctx, NewSyncJobTask(job, services)); err != nil {
			errs = append(errs, fmt.Errorf("job %s: %w", job.Name, err))
			continue
		}

		if err := runToCompletion(ctx, NewRunJobTask(job, services)); err != nil {
			errs = append(errs, fmt.Errorf("job %s: %w", job.Name, err))
		}
	}

	return errors.Join(errs...)
}

func runToCompletion(ctx context.Context, task TaskInterface) error {
	task.Start()

	for {
		taskCtx, cancel := context.WithTimeout(ctx, taskTimeout)
		err := task.Execute(taskCtx)
		cancel()

		if err == nil {
			return nil
		}
		if IsPermanent(err) || !task.CanRetry() || ctx.Err() != nil {
			return err
		}

		task.IncrementRetryCount()
		delay := retryDelay(task.GetRetryCount())
		slog.Warn("Task retry scheduled", "type", string(task.GetType()), "job", task.GetJobName(), "retry_count", task.GetRetryCount(), "delay", delay.String(), "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}
