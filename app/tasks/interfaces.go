package tasks

import (
	"context"
	"time"

	"github.com/lysyi3m/regwatch/app/database"
	"github.com/lysyi3m/regwatch/app/digest"
	"github.com/lysyi3m/regwatch/app/news"
)

// TaskSchedulerInterface is what the HTTP API and main need from the scheduler.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueJob(jobName string) (string, error)
}

// KeywordRunner produces one run result for a keyword list and window.
type KeywordRunner interface {
	Run(ctx context.Context, keywords []string, mode news.TimeFilterMode) *news.RunResult
}

// RunnerBuilder assembles a runner with credential pools fresh for a single run.
type RunnerBuilder interface {
	Build(includePublishedAt bool) (KeywordRunner, error)
}

type Mailer interface {
	Send(ctx context.Context, msg *digest.Message, password string) error
}

// Services bundles the collaborators every job task needs.
type Services struct {
	Builder  RunnerBuilder
	Composer *digest.Composer
	Mailer   Mailer
	JobRepo  database.JobRepository
	RunRepo  database.RunRepository
	Location *time.Location
	Now      func() time.Time
}

func (s *Services) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
