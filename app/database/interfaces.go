package database

import (
	"time"
)

type JobRepository interface {
	GetJob(name string) (*Job, error)
	GetJobCount() (int, error)

	UpsertJob(name string, nextRunAt time.Time) error
	UpdateSchedule(name string, lastRunAt time.Time, nextRunAt time.Time) error
}

type RunRepository interface {
	StartRun(id, jobName string, startedAt time.Time) error
	FinishRun(id string, finishedAt time.Time, outcome RunOutcome) error
	GetRecentRuns(jobName string, limit int) ([]Run, error)
}
