package api

import (
	"time"

	"github.com/lysyi3m/regwatch/app/database"
	"github.com/lysyi3m/regwatch/app/jobs"
	"github.com/lysyi3m/regwatch/app/tasks"
)

// JobSource is the part of the job cache the handlers read from.
type JobSource interface {
	GetJob(jobName string) (*jobs.Job, error)
	GetJobs() map[string]*jobs.Job
	GetJobCount() int
}

var _ JobSource = (*jobs.JobCache)(nil)

type Handler struct {
	jobSource JobSource
	jobRepo   database.JobRepository
	runRepo   database.RunRepository
	scheduler tasks.TaskSchedulerInterface
	location  *time.Location
}
