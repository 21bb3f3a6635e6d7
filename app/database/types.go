package database

import (
	"time"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

type Job struct {
	Name      string // Job name derived from the YAML filename
	LastRunAt *time.Time
	NextRunAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Run struct {
	ID         string
	JobName    string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     RunStatus
	Pairs      int
	Articles   int
	Error      string
}

// RunOutcome is what a finished run reports back.
type RunOutcome struct {
	Status   RunStatus
	Pairs    int
	Articles int
	Error    string
}
