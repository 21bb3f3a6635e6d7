package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ RunRepository = (*SQLiteRunRepository)(nil)

type SQLiteRunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *SQLiteRunRepository {
	return &SQLiteRunRepository{db: db}
}

func (r *SQLiteRunRepository) StartRun(id, jobName string, startedAt time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO job_runs (id, job_name, started_at, status)
		VALUES (?, ?, ?, ?)
	`, id, jobName, dbTime(startedAt), RunStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

func (r *SQLiteRunRepository) FinishRun(id string, finishedAt time.Time, outcome RunOutcome) error {
	_, err := r.db.Exec(`
		UPDATE job_runs
		SET finished_at = ?, status = ?, pairs = ?, articles = ?, error = ?
		WHERE id = ?
	`, dbTime(finishedAt), outcome.Status, outcome.Pairs, outcome.Articles, outcome.Error, id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// GetRecentRuns returns the job's runs, newest first.
func (r *SQLiteRunRepository) GetRecentRuns(jobName string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, job_name, started_at, finished_at, status, pairs, articles, error
		FROM job_runs
		WHERE job_name = ?
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, jobName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var finishedAt sql.NullTime
		var status string

		err := rows.Scan(&run.ID, &run.JobName, &run.StartedAt, &finishedAt, &status, &run.Pairs, &run.Articles, &run.Error)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}

		run.StartedAt = run.StartedAt.UTC()
		run.FinishedAt = nullTimePtr(finishedAt)
		run.Status = RunStatus(status)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	return runs, nil
}
