package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ JobRepository = (*SQLiteJobRepository)(nil)

type SQLiteJobRepository struct {
	db *DB
}

func NewJobRepository(db *DB) *SQLiteJobRepository {
	return &SQLiteJobRepository{db: db}
}

func (r *SQLiteJobRepository) GetJob(name string) (*Job, error) {
	var job Job
	var lastRunAt, nextRunAt sql.NullTime

	err := r.db.QueryRow(`
		SELECT name, last_run_at, next_run_at, created_at, updated_at
		FROM jobs
		WHERE name = ?
	`, name).Scan(&job.Name, &lastRunAt, &nextRunAt, &job.CreatedAt, &job.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	job.LastRunAt = nullTimePtr(lastRunAt)
	job.NextRunAt = nullTimePtr(nextRunAt)

	return &job, nil
}

// UpsertJob registers the job. An existing next run is only moved earlier, so
// an overdue run still fires once and a restart never reschedules a sent digest.
func (r *SQLiteJobRepository) UpsertJob(name string, nextRunAt time.Time) error {
	existing, err := r.GetJob(name)
	if err != nil {
		return fmt.Errorf("failed to check existing job: %w", err)
	}

	now := dbTime(time.Now())
	next := dbTime(nextRunAt)

	if existing == nil {
		_, err = r.db.Exec(`
			INSERT INTO jobs (name, next_run_at, created_at, updated_at)
			VALUES (?, ?, ?, ?)
		`, name, next, now, now)
	} else {
		if existing.NextRunAt != nil && existing.NextRunAt.Before(next) {
			next = dbTime(*existing.NextRunAt)
		}
		_, err = r.db.Exec(`
			UPDATE jobs
			SET next_run_at = ?, updated_at = ?
			WHERE name = ?
		`, next, now, name)
	}

	if err != nil {
		return fmt.Errorf("failed to upsert job: %w", err)
	}

	return nil
}

func (r *SQLiteJobRepository) UpdateSchedule(name string, lastRunAt time.Time, nextRunAt time.Time) error {
	result, err := r.db.Exec(`
		UPDATE jobs
		SET last_run_at = ?, next_run_at = ?, updated_at = ?
		WHERE name = ?
	`, dbTime(lastRunAt), dbTime(nextRunAt), dbTime(time.Now()), name)
	if err != nil {
		return fmt.Errorf("failed to update job schedule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %s is not registered", name)
	}

	return nil
}

func (r *SQLiteJobRepository) GetJobCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM jobs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get job count: %w", err)
	}
	return count, nil
}

// dbTime stores instants in UTC at second precision.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
