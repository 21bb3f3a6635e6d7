package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/regwatch/app/database"
	"github.com/lysyi3m/regwatch/app/digest"
	"github.com/lysyi3m/regwatch/app/jobs"
	"github.com/lysyi3m/regwatch/app/news"
)

var ist = time.FixedZone("IST", 19800)

// 2025-10-14 10:05 IST
var testNow = time.Date(2025, 10, 14, 10, 5, 0, 0, ist)

type mockRunner struct {
	result   *news.RunResult
	keywords []string
	mode     news.TimeFilterMode
	calls    int
}

func (m *mockRunner) Run(ctx context.Context, keywords []string, mode news.TimeFilterMode) *news.RunResult {
	m.calls++
	m.keywords = keywords
	m.mode = mode
	if m.result == nil {
		return news.NewRunResult()
	}
	return m.result
}

type mockBuilder struct {
	runner             *mockRunner
	err                error
	calls              int
	includePublishedAt bool
}

func (m *mockBuilder) Build(includePublishedAt bool) (KeywordRunner, error) {
	m.calls++
	m.includePublishedAt = includePublishedAt
	if m.err != nil {
		return nil, m.err
	}
	return m.runner, nil
}

type mockMailer struct {
	errs      []error
	calls     int
	messages  []*digest.Message
	passwords []string
}

func (m *mockMailer) Send(ctx context.Context, msg *digest.Message, password string) error {
	m.calls++
	m.messages = append(m.messages, msg)
	m.passwords = append(m.passwords, password)
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return err
	}
	return nil
}

type mockJobRepository struct {
	mu        sync.Mutex
	jobs      map[string]*database.Job
	upserts   map[string]time.Time
	schedules []scheduleUpdate
	err       error
}

type scheduleUpdate struct {
	name    string
	lastRun time.Time
	nextRun time.Time
}

func newMockJobRepository() *mockJobRepository {
	return &mockJobRepository{
		jobs:    make(map[string]*database.Job),
		upserts: make(map[string]time.Time),
	}
}

func (m *mockJobRepository) GetJob(name string) (*database.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.jobs[name], nil
}

func (m *mockJobRepository) GetJobCount() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs), nil
}

func (m *mockJobRepository) UpsertJob(name string, nextRunAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.upserts[name] = nextRunAt
	if _, ok := m.jobs[name]; !ok {
		next := nextRunAt
		m.jobs[name] = &database.Job{Name: name, NextRunAt: &next}
	}
	return nil
}

func (m *mockJobRepository) UpdateSchedule(name string, lastRunAt time.Time, nextRunAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules = append(m.schedules, scheduleUpdate{name: name, lastRun: lastRunAt, nextRun: nextRunAt})
	return nil
}

func (m *mockJobRepository) setNextRun(name string, next time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[name] = &database.Job{Name: name, NextRunAt: &next}
}

type mockRunRepository struct {
	started  []string
	outcomes map[string]database.RunOutcome
	err      error
}

func newMockRunRepository() *mockRunRepository {
	return &mockRunRepository{outcomes: make(map[string]database.RunOutcome)}
}

func (m *mockRunRepository) StartRun(id, jobName string, startedAt time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.started = append(m.started, id)
	return nil
}

func (m *mockRunRepository) FinishRun(id string, finishedAt time.Time, outcome database.RunOutcome) error {
	m.outcomes[id] = outcome
	return nil
}

func (m *mockRunRepository) GetRecentRuns(jobName string, limit int) ([]database.Run, error) {
	return nil, nil
}

type testHarness struct {
	services *Services
	builder  *mockBuilder
	runner   *mockRunner
	mailer   *mockMailer
	jobRepo  *mockJobRepository
	runRepo  *mockRunRepository
}

func newTestHarness() *testHarness {
	result := news.NewRunResult()
	result.Set("SEBI_RBI", []news.ArticleRecord{
		{Headline: "SEBI issues circular", SiteName: "Example News", URL: "https://example.com/a", Content: "SEBI issued a circular today."},
	})
	result.Set("GST_CBDT", nil)

	h := &testHarness{
		runner:  &mockRunner{result: result},
		mailer:  &mockMailer{},
		jobRepo: newMockJobRepository(),
		runRepo: newMockRunRepository(),
	}
	h.builder = &mockBuilder{runner: h.runner}
	h.services = &Services{
		Builder:  h.builder,
		Composer: digest.NewComposer(ist),
		Mailer:   h.mailer,
		JobRepo:  h.jobRepo,
		RunRepo:  h.runRepo,
		Location: ist,
		Now:      func() time.Time { return testNow },
	}
	return h
}

const founderJob = `
enabled: true
schedule: "10:05"
keywords: [SEBI, RBI, GST, CBDT]
window:
  mode: today
  start_hour: 7
  end_hour: 10
include_published_at: true
email:
  sender: founder@example.com
  password_env: TEST_TASKS_PASSWORD
  recipients: [founder@example.com]
  subject: Daily Regulatory News - Founder
`

const disabledJob = `
enabled: false
schedule: "09:00"
keywords: [fraud, penalty]
email:
  sender: member@example.com
  password_env: TEST_TASKS_PASSWORD
  recipients: [member@example.com]
`

func newTestJobCache(t *testing.T, files map[string]string) *jobs.JobCache {
	t.Helper()
	t.Setenv("TEST_TASKS_PASSWORD", "app-password")

	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name+".yml"), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	jobCache := jobs.NewJobCache(dir)
	if err := jobCache.Run(); err != nil {
		t.Fatalf("Failed to load jobs: %v", err)
	}
	return jobCache
}

func loadTestJob(t *testing.T, name string) *jobs.Job {
	t.Helper()
	jobCache := newTestJobCache(t, map[string]string{name: founderJob})
	job, err := jobCache.GetJob(name)
	if err != nil {
		t.Fatal(err)
	}
	return job
}

var errSMTP = errors.New("smtp: 421 service not available")
