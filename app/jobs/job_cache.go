package jobs

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/regwatch/app/news"
)

var ErrNoKeywordPairs = errors.New("job needs at least two keywords")

const DefaultSubject = "Daily Regulatory News Summary"

type JobCache struct {
	jobsDir string
	getenv  func(string) string
	cache   map[string]*Job
	mu      sync.RWMutex
}

func NewJobCache(jobsDir string) *JobCache {
	return &JobCache{
		jobsDir: jobsDir,
		getenv:  os.Getenv,
		cache:   make(map[string]*Job),
	}
}

func (jc *JobCache) Run() error {
	if _, err := os.Stat(jc.jobsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(jc.jobsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		jobName := strings.TrimSuffix(filepath.Base(file), ".yml")

		job, err := jc.LoadJob(jobName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Job loaded", "job", jobName, "enabled", job.Enabled, "schedule", job.Schedule, "window", job.Mode().String())
	}

	return nil
}

func (jc *JobCache) LoadJob(jobName string) (*Job, error) {
	jobFile := jc.getJobFilePath(jobName)
	job, err := jc.parseJob(jobFile)
	if err != nil {
		return nil, err
	}

	job.Name = jobName

	if err := jc.validateJob(job); err != nil {
		return nil, fmt.Errorf("invalid job %s: %w", jobFile, err)
	}

	jc.mu.Lock()
	defer jc.mu.Unlock()
	jc.cache[job.Name] = job

	return job, nil
}

func (jc *JobCache) GetJob(jobName string) (*Job, error) {
	jc.mu.RLock()
	defer jc.mu.RUnlock()

	job, ok := jc.cache[jobName]
	if !ok {
		return nil, fmt.Errorf("job with name '%s' not found", jobName)
	}
	return job, nil
}

func (jc *JobCache) GetJobs() map[string]*Job {
	jc.mu.RLock()
	defer jc.mu.RUnlock()

	jobsCopy := make(map[string]*Job, len(jc.cache))
	for k, v := range jc.cache {
		jobsCopy[k] = v
	}
	return jobsCopy
}

func (jc *JobCache) GetEnabledJobs() map[string]*Job {
	jc.mu.RLock()
	defer jc.mu.RUnlock()

	enabledJobs := make(map[string]*Job)
	for k, v := range jc.cache {
		if v.Enabled {
			enabledJobs[k] = v
		}
	}
	return enabledJobs
}

func (jc *JobCache) GetJobCount() int {
	jc.mu.RLock()
	defer jc.mu.RUnlock()
	return len(jc.cache)
}

// Names returns job names sorted alphabetically.
func Names(jobs map[string]*Job) []string {
	names := make([]string, 0, len(jobs))
	for name := range jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (jc *JobCache) parseJob(jobFile string) (*Job, error) {
	data, err := os.ReadFile(jobFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if job.Schedule == "" {
		job.Schedule = "10:05"
	}
	if job.Window.Mode == "" {
		job.Window.Mode = string(news.WindowUnrestricted)
	}
	if job.Window.Mode != string(news.WindowUnrestricted) && job.Window.EndHour == 0 {
		job.Window.EndHour = 24
	}
	if job.Email.Subject == "" {
		job.Email.Subject = DefaultSubject
	}

	return &job, nil
}

func (jc *JobCache) validateJob(job *Job) error {
	if job == nil {
		return fmt.Errorf("job is nil")
	}

	clock, err := ParseClock(job.Schedule)
	if err != nil {
		return err
	}
	job.clock = clock

	if len(news.Pairs(job.AllKeywords())) == 0 {
		return ErrNoKeywordPairs
	}
	for i, keyword := range job.AllKeywords() {
		if strings.TrimSpace(keyword) == "" {
			return fmt.Errorf("keyword at index %d is empty", i)
		}
	}

	if err := job.Mode().Validate(); err != nil {
		return fmt.Errorf("invalid window: %w", err)
	}

	requiredEmailFields := map[string]string{
		"email sender":       job.Email.Sender,
		"email password_env": job.Email.PasswordEnv,
	}

	for fieldName, fieldValue := range requiredEmailFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	if len(job.Email.Recipients) == 0 {
		return fmt.Errorf("at least one email recipient is required")
	}
	for i, recipient := range job.Email.Recipients {
		if !strings.Contains(recipient, "@") {
			return fmt.Errorf("invalid recipient at index %d: %s", i, recipient)
		}
	}

	job.Email.password = jc.getenv(job.Email.PasswordEnv)
	if job.Email.password == "" {
		return fmt.Errorf("environment variable %s is not set", job.Email.PasswordEnv)
	}

	return nil
}

func (jc *JobCache) getJobFilePath(jobName string) string {
	return filepath.Join(jc.jobsDir, jobName+".yml")
}

// Select returns the named jobs in the given order, or every enabled job
// when no names are given. Naming a disabled job selects it anyway.
func (jc *JobCache) Select(names []string) ([]*Job, error) {
	if len(names) == 0 {
		enabled := jc.GetEnabledJobs()
		selected := make([]*Job, 0, len(enabled))
		for _, name := range Names(enabled) {
			selected = append(selected, enabled[name])
		}
		return selected, nil
	}

	selected := make([]*Job, 0, len(names))
	for _, name := range names {
		job, err := jc.GetJob(name)
		if err != nil {
			return nil, err
		}
		selected = append(selected, job)
	}
	return selected, nil
}
