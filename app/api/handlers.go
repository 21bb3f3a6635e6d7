package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/regwatch/app/database"
	"github.com/lysyi3m/regwatch/app/jobs"
	"github.com/lysyi3m/regwatch/app/tasks"
)

const defaultRunsLimit = 20

func NewHandler(jobSource JobSource, jobRepo database.JobRepository,
	runRepo database.RunRepository, scheduler tasks.TaskSchedulerInterface,
	location *time.Location) *Handler {
	if location == nil {
		location = time.Local
	}
	return &Handler{
		jobSource: jobSource,
		jobRepo:   jobRepo,
		runRepo:   runRepo,
		scheduler: scheduler,
		location:  location,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(h.location).Format(time.RFC3339),
	}

	if jobCount, err := h.jobRepo.GetJobCount(); err == nil {
		health["jobs"] = jobCount
	}

	health["loaded_configurations"] = h.jobSource.GetJobCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIListJobs(c *gin.Context) {
	configs := h.jobSource.GetJobs()

	list := make([]map[string]interface{}, 0, len(configs))

	for _, name := range jobs.Names(configs) {
		job := configs[name]
		jobInfo := map[string]interface{}{
			"name":       job.Name,
			"enabled":    job.Enabled,
			"schedule":   job.Schedule,
			"window":     job.Mode().String(),
			"pairs":      len(job.AllKeywords()) / 2,
			"recipients": len(job.Email.Recipients),
		}

		if dbJob, err := h.jobRepo.GetJob(name); err == nil && dbJob != nil {
			jobInfo["last_run_at"] = dbJob.LastRunAt
			jobInfo["next_run_at"] = dbJob.NextRunAt
		}

		list = append(list, jobInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"total": len(list),
	})
}

func (h *Handler) APIGetJobDetails(c *gin.Context) {
	name := c.Param("name")

	job, err := h.jobSource.GetJob(name)
	if err != nil {
		slog.Error("Job configuration not found", "job", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Job configuration not found"})
		return
	}

	dbJob, err := h.jobRepo.GetJob(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_job", "job", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	details := map[string]interface{}{
		"name":                 job.Name,
		"enabled":              job.Enabled,
		"schedule":             job.Schedule,
		"window":               job.Mode().String(),
		"keywords":             job.Keywords,
		"extra_keywords":       job.ExtraKeywords,
		"include_published_at": job.IncludePublishedAt,
		"email": map[string]interface{}{
			"sender":     job.Email.Sender,
			"recipients": job.Email.Recipients,
			"subject":    job.Email.Subject,
		},
	}

	if dbJob != nil {
		details["database"] = map[string]interface{}{
			"last_run_at": dbJob.LastRunAt,
			"next_run_at": dbJob.NextRunAt,
			"created_at":  dbJob.CreatedAt,
			"updated_at":  dbJob.UpdatedAt,
		}
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) APIListRuns(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.jobSource.GetJob(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job configuration not found"})
		return
	}

	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	runs, err := h.runRepo.GetRecentRuns(name, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_runs", "job", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	list := make([]map[string]interface{}, 0, len(runs))
	for _, run := range runs {
		list = append(list, map[string]interface{}{
			"id":          run.ID,
			"status":      run.Status,
			"started_at":  run.StartedAt,
			"finished_at": run.FinishedAt,
			"pairs":       run.Pairs,
			"articles":    run.Articles,
			"error":       run.Error,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"job":   name,
		"runs":  list,
		"total": len(list),
	})
}

func (h *Handler) APIRunJob(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.jobSource.GetJob(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job configuration not found"})
		return
	}

	taskID, err := h.scheduler.EnqueueJob(name)
	if err != nil {
		slog.Error("Error enqueueing run task", "job", name, "error", err)
		status := http.StatusServiceUnavailable
		if errors.Is(err, tasks.ErrJobInFlight) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{
			"error":   "Failed to enqueue run task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Job run enqueued",
		"task": gin.H{
			"id":   taskID,
			"type": tasks.TaskTypeRunJob,
			"job":  name,
		},
	})
}
