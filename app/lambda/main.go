package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/lysyi3m/regwatch/app/cfg"
	"github.com/lysyi3m/regwatch/app/database"
	"github.com/lysyi3m/regwatch/app/jobs"
	"github.com/lysyi3m/regwatch/app/tasks"
)

// Event selects jobs by name. An empty list runs every enabled job.
type Event struct {
	Job  string   `json:"job"`
	Jobs []string `json:"jobs"`
}

func (e Event) names() []string {
	if e.Job != "" {
		return append([]string{e.Job}, e.Jobs...)
	}
	return e.Jobs
}

type Response struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Jobs       []string `json:"jobs"`
}

func Handler(ctx context.Context, event Event) (Response, error) {
	// The function filesystem is read-only outside /tmp.
	if os.Getenv("DB_PATH") == "" {
		os.Setenv("DB_PATH", "/tmp/regwatch.db")
	}

	c, err := cfg.LoadArgs(nil)
	if err != nil {
		return Response{StatusCode: 400, Message: err.Error()}, err
	}

	slog.SetDefault(cfg.NewLogger(c, os.Stdout))

	jobCache := jobs.NewJobCache(c.JobsDir)
	if err := jobCache.Run(); err != nil {
		return Response{StatusCode: 400, Message: err.Error()}, err
	}

	selected, err := jobCache.Select(event.names())
	if err != nil {
		return Response{StatusCode: 404, Message: err.Error()}, err
	}

	names := make([]string, 0, len(selected))
	for _, job := range selected {
		names = append(names, job.Name)
	}

	db, err := database.NewConnection(c.DBPath)
	if err != nil {
		return Response{StatusCode: 500, Message: err.Error(), Jobs: names}, err
	}
	defer db.Close()

	if err := tasks.RunOnce(ctx, tasks.NewServices(c, db), selected); err != nil {
		slog.Error("Run failed", "jobs", names, "error", err)
		return Response{StatusCode: 500, Message: err.Error(), Jobs: names}, err
	}

	return Response{
		StatusCode: 200,
		Message:    fmt.Sprintf("Delivered %d digest(s)", len(names)),
		Jobs:       names,
	}, nil
}

func main() {
	lambda.Start(Handler)
}
