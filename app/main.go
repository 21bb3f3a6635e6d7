package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/regwatch/app/api"
	"github.com/lysyi3m/regwatch/app/cfg"
	"github.com/lysyi3m/regwatch/app/database"
	"github.com/lysyi3m/regwatch/app/jobs"
	"github.com/lysyi3m/regwatch/app/tasks"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if c == nil {
		return
	}

	slog.SetDefault(cfg.NewLogger(c, os.Stdout))

	slog.Info("Starting regwatch", "version", c.Version, "timezone", c.Timezone, "search_provider", c.SearchProvider)

	jobCache := jobs.NewJobCache(c.JobsDir)
	if err := jobCache.Run(); err != nil {
		slog.Error("Failed to load jobs", "jobs_dir", c.JobsDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Jobs loaded", "jobs_dir", c.JobsDir, "count", jobCache.GetJobCount())

	db, err := database.NewConnection(c.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "path", c.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	services := tasks.NewServices(c, db)

	if c.Once {
		if err := runOnce(jobCache, services, c.Jobs); err != nil {
			slog.Error("Run failed", "error", err)
			db.Close()
			os.Exit(1)
		}
		return
	}

	if err := serve(c, jobCache, services); err != nil {
		slog.Error("Server error", "error", err)
		db.Close()
		os.Exit(1)
	}
}

func runOnce(jobCache *jobs.JobCache, services *tasks.Services, names []string) error {
	selected, err := jobCache.Select(names)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		slog.Warn("No enabled jobs to run")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return tasks.RunOnce(ctx, services, selected)
}

func serve(c *cfg.Cfg, jobCache *jobs.JobCache, services *tasks.Services) error {
	scheduler := tasks.NewScheduler(jobCache, services, time.Duration(c.SchedulerInterval)*time.Second)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(jobCache, services.JobRepo, services.RunRepo, scheduler, c.Location)

	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      api.NewServer(handler, c.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", c.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var serverErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case serverErr = <-serverErrChan:
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown error", "error", err)
	}

	return serverErr
}
