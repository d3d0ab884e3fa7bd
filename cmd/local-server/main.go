// Command local-server runs every function in one process against a local
// store, with the week-advancement job on an in-process schedule.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron"

	"github.com/ripixel/fitplan-server/pkg/bootstrap"
	"github.com/ripixel/fitplan-server/pkg/pipeline"
)

// defaultAdvanceSchedule runs five minutes past local midnight.
const defaultAdvanceSchedule = "0 5 0 * * *"

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}
	if os.Getenv("STORE_BACKEND") == "" {
		os.Setenv("STORE_BACKEND", bootstrap.BackendSQLite)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap.NewService(ctx, "local-server")
	if err != nil {
		slog.Error("Failed to initialize service", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := svc.Close(); closeErr != nil {
			slog.Error("Failed to close service", "error", closeErr)
		}
	}()
	logger := svc.Logger
	pipe := pipeline.FromService(svc)

	schedule := os.Getenv("ADVANCE_SCHEDULE")
	if schedule == "" {
		schedule = defaultAdvanceSchedule
	}
	jobs, err := startScheduler(schedule, pipe, logger)
	if err != nil {
		logger.Error("Invalid advance schedule", "schedule", schedule, "error", err)
		os.Exit(1)
	}
	defer jobs.Stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      NewRouter(svc, pipe),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Server listening", "port", port, "advance_schedule", schedule)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
}

// startScheduler registers AdvanceWeeks on the given cron spec in the
// pipeline's timezone.
func startScheduler(spec string, p *pipeline.Pipeline, logger *slog.Logger) (*cron.Cron, error) {
	c := cron.NewWithLocation(p.Location())
	err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		res, err := p.AdvanceWeeks(ctx)
		if err != nil {
			logger.Error("Scheduled advance failed", "error", err)
		}
		if res != nil {
			logger.Info("Scheduled advance complete", "checked", res.Checked,
				"advanced", res.Advanced, "completed", res.Completed)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
