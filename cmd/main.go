package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pr-reminder/internal/config"
	"pr-reminder/internal/github"
	"pr-reminder/internal/job"
	"pr-reminder/internal/logger"
	"pr-reminder/internal/notifier"
	"pr-reminder/internal/reminder"
)

func main() {
	// Load configuration
	cfg, err := config.Load(config.Path())
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Log); err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}

	slog.Info("PR reminder started",
		"log_file", cfg.Log.File,
		"log_level", cfg.Log.Level)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		slog.Info("Shutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, cfg, time.Now); err != nil {
		slog.Error("Application error", "error", err)
		os.Exit(1)
	}

	slog.Info("Shutdown complete.")
}

// run checks the GitHub connection and then runs the reminder job once, or on
// every interval until ctx is canceled when a schedule is configured.
func run(ctx context.Context, cfg *config.Config, clock func() time.Time) error {
	client := github.NewClient(cfg.GitHub)
	if err := client.TestConnection(ctx); err != nil {
		return fmt.Errorf("GitHub connection test failed: %w", err)
	}
	slog.Info("GitHub connection test succeeded")

	notifiers := notifier.FromConfig(cfg.Notifiers)
	names := make([]string, 0, len(notifiers))
	for _, n := range notifiers {
		names = append(names, n.Name())
	}
	slog.Info("Loaded configuration",
		"repositories", len(cfg.GitHub.Repositories),
		"freeze_date", cfg.Reminder.FreezeDate,
		"notifiers", names,
		"interval_hours", cfg.Schedule.IntervalHours,
	)

	reminderJob := &job.Job{
		Source:         client,
		Notifiers:      notifiers,
		Composer:       reminder.NewComposer(cfg.ComposerConfig()),
		Repositories:   cfg.GitHub.Repositories,
		FreezeDate:     cfg.Reminder.FreezeDate,
		ExcludeLabels:  cfg.Reminder.ExcludeLabels,
		IgnoreKeywords: cfg.Reminder.IgnoreKeywords,
	}

	if cfg.Schedule.IntervalHours <= 0 {
		return reminderJob.Run(ctx, clock())
	}

	interval := time.Duration(cfg.Schedule.IntervalHours) * time.Hour
	for {
		if err := reminderJob.Run(ctx, clock()); err != nil {
			slog.Error("Reminder run failed", "error", err)
		}

		slog.Info("Sleeping until next run...", "hours", cfg.Schedule.IntervalHours)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}
