package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/garnizeh/fixmate/api"
	dbfs "github.com/garnizeh/fixmate/db"
	"github.com/garnizeh/fixmate/internal/assets"
	"github.com/garnizeh/fixmate/internal/config"
	"github.com/garnizeh/fixmate/internal/db"
	"github.com/garnizeh/fixmate/internal/identity"
	"github.com/garnizeh/fixmate/internal/jobs"
	"github.com/garnizeh/fixmate/internal/notify"
	"github.com/garnizeh/fixmate/internal/repository/sqlite"
	"github.com/garnizeh/fixmate/internal/scheduler"
	"github.com/garnizeh/fixmate/internal/workflow"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	api.SetLogger(logger)

	// a missing .env is fine; real deployments use the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to load .env", slog.String("error", err.Error()))
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fatal(logger, "failed to load config", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal(logger, "invalid config", err)
	}

	logger.Info("starting fixmate server", slog.String("version", version), slog.String("build_time", buildTime))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open database connection
	conn, err := db.New(ctx, cfg.DatabasePath, logger)
	if err != nil {
		fatal(logger, "failed to open DB", err)
	}
	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, conn, dbfs.Migrations); err != nil {
			fatal(logger, "failed to migrate DB", err)
		}
	}

	repo := sqlite.New(conn, logger)

	// Background email delivery
	mailer := notify.NewMailer(cfg.SMTP, logger)
	pool := jobs.NewWorkerPool(repo, map[string]jobs.Handler{
		notify.JobVerificationEmail: notify.VerificationHandler(mailer),
	}, logger, cfg.Jobs.Workers)
	pool.Start(ctx)

	identitySvc := identity.New(repo, repo, identity.Options{
		RequireVerification: cfg.Identity.RequireVerification,
		TokenSecret:         cfg.Identity.TokenSecret,
		TokenTTL:            cfg.Identity.TokenTTL,
		PublicBaseURL:       cfg.PublicBaseURL,
		MaxAttempts:         cfg.Jobs.MaxAttempts,
	}, logger)

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(repo, scheduler.Options{
			Interval:   cfg.Scheduler.Interval,
			RunOnStart: cfg.Scheduler.RunOnStart,
		}, logger)
		go sched.Start(ctx)
	}

	handler := api.SetupRoutes(cfg, version, buildTime, api.Deps{
		Identity: identitySvc,
		Assets:   assets.New(repo, logger),
		Workflow: workflow.New(repo, logger),
		Ping:     conn.GetConn().PingContext,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal(logger, "server failed to start", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Stop the scheduler and job workers before draining HTTP
	cancel()
	pool.Stop()

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	// Close database connection
	if err := conn.Close(); err != nil {
		logger.Error("error closing DB", slog.String("error", err.Error()))
	}

	logger.Info("server exited")
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}
