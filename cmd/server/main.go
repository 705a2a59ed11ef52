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

	"github.com/costwatch/costwatch/internal/api"
	"github.com/costwatch/costwatch/internal/auth"
	"github.com/costwatch/costwatch/internal/awsbilling"
	"github.com/costwatch/costwatch/internal/config"
	"github.com/costwatch/costwatch/internal/cost"
	"github.com/costwatch/costwatch/internal/database"
	"github.com/costwatch/costwatch/internal/ingest"
	"github.com/costwatch/costwatch/internal/resource"
	"github.com/costwatch/costwatch/internal/scheduler"
	"github.com/costwatch/costwatch/internal/team"
	"github.com/costwatch/costwatch/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	userRepo := user.NewRepository(db.Pool())
	teamRepo := team.NewRepository(db.Pool())
	resourceRepo := resource.NewRepository(db.Pool())
	costRepo := cost.NewRepository(db.Pool())

	authService := auth.NewService(
		userRepo,
		cfg.TokenSecret,
		time.Duration(cfg.TokenTTLMinutes)*time.Minute,
		cfg.BcryptCost,
	)

	var ingester *ingest.Ingester
	if cfg.IngestEnabled {
		billingClient, err := awsbilling.NewClient(ctx, cfg.AWSRegion, cfg.AWSAccessKeyID, cfg.AWSSecretKey, cfg.CostTagKey)
		if err != nil {
			slog.Error("failed to create billing client", "error", err)
			os.Exit(1)
		}

		ingester = ingest.New(billingClient, teamRepo, costRepo, cfg.IngestMaxRetries)

		sched := scheduler.New(ingester)
		go sched.Start(ctx)
	} else {
		slog.Warn("cost ingestion disabled by configuration")
	}

	router := api.NewRouter(api.RouterDeps{
		AuthService:   authService,
		UserRepo:      userRepo,
		TeamRepo:      teamRepo,
		ResourceRepo:  resourceRepo,
		CostRepo:      costRepo,
		Ingester:      ingester,
		DBPinger:      db,
		AllowedOrigin: cfg.AllowedOrigin,
		Version:       cfg.Version,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting costwatch server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	cancel() // stops the ingestion scheduler

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
