package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/weathercal/internal/adapter/http"
	"github.com/couchcryptid/weathercal/internal/adapter/ical"
	"github.com/couchcryptid/weathercal/internal/adapter/jma"
	kafkaadapter "github.com/couchcryptid/weathercal/internal/adapter/kafka"
	"github.com/couchcryptid/weathercal/internal/adapter/storage"
	"github.com/couchcryptid/weathercal/internal/adapter/telops"
	"github.com/couchcryptid/weathercal/internal/config"
	"github.com/couchcryptid/weathercal/internal/domain"
	"github.com/couchcryptid/weathercal/internal/observability"
	"github.com/couchcryptid/weathercal/internal/pipeline"
	"github.com/couchcryptid/weathercal/internal/scheduler"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	os.Exit(run())
}

// run wires the service and returns the process exit code, so deferred
// cleanup finishes before main exits.
func run() int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := jma.NewClient(cfg, clock, metrics, logger)

	table, err := telops.Resolve(ctx, telops.NewFileStore(cfg.TelopsPath), client, logger)
	if err != nil {
		logger.Error("failed to load weather codes", "error", err)
		return 1
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to create storage", "error", err)
		return 1
	}

	var notifier pipeline.Notifier
	var writer *kafkaadapter.Notifier
	if cfg.NotificationsEnabled() {
		writer = kafkaadapter.NewNotifier(cfg, logger)
		notifier = writer
		logger.Info("kafka notifications enabled", "topic", cfg.KafkaTopic)
	}

	transformer := pipeline.NewTransformer(domain.NewEmitter(table, nil), ical.Encode, logger, metrics)
	p := pipeline.New(client, transformer, store, notifier, clock, logger, metrics, pipeline.Options{
		Concurrency:         cfg.Concurrency,
		SkipOffices:         cfg.SkipOffices,
		PublicURL:           cfg.PublicURL,
		CalendarContentType: ical.ContentType,
	})

	var code int
	if cfg.Schedule == "" {
		code = runOnce(ctx, p, logger)
	} else {
		code = serve(ctx, cfg, p, logger)
	}

	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	return code
}

// runOnce performs a single update and prints the result as JSON.
func runOnce(ctx context.Context, p *pipeline.Pipeline, logger *slog.Logger) int {
	res, err := p.RunOnce(ctx)
	if err != nil {
		logger.Error("update failed", "error", err)
		return 1
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(res); err != nil {
		logger.Error("write result", "error", err)
		return 1
	}
	return 0
}

// serve runs the scheduler and the HTTP server until SIGINT or SIGTERM.
func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) int {
	staticDir := ""
	if cfg.StorageBackend == config.StorageFS {
		staticDir = cfg.OutputDir
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, staticDir, logger)

	sched := scheduler.New(cfg.Schedule, func(ctx context.Context) error {
		_, err := p.RunOnce(ctx)
		return err
	}, 0, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		return 1
	}

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Publish immediately instead of waiting for the first tick.
	go func() {
		if _, err := p.RunOnce(ctx); err != nil && !errors.Is(err, pipeline.ErrRunInProgress) {
			logger.Error("initial update failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return 0
}
