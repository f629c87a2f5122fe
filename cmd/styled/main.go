package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/analytics"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/analyzer"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/api"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/cache"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/config"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/hermes"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/processor"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/recorder"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("styled starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// Anthropic client
	if cfg.AnthropicAPIKey == "" {
		slog.Error("ANTHROPIC_API_KEY is required")
		os.Exit(1)
	}
	llm := analyzer.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	slog.Info("anthropic client ready", "model", cfg.AnthropicModel)

	an := analyzer.New(llm, cfg.AnthropicModel, slog.Default())
	rec := recorder.New(db, slog.Default())
	profileCache := cache.NewTTL(cfg.ProfileCacheTTL)

	// NATS/Hermes
	hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer hermesClient.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Processor — the main pipeline
	proc := processor.New(db, rec, an, profileCache, hermesClient,
		cfg.MinEditsForAnalysis, cfg.AnalysisInterval, cfg.AnalysisBatchSize, slog.Default())

	if err := hermesClient.Subscribe(hermes.SubjectLetterApproved, proc.HandleLetterApproved); err != nil {
		slog.Error("failed to subscribe to approval events", "error", err)
		os.Exit(1)
	}
	if err := hermesClient.Subscribe(hermes.SubjectAnalysisRequested, proc.HandleAnalysisRequested); err != nil {
		slog.Error("failed to subscribe to analysis requests", "error", err)
		os.Exit(1)
	}

	// Cross-clinician analytics
	agg := analytics.New(db, cfg.MinCohortSize, cfg.MinSampleSize, slog.Default())
	if cfg.AggregateSchedule != "" {
		sched, err := analytics.NewScheduler(agg, db, hermesClient, cfg.AggregateSchedule, slog.Default())
		if err != nil {
			slog.Error("invalid AGGREGATE_SCHEDULE", "schedule", cfg.AggregateSchedule, "error", err)
			os.Exit(1)
		}
		sched.Start(ctx)
		slog.Info("aggregation scheduler running", "schedule", cfg.AggregateSchedule)
	} else {
		slog.Warn("AGGREGATE_SCHEDULE not set — aggregates only run on demand")
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIToken, db, profileCache, rec, proc, agg, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	// Announce registration
	if err := hermesClient.Publish("letters.service.styled.registered", map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"port":      cfg.Port,
	}); err != nil {
		slog.Warn("failed to publish registration", "error", err)
	}

	slog.Info("styled ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("styled stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
