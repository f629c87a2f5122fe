package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        int
	APIToken    string
	NatsURL     string
	NatsToken   string
	DatabaseURL string
	LogLevel    string

	AnthropicAPIKey string
	AnthropicModel  string

	// Learning thresholds.
	MinEditsForAnalysis int
	AnalysisInterval    int
	AnalysisBatchSize   int

	// Profile read cache.
	ProfileCacheTTL time.Duration

	// Cross-clinician analytics.
	MinCohortSize     int
	MinSampleSize     int
	AggregateSchedule string
}

func Load() Config {
	return Config{
		Port:        envInt("STYLED_PORT", 8760),
		APIToken:    envStr("STYLED_API_TOKEN", ""),
		NatsURL:     envStr("NATS_URL", "nats://hermes:4222"),
		NatsToken:   envStr("NATS_TOKEN", ""),
		DatabaseURL: envStr("DATABASE_URL", ""),
		LogLevel:    envStr("LOG_LEVEL", "info"),

		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("STYLED_MODEL", "claude-sonnet-4-20250514"),

		MinEditsForAnalysis: envInt("MIN_EDITS_FOR_ANALYSIS", 5),
		AnalysisInterval:    envInt("ANALYSIS_INTERVAL", 10),
		AnalysisBatchSize:   envInt("ANALYSIS_BATCH_SIZE", 50),

		ProfileCacheTTL: envDuration("PROFILE_CACHE_TTL", 5*time.Minute),

		MinCohortSize:     envInt("MIN_COHORT_SIZE", 5),
		MinSampleSize:     envInt("MIN_SAMPLE_SIZE", 10),
		AggregateSchedule: envStr("AGGREGATE_SCHEDULE", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
