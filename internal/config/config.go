// Package config handles environment variable loading for ports, database strings, etc.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the application.
type Config struct {
	// Database connection string
	DatabaseURL string

	// HTTP server port for the controller
	HTTPPort int

	// Root directory of the artifact blob store
	ArtifactDir string

	// Idle wait between empty worker polls
	WorkerPollInterval time.Duration

	// Cap for the worker idle backoff
	WorkerMaxBackoff time.Duration

	// OTLP collector endpoint for traces
	OTELEndpoint string

	// Per-tenant API rate limit
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	port := 6161
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		port = p
	}

	artifactDir := os.Getenv("ARTIFACT_DIR")
	if artifactDir == "" {
		artifactDir = "./artifacts"
	}

	pollInterval := 500 * time.Millisecond
	if v := os.Getenv("WORKER_POLL_INTERVAL"); v != "" {
		pi, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid WORKER_POLL_INTERVAL: %w", err)
		}
		pollInterval = pi
	}

	maxBackoff := 30 * time.Second
	if v := os.Getenv("WORKER_MAX_BACKOFF"); v != "" {
		mb, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid WORKER_MAX_BACKOFF: %w", err)
		}
		maxBackoff = mb
	}

	otelEndpoint := os.Getenv("OTEL_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "localhost:4317"
	}

	rps := 20.0
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
		}
		rps = f
	}

	burst := 40
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		b, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
		}
		burst = b
	}

	return &Config{
		DatabaseURL:        dbURL,
		HTTPPort:           port,
		ArtifactDir:        artifactDir,
		WorkerPollInterval: pollInterval,
		WorkerMaxBackoff:   maxBackoff,
		OTELEndpoint:       otelEndpoint,
		RateLimitRPS:       rps,
		RateLimitBurst:     burst,
	}, nil
}
