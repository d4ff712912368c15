package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/quantplane?sslmode=disable")
	for _, key := range []string{"PORT", "ARTIFACT_DIR", "WORKER_POLL_INTERVAL", "WORKER_MAX_BACKOFF", "OTEL_ENDPOINT", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != 6161 {
		t.Errorf("HTTPPort = %d, want 6161", cfg.HTTPPort)
	}
	if cfg.ArtifactDir != "./artifacts" {
		t.Errorf("ArtifactDir = %q", cfg.ArtifactDir)
	}
	if cfg.WorkerPollInterval != 500*time.Millisecond {
		t.Errorf("WorkerPollInterval = %v", cfg.WorkerPollInterval)
	}
	if cfg.WorkerMaxBackoff != 30*time.Second {
		t.Errorf("WorkerMaxBackoff = %v", cfg.WorkerMaxBackoff)
	}
	if cfg.OTELEndpoint != "localhost:4317" {
		t.Errorf("OTELEndpoint = %q", cfg.OTELEndpoint)
	}
	if cfg.RateLimitRPS != 20.0 || cfg.RateLimitBurst != 40 {
		t.Errorf("rate limit = %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "8080")
	t.Setenv("ARTIFACT_DIR", "/var/lib/quantplane")
	t.Setenv("WORKER_POLL_INTERVAL", "2s")
	t.Setenv("WORKER_MAX_BACKOFF", "1m")
	t.Setenv("RATE_LIMIT_RPS", "5.5")
	t.Setenv("RATE_LIMIT_BURST", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d", cfg.HTTPPort)
	}
	if cfg.ArtifactDir != "/var/lib/quantplane" {
		t.Errorf("ArtifactDir = %q", cfg.ArtifactDir)
	}
	if cfg.WorkerPollInterval != 2*time.Second {
		t.Errorf("WorkerPollInterval = %v", cfg.WorkerPollInterval)
	}
	if cfg.WorkerMaxBackoff != time.Minute {
		t.Errorf("WorkerMaxBackoff = %v", cfg.WorkerMaxBackoff)
	}
	if cfg.RateLimitRPS != 5.5 || cfg.RateLimitBurst != 10 {
		t.Errorf("rate limit = %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "PORT", "not-a-port"},
		{"bad poll interval", "WORKER_POLL_INTERVAL", "soon"},
		{"bad backoff", "WORKER_MAX_BACKOFF", "later"},
		{"bad rps", "RATE_LIMIT_RPS", "fast"},
		{"bad burst", "RATE_LIMIT_BURST", "1.5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.value)
			}
		})
	}
}
