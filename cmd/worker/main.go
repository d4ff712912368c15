// Package main is the entry point for the quantplane stage worker.
// A worker process polls for pending pipeline records of one or more
// stages, claims them atomically and runs the stage computation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"quantplane/internal/artifact"
	"quantplane/internal/config"
	"quantplane/internal/logger"
	"quantplane/internal/observability"
	"quantplane/internal/store/postgres"
	"quantplane/internal/worker"
)

func main() {
	stageFlag := flag.String("stage", "all", "Pipeline stages to run: dataset, forecast, signal, sim or all (comma separated)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "quantplane-worker", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.Close()

	artifacts := artifact.New(cfg.ArtifactDir)

	runners := map[string]worker.Runner{
		"dataset":  worker.NewDatasetRunner(db, artifacts),
		"forecast": worker.NewForecastRunner(db, artifacts),
		"signal":   worker.NewSignalRunner(db, artifacts),
		"sim":      worker.NewSimRunner(db, artifacts),
	}

	stages := strings.Split(*stageFlag, ",")
	if *stageFlag == "all" {
		stages = []string{"dataset", "forecast", "signal", "sim"}
	}

	hostname, _ := os.Hostname()
	slogger := logger.New("worker")

	var agents []*worker.Agent
	for _, stage := range stages {
		stage = strings.TrimSpace(stage)
		r, ok := runners[stage]
		if !ok {
			log.Fatalf("Unknown stage %q (want dataset, forecast, signal, sim or all)", stage)
		}
		agent := worker.New(db, r, worker.AgentConfig{
			ID:           fmt.Sprintf("%s-%s", hostname, stage),
			PollInterval: cfg.WorkerPollInterval,
			MaxBackoff:   cfg.WorkerMaxBackoff,
		}, slogger)
		agents = append(agents, agent)
		go agent.Run(ctx)
	}

	log.Printf("Worker started for stages: %s", strings.Join(stages, ", "))

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Printf("Failed to shutdown metrics: %v", err)
		}
	}()

	// Dedicated metrics server on port 6162
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsHandler)
		log.Println("Worker metrics listening on :6162")
		if err := http.ListenAndServe(":6162", mux); err != nil {
			log.Printf("Metrics server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down worker...")
	cancel()

	for _, agent := range agents {
		<-agent.Done()
	}
}
