// Package main is the entry point for the quantplane controller.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quantplane/internal/artifact"
	"quantplane/internal/config"
	"quantplane/internal/controller"
	"quantplane/internal/observability"
	"quantplane/internal/store"
	"quantplane/internal/store/postgres"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.Close()

	if *migrateFlag {
		log.Println("Running database migrations...")
		if err := postgres.Migrate(db.DB()); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")
	}

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "quantplane-controller", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

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

	// Queue depth is an async gauge so the DB is only queried when scraped.
	meter := otel.Meter("quantplane-controller")
	kinds := []store.WorkKind{
		store.WorkDatasetVersion,
		store.WorkForecastJob,
		store.WorkSignalRun,
		store.WorkTradeSimRun,
	}
	_, err = meter.Int64ObservableGauge("quantplane.queue.depth",
		metric.WithDescription("Pending pipeline records awaiting a worker, by stage"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			for _, kind := range kinds {
				count, err := db.CountPending(ctx, kind)
				if err != nil {
					log.Printf("Failed to count queue depth for %s: %v", kind, err)
					continue // Don't fail the scrape on a DB error
				}
				obs.Observe(count, metric.WithAttributes(attribute.String("stage", string(kind))))
			}
			return nil
		}),
	)
	if err != nil {
		log.Printf("Failed to register queue depth metric: %v", err)
	}

	artifacts := artifact.New(cfg.ArtifactDir)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := controller.New(controller.Config{
		Addr:           addr,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, db, artifacts, metricsHandler)

	go func() {
		log.Printf("QuantPlane Controller starting on %s", addr)
		if err := srv.Run(ctx); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down controller...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited properly")
}
