// Package worker contains the stage worker poll loops and the runners
// that execute claimed pipeline work.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"quantplane/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Runner executes one claimed unit of work for its stage. Process must
// end the record in exactly one terminal state: computation failures
// are recorded as FAILED and return nil; only store-level failures
// propagate as errors.
type Runner interface {
	Kind() store.WorkKind
	Process(ctx context.Context, item *store.WorkItem) error
}

// AgentConfig holds configuration for a stage worker agent.
type AgentConfig struct {
	ID           string
	PollInterval time.Duration // idle wait between empty polls (default: 500ms)
	MaxBackoff   time.Duration // cap for the idle backoff (default: 30s)
}

// Agent runs the pull loop for one pipeline stage: claim the oldest
// pending record, process it, repeat. One record is in flight at a
// time; horizontal scaling is more agent processes, coordinated only
// through the atomic claim.
type Agent struct {
	queue  store.WorkQueue
	runner Runner
	config AgentConfig
	log    *slog.Logger
	done   chan struct{}

	processed metric.Int64Counter
}

// New creates a new stage worker agent.
func New(q store.WorkQueue, r Runner, config AgentConfig, log *slog.Logger) *Agent {
	if config.PollInterval <= 0 {
		config.PollInterval = 500 * time.Millisecond
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 30 * time.Second
	}

	meter := otel.Meter("quantplane-worker")
	processed, _ := meter.Int64Counter("quantplane.worker.processed",
		metric.WithDescription("Work items processed, by stage and outcome"),
	)

	return &Agent{
		queue:     q,
		runner:    r,
		config:    config,
		log:       log.With("stage", string(r.Kind()), "agent", config.ID),
		done:      make(chan struct{}),
		processed: processed,
	}
}

// Run starts the pull loop. It blocks until the context is cancelled.
// The loop never exits because a single item failed: computation
// errors become FAILED records, store errors are logged and polling
// continues after the backoff.
func (a *Agent) Run(ctx context.Context) error {
	a.log.Info("worker started", "poll_interval", a.config.PollInterval.String())

	backoff := a.config.PollInterval

	for {
		select {
		case <-ctx.Done():
			a.log.Info("worker stopping")
			close(a.done)
			return ctx.Err()
		default:
		}

		item, err := a.queue.ClaimNext(ctx, a.runner.Kind())
		if errors.Is(err, store.ErrNoWork) {
			if !a.sleep(ctx, backoff) {
				continue
			}
			// Empty queue: back off exponentially up to the cap.
			backoff = min(backoff*2, a.config.MaxBackoff)
			continue
		}
		if err != nil {
			a.log.Error("claim failed", "error", err)
			a.sleep(ctx, backoff)
			continue
		}

		backoff = a.config.PollInterval
		a.processItem(ctx, item)
	}
}

// Done returns a channel that is closed when the agent has fully
// stopped.
func (a *Agent) Done() <-chan struct{} {
	return a.done
}

func (a *Agent) processItem(ctx context.Context, item *store.WorkItem) {
	tracer := otel.Tracer("quantplane-worker")
	spanCtx, span := tracer.Start(ctx, "process_work_item",
		trace.WithAttributes(
			attribute.String("work.kind", string(item.Kind)),
			attribute.String("work.id", item.ID),
			attribute.String("tenant.id", item.TenantID),
		),
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	defer span.End()

	a.log.Info("processing", "id", item.ID, "tenant", item.TenantID)

	outcome := "ok"
	if err := a.runner.Process(spanCtx, item); err != nil {
		outcome = "error"
		span.RecordError(err)
		a.log.Error("processing failed", "id", item.ID, "error", err)
	}

	a.processed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", string(item.Kind)),
		attribute.String("outcome", outcome),
	))
}

// sleep waits for d or until the context is cancelled. It reports
// whether the full wait elapsed.
func (a *Agent) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
