package store

import "context"

// WorkKind identifies one pipeline stage's unit of work.
type WorkKind string

const (
	WorkDatasetVersion WorkKind = "dataset_version"
	WorkForecastJob    WorkKind = "forecast_job"
	WorkSignalRun      WorkKind = "signal_run"
	WorkTradeSimRun    WorkKind = "trade_sim_run"
)

// WorkItem is the handle returned by a successful claim. The owning
// worker is the only writer allowed to touch the record afterwards.
type WorkItem struct {
	Kind     WorkKind
	ID       string
	TenantID string
}

// WorkQueue is the claim primitive used identically by every stage
// worker. Implementations must make the claim and the
// pending-to-running transition one atomic operation: at most one
// claimer ever transitions a given record out of its pending state.
type WorkQueue interface {
	// ClaimNext claims the oldest pending record of the given kind,
	// transitions it to RUNNING and clears any stale error message.
	// Returns ErrNoWork when nothing is pending. Among records of the
	// same kind, claim order follows creation time, oldest first.
	ClaimNext(ctx context.Context, kind WorkKind) (*WorkItem, error)

	// CountPending reports the number of records still waiting to be
	// claimed. Used for the queue depth gauge.
	CountPending(ctx context.Context, kind WorkKind) (int64, error)
}
