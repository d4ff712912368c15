package worker

import (
	"context"
	"fmt"

	"quantplane/internal/artifact"
	"quantplane/internal/dataset"
	"quantplane/internal/forecast"
	"quantplane/internal/signals"
	"quantplane/internal/store"
)

// signalInputs is the read-only projection fetched once before signal
// generation.
type signalInputs struct {
	predictions  []forecast.Prediction
	lastPrice    float64
	buyAbovePct  float64
	sellBelowPct float64
}

// SignalRunner executes claimed signal runs.
type SignalRunner struct {
	store     store.Store
	artifacts *artifact.Store
}

// NewSignalRunner creates the signal stage runner.
func NewSignalRunner(s store.Store, a *artifact.Store) *SignalRunner {
	return &SignalRunner{store: s, artifacts: a}
}

func (r *SignalRunner) Kind() store.WorkKind {
	return store.WorkSignalRun
}

// Process loads the forecast artifact and strategy, generates the
// signals and records the terminal state.
func (r *SignalRunner) Process(ctx context.Context, item *store.WorkItem) error {
	run, err := r.store.GetSignalRun(ctx, item.TenantID, item.ID)
	if err != nil {
		return fmt.Errorf("load signal run %s: %w", item.ID, err)
	}

	inputs, err := r.loadInputs(ctx, run)
	if err != nil {
		return r.store.FailSignalRun(ctx, item.ID, err.Error())
	}

	generated := signals.Generate(inputs.predictions, inputs.lastPrice, inputs.buyAbovePct, inputs.sellBelowPct)

	outPath := r.artifacts.SignalPath(run.TenantID, run.ID)
	payload := signals.Artifact{SignalRunID: run.ID, Signals: generated}
	if err := r.artifacts.WriteJSON(outPath, payload); err != nil {
		return r.store.FailSignalRun(ctx, item.ID, err.Error())
	}

	return r.store.CompleteSignalRun(ctx, item.ID, outPath)
}

func (r *SignalRunner) loadInputs(ctx context.Context, run *store.SignalRun) (*signalInputs, error) {
	job, err := r.store.GetForecastJob(ctx, run.TenantID, run.ForecastJobID)
	if err != nil {
		return nil, fmt.Errorf("load forecast job %s: %w", run.ForecastJobID, err)
	}
	if job.Status != store.RunStatusSucceeded {
		return nil, fmt.Errorf("forecast job %s not ready: status=%s", job.ID, job.Status)
	}
	if job.OutputURI == nil || *job.OutputURI == "" {
		return nil, fmt.Errorf("forecast job %s missing output artifact", job.ID)
	}

	version, err := r.store.GetDatasetVersion(ctx, run.TenantID, job.DatasetVersionID)
	if err != nil {
		return nil, fmt.Errorf("load dataset version %s: %w", job.DatasetVersionID, err)
	}
	if version.ProcessedURI == nil || *version.ProcessedURI == "" {
		return nil, fmt.Errorf("dataset version %s missing processed artifact", version.ID)
	}

	strategy, err := r.store.GetStrategy(ctx, run.TenantID, run.StrategyID)
	if err != nil {
		return nil, fmt.Errorf("load strategy %s: %w", run.StrategyID, err)
	}

	var fc forecast.Artifact
	if err := r.artifacts.ReadJSON(*job.OutputURI, &fc); err != nil {
		return nil, err
	}
	if len(fc.Predictions) == 0 {
		return nil, fmt.Errorf("forecast artifact has no predictions")
	}

	content, err := r.artifacts.Read(*version.ProcessedURI)
	if err != nil {
		return nil, err
	}
	points, err := dataset.ParseProcessed(content)
	if err != nil {
		return nil, err
	}
	lastPrice, err := dataset.LastValue(points)
	if err != nil {
		return nil, err
	}

	return &signalInputs{
		predictions:  fc.Predictions,
		lastPrice:    lastPrice,
		buyAbovePct:  strategy.BuyAbovePct,
		sellBelowPct: strategy.SellBelowPct,
	}, nil
}
