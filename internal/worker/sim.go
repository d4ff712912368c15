package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"quantplane/internal/artifact"
	"quantplane/internal/dataset"
	"quantplane/internal/signals"
	"quantplane/internal/sim"
	"quantplane/internal/store"
)

// simInputs is the read-only projection fetched once before the trade
// simulation runs.
type simInputs struct {
	signals     []signals.Signal
	prices      map[string]float64
	initialCash float64
}

// SimRunner executes claimed trade simulation runs.
type SimRunner struct {
	store     store.Store
	artifacts *artifact.Store
}

// NewSimRunner creates the trade simulation stage runner.
func NewSimRunner(s store.Store, a *artifact.Store) *SimRunner {
	return &SimRunner{store: s, artifacts: a}
}

func (r *SimRunner) Kind() store.WorkKind {
	return store.WorkTradeSimRun
}

// Process loads the signal artifact and price series, runs the
// simulation engine and records the terminal state with the inline
// result payload.
func (r *SimRunner) Process(ctx context.Context, item *store.WorkItem) error {
	run, err := r.store.GetTradeSimRun(ctx, item.TenantID, item.ID)
	if err != nil {
		return fmt.Errorf("load trade sim run %s: %w", item.ID, err)
	}

	inputs, err := r.loadInputs(ctx, run)
	if err != nil {
		return r.store.FailTradeSimRun(ctx, item.ID, err.Error())
	}

	result := sim.Run(inputs.signals, inputs.prices, inputs.initialCash)

	payload, err := json.Marshal(result)
	if err != nil {
		return r.store.FailTradeSimRun(ctx, item.ID, err.Error())
	}

	outPath := r.artifacts.SimPath(run.TenantID, run.ID)
	if err := r.artifacts.WriteBytes(outPath, payload); err != nil {
		return r.store.FailTradeSimRun(ctx, item.ID, err.Error())
	}

	return r.store.CompleteTradeSimRun(ctx, item.ID, outPath, payload)
}

func (r *SimRunner) loadInputs(ctx context.Context, run *store.TradeSimRun) (*simInputs, error) {
	signalRun, err := r.store.GetSignalRun(ctx, run.TenantID, run.SignalRunID)
	if err != nil {
		return nil, fmt.Errorf("load signal run %s: %w", run.SignalRunID, err)
	}
	if signalRun.Status != store.RunStatusSucceeded {
		return nil, fmt.Errorf("signal run %s not ready: status=%s", signalRun.ID, signalRun.Status)
	}
	if signalRun.OutputURI == nil || *signalRun.OutputURI == "" {
		return nil, fmt.Errorf("signal run %s missing output artifact", signalRun.ID)
	}

	job, err := r.store.GetForecastJob(ctx, run.TenantID, signalRun.ForecastJobID)
	if err != nil {
		return nil, fmt.Errorf("load forecast job %s: %w", signalRun.ForecastJobID, err)
	}
	version, err := r.store.GetDatasetVersion(ctx, run.TenantID, job.DatasetVersionID)
	if err != nil {
		return nil, fmt.Errorf("load dataset version %s: %w", job.DatasetVersionID, err)
	}
	if version.ProcessedURI == nil || *version.ProcessedURI == "" {
		return nil, fmt.Errorf("dataset version %s missing processed artifact", version.ID)
	}

	account, err := r.store.GetSimAccount(ctx, run.TenantID, run.AccountID)
	if err != nil {
		return nil, fmt.Errorf("load sim account %s: %w", run.AccountID, err)
	}

	var sigArtifact signals.Artifact
	if err := r.artifacts.ReadJSON(*signalRun.OutputURI, &sigArtifact); err != nil {
		return nil, err
	}

	content, err := r.artifacts.Read(*version.ProcessedURI)
	if err != nil {
		return nil, err
	}
	points, err := dataset.ParseProcessed(content)
	if err != nil {
		return nil, err
	}

	// Join key is the exact signal timestamp string. Processed rows are
	// indexed under both their full and date-only renderings so either
	// timestamp style matches.
	prices := make(map[string]float64, len(points)*2)
	for _, p := range points {
		if math.IsNaN(p.Target) {
			continue
		}
		prices[p.Timestamp.Format(time.RFC3339)] = p.Target
		prices[p.Timestamp.Format("2006-01-02")] = p.Target
	}

	return &simInputs{
		signals:     sigArtifact.Signals,
		prices:      prices,
		initialCash: account.InitialCash,
	}, nil
}
