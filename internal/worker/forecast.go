package worker

import (
	"context"
	"fmt"
	"math"
	"time"

	"quantplane/internal/artifact"
	"quantplane/internal/dataset"
	"quantplane/internal/dedup"
	"quantplane/internal/forecast"
	"quantplane/internal/store"
)

// forecastInputs is the read-only projection fetched once before the
// kernel runs. No lazy traversal happens after this point.
type forecastInputs struct {
	series  []float64
	window  int
	horizon int
}

// ForecastRunner executes claimed forecast jobs.
type ForecastRunner struct {
	store     store.Store
	artifacts *artifact.Store
	now       func() time.Time
}

// NewForecastRunner creates the forecast stage runner.
func NewForecastRunner(s store.Store, a *artifact.Store) *ForecastRunner {
	return &ForecastRunner{store: s, artifacts: a, now: time.Now}
}

func (r *ForecastRunner) Kind() store.WorkKind {
	return store.WorkForecastJob
}

// Process loads the job's inputs, runs the moving-average kernel,
// writes the forecast artifact and records the terminal state.
func (r *ForecastRunner) Process(ctx context.Context, item *store.WorkItem) error {
	job, err := r.store.GetForecastJob(ctx, item.TenantID, item.ID)
	if err != nil {
		return fmt.Errorf("load forecast job %s: %w", item.ID, err)
	}

	inputs, err := r.loadInputs(ctx, job)
	if err != nil {
		return r.store.FailForecastJob(ctx, item.ID, err.Error())
	}

	result, err := forecast.MovingAverage(inputs.series, inputs.window, inputs.horizon, r.now())
	if err != nil {
		return r.store.FailForecastJob(ctx, item.ID, err.Error())
	}

	outPath := r.artifacts.ForecastPath(job.ID)
	if err := r.artifacts.WriteJSON(outPath, result); err != nil {
		return r.store.FailForecastJob(ctx, item.ID, err.Error())
	}

	return r.store.CompleteForecastJob(ctx, item.ID, outPath)
}

func (r *ForecastRunner) loadInputs(ctx context.Context, job *store.ForecastJob) (*forecastInputs, error) {
	if job.ModelType != "moving_average" {
		return nil, fmt.Errorf("unsupported model type %q", job.ModelType)
	}

	version, err := r.store.GetDatasetVersion(ctx, job.TenantID, job.DatasetVersionID)
	if err != nil {
		return nil, fmt.Errorf("load dataset version %s: %w", job.DatasetVersionID, err)
	}
	if version.ProcessedURI == nil || *version.ProcessedURI == "" {
		return nil, fmt.Errorf("dataset version %s has no processed artifact", version.ID)
	}

	content, err := r.artifacts.Read(*version.ProcessedURI)
	if err != nil {
		return nil, err
	}
	points, err := dataset.ParseProcessed(content)
	if err != nil {
		return nil, err
	}

	series := make([]float64, 0, len(points))
	for _, p := range points {
		if !math.IsNaN(p.Target) {
			series = append(series, p.Target)
		}
	}

	params, err := dedup.NormalizeParams(job.ModelType, job.Params)
	if err != nil {
		return nil, err
	}
	window, ok := params["window"].(int)
	if !ok {
		return nil, fmt.Errorf("params missing window after normalization")
	}

	return &forecastInputs{series: series, window: window, horizon: job.Horizon}, nil
}
