package worker

import (
	"context"
	"fmt"

	"quantplane/internal/artifact"
	"quantplane/internal/dataset"
	"quantplane/internal/store"
)

// DatasetRunner normalizes and profiles claimed dataset versions.
type DatasetRunner struct {
	store     store.Store
	artifacts *artifact.Store
}

// NewDatasetRunner creates the dataset stage runner.
func NewDatasetRunner(s store.Store, a *artifact.Store) *DatasetRunner {
	return &DatasetRunner{store: s, artifacts: a}
}

func (r *DatasetRunner) Kind() store.WorkKind {
	return store.WorkDatasetVersion
}

// Process normalizes the raw file into the canonical series, writes
// the processed artifact, and marks the version READY. Any failure is
// recorded as the FAILED terminal state.
func (r *DatasetRunner) Process(ctx context.Context, item *store.WorkItem) error {
	version, err := r.store.GetDatasetVersion(ctx, item.TenantID, item.ID)
	if err != nil {
		return fmt.Errorf("load dataset version %s: %w", item.ID, err)
	}

	normalized, err := dataset.NormalizeFile(version.RawURI, version.Mapping)
	if err != nil {
		return r.store.MarkDatasetVersionFailed(ctx, item.ID, err.Error())
	}

	processedPath := r.artifacts.ProcessedPath(version.TenantID, version.DatasetID, version.ID)
	if err := r.artifacts.WriteBytes(processedPath, dataset.Serialize(normalized.Points)); err != nil {
		return r.store.MarkDatasetVersionFailed(ctx, item.ID, err.Error())
	}

	return r.store.MarkDatasetVersionReady(ctx, item.ID, processedPath, normalized.Checksum, normalized.Profile)
}
