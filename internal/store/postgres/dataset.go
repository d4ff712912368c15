package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"quantplane/internal/store"
)

// CreateDataset inserts a new dataset row.
func (s *Store) CreateDataset(ctx context.Context, d *store.Dataset) error {
	query := `
		INSERT INTO datasets (id, tenant_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query, d.ID, d.TenantID, d.Name, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	return nil
}

// GetDataset returns a dataset in the tenant's scope.
func (s *Store) GetDataset(ctx context.Context, tenantID, id string) (*store.Dataset, error) {
	query := "SELECT id, tenant_id, name, created_at FROM datasets WHERE id = $1 AND tenant_id = $2"

	var d store.Dataset
	err := s.db.QueryRowContext(ctx, query, id, tenantID).Scan(&d.ID, &d.TenantID, &d.Name, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDatasetVersion inserts a new version row in VALIDATING state.
func (s *Store) CreateDatasetVersion(ctx context.Context, v *store.DatasetVersion) error {
	mapping, err := json.Marshal(v.Mapping)
	if err != nil {
		return fmt.Errorf("marshal column mapping: %w", err)
	}

	query := `
		INSERT INTO dataset_versions (id, dataset_id, tenant_id, raw_uri, schema_json, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(ctx, query, v.ID, v.DatasetID, v.TenantID, v.RawURI, mapping, v.Status, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("create dataset version: %w", err)
	}
	return nil
}

const datasetVersionColumns = `
	id, dataset_id, tenant_id, raw_uri, processed_uri, schema_json, checksum,
	profile_json, status, error_message, created_at, started_at, finished_at
`

// GetDatasetVersion returns a version in the tenant's scope.
func (s *Store) GetDatasetVersion(ctx context.Context, tenantID, id string) (*store.DatasetVersion, error) {
	query := "SELECT " + datasetVersionColumns + " FROM dataset_versions WHERE id = $1 AND tenant_id = $2"
	return s.scanDatasetVersion(s.db.QueryRowContext(ctx, query, id, tenantID))
}

func (s *Store) scanDatasetVersion(row *sql.Row) (*store.DatasetVersion, error) {
	var v store.DatasetVersion
	var mapping []byte
	var profile []byte

	err := row.Scan(
		&v.ID, &v.DatasetID, &v.TenantID, &v.RawURI, &v.ProcessedURI, &mapping,
		&v.Checksum, &profile, &v.Status, &v.ErrorMessage, &v.CreatedAt, &v.StartedAt, &v.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(mapping, &v.Mapping); err != nil {
		return nil, fmt.Errorf("decode column mapping: %w", err)
	}
	if len(profile) > 0 {
		var p store.Profile
		if err := json.Unmarshal(profile, &p); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
		v.Profile = &p
	}
	return &v, nil
}

// MarkDatasetVersionReady records the terminal READY transition.
func (s *Store) MarkDatasetVersionReady(ctx context.Context, id, processedURI, checksum string, profile store.Profile) error {
	p, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	query := `
		UPDATE dataset_versions
		SET status = $1, processed_uri = $2, checksum = $3, profile_json = $4, finished_at = NOW()
		WHERE id = $5
	`
	_, err = s.db.ExecContext(ctx, query, store.VersionStatusReady, processedURI, checksum, p, id)
	return err
}

// MarkDatasetVersionFailed records the terminal FAILED transition.
func (s *Store) MarkDatasetVersionFailed(ctx context.Context, id, errMsg string) error {
	query := `
		UPDATE dataset_versions
		SET status = $1, error_message = $2, finished_at = NOW()
		WHERE id = $3
	`
	_, err := s.db.ExecContext(ctx, query, store.VersionStatusFailed, errMsg, id)
	return err
}
