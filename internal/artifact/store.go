// Package artifact is the write-once blob store for pipeline outputs,
// a tenant-partitioned directory tree keyed by path strings recorded
// on the owning entities.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store writes and reads artifacts under a root directory.
type Store struct {
	root string
}

// New creates an artifact store rooted at dir.
func New(dir string) *Store {
	return &Store{root: dir}
}

// ProcessedPath is the location of a dataset version's canonical CSV.
func (s *Store) ProcessedPath(tenantID, datasetID, versionID string) string {
	return filepath.Join(s.root, tenantID, "datasets", datasetID, "versions", versionID, "processed.csv")
}

// ForecastPath is the flat per-job forecast artifact location.
func (s *Store) ForecastPath(jobID string) string {
	return filepath.Join(s.root, jobID+".json")
}

// SignalPath is the location of a signal run's output.
func (s *Store) SignalPath(tenantID, runID string) string {
	return filepath.Join(s.root, tenantID, "signals", runID+".json")
}

// SimPath is the location of a trade simulation run's output.
func (s *Store) SimPath(tenantID, runID string) string {
	return filepath.Join(s.root, tenantID, "sim", runID+".json")
}

// WriteBytes persists raw content, creating parent directories.
func (s *Store) WriteBytes(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	return nil
}

// WriteJSON marshals v and persists it at path.
func (s *Store) WriteJSON(path string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	return s.WriteBytes(path, b)
}

// Read returns the raw content of an artifact.
func (s *Store) Read(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	return b, nil
}

// ReadJSON unmarshals the artifact at path into v.
func (s *Store) ReadJSON(path string, v any) error {
	b, err := s.Read(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode artifact %s: %w", path, err)
	}
	return nil
}
