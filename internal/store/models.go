// Package store contains the database layer for quantplane.
package store

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tenant represents a tenant in the multi-tenant system.
// All operations must be scoped by TenantID.
type Tenant struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// VersionStatus represents the state of a dataset version.
type VersionStatus string

const (
	VersionStatusValidating VersionStatus = "VALIDATING"
	VersionStatusRunning    VersionStatus = "RUNNING"
	VersionStatusReady      VersionStatus = "READY"
	VersionStatusFailed     VersionStatus = "FAILED"
)

// RunStatus represents the state of a forecast job, signal run or
// trade simulation run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "PENDING"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusSucceeded RunStatus = "SUCCEEDED"
	RunStatusFailed    RunStatus = "FAILED"
)

// ColumnMapping names which raw columns hold the timestamp and the
// target value for a dataset version.
type ColumnMapping struct {
	Timestamp string `json:"timestamp"`
	Target    string `json:"target"`
}

// Profile is the summary computed from the canonical, deduplicated
// series of a dataset version.
type Profile struct {
	RowCount       int     `json:"rowCount"`
	TimeRangeStart *string `json:"timeRangeStart"`
	TimeRangeEnd   *string `json:"timeRangeEnd"`
	MissingRate    float64 `json:"missingRate"`
	DupRemoved     int     `json:"dupRemoved"`
}

// Dataset is a logical named container for ingested snapshots.
type Dataset struct {
	ID        string
	TenantID  string
	Name      string
	CreatedAt time.Time
}

// DatasetVersion is one ingested snapshot of a dataset.
type DatasetVersion struct {
	ID           string
	DatasetID    string
	TenantID     string
	RawURI       string
	ProcessedURI *string
	Mapping      ColumnMapping
	Checksum     *string
	Profile      *Profile
	Status       VersionStatus
	ErrorMessage *string
	CreatedAt    time.Time
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

// ForecastJob is one forecast request bound to a READY dataset version.
type ForecastJob struct {
	ID               string
	TenantID         string
	DatasetVersionID string
	IdempotencyKey   *string
	DedupKey         string
	ModelType        string
	Params           map[string]any
	Horizon          int
	Status           RunStatus
	OutputURI        *string
	ErrorMessage     *string
	CreatedAt        time.Time
	StartedAt        *time.Time
	FinishedAt       *time.Time
}

// Strategy is a named threshold parameter set, read-only input to
// signal generation.
type Strategy struct {
	ID           string
	TenantID     string
	Name         string
	BuyAbovePct  float64
	SellBelowPct float64
	CreatedAt    time.Time
}

// SignalRun is one strategy evaluation over a succeeded forecast.
type SignalRun struct {
	ID            string
	TenantID      string
	ForecastJobID string
	StrategyID    string
	Status        RunStatus
	OutputURI     *string
	ErrorMessage  *string
	CreatedAt     time.Time
	StartedAt     *time.Time
	FinishedAt    *time.Time
}

// SimAccount holds starting capital for trade simulation, read-only.
type SimAccount struct {
	ID          string
	TenantID    string
	Name        string
	InitialCash float64
	Currency    string
	CreatedAt   time.Time
}

// TradeSimRun is one simulated execution of a signal run against an
// account.
type TradeSimRun struct {
	ID           string
	TenantID     string
	AccountID    string
	SignalRunID  string
	ExecModel    string
	Status       RunStatus
	OutputURI    *string
	Result       []byte // inline result payload (JSON)
	ErrorMessage *string
	CreatedAt    time.Time
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

// newID returns a prefixed short identifier, e.g. "fc_1a2b3c4d5e6f".
func newID(prefix string) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return prefix + "_" + hex[:12]
}

// Public ID constructors. The prefixes are part of the API surface.
func NewDatasetID() string        { return newID("ds") }
func NewDatasetVersionID() string { return newID("dsv") }
func NewForecastJobID() string    { return newID("fc") }
func NewStrategyID() string       { return newID("st") }
func NewSignalRunID() string      { return newID("sg") }
func NewSimAccountID() string     { return newID("acct") }
func NewTradeSimRunID() string    { return newID("sim") }
