// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and Controller.
package api

import "encoding/json"

// CreateTenantRequest is the request body for creating a new tenant.
type CreateTenantRequest struct {
	Name string `json:"name"`
}

// CreateTenantResponse is the response body after creating a tenant.
// The raw API key is returned exactly once.
type CreateTenantResponse struct {
	ID     string `json:"tenantId"`
	Name   string `json:"name"`
	APIKey string `json:"apiKey"`
}

// CreateDatasetRequest is the request body for registering a dataset.
type CreateDatasetRequest struct {
	Name string `json:"name"`
}

// CreateDatasetResponse is the response body after registering a
// dataset.
type CreateDatasetResponse struct {
	DatasetID string `json:"datasetId"`
	Name      string `json:"name"`
}

// ColumnMapping names the raw columns holding the timestamp and the
// target value.
type ColumnMapping struct {
	Timestamp string `json:"timestamp"`
	Target    string `json:"target"`
}

// IngestVersionRequest is the request body for ingesting a new dataset
// version. RawURI points at an already-uploaded file; upload handling
// lives outside this service.
type IngestVersionRequest struct {
	RawURI  string        `json:"rawUri"`
	Mapping ColumnMapping `json:"columnMapping"`
}

// DatasetVersionResponse describes a dataset version.
type DatasetVersionResponse struct {
	DatasetVersionID string          `json:"datasetVersionId"`
	DatasetID        string          `json:"datasetId"`
	Status           string          `json:"status"`
	Checksum         *string         `json:"checksum"`
	ProcessedURI     *string         `json:"processedUri"`
	Profile          json.RawMessage `json:"profile,omitempty"`
	ErrorMessage     *string         `json:"errorMessage"`
	CreatedAt        string          `json:"createdAt"`
	FinishedAt       *string         `json:"finishedAt"`
}

// CreateStrategyRequest is the request body for registering a
// threshold strategy.
type CreateStrategyRequest struct {
	Name         string  `json:"name"`
	BuyAbovePct  float64 `json:"buyAbovePct"`
	SellBelowPct float64 `json:"sellBelowPct"`
}

// CreateStrategyResponse is the response body after registering a
// strategy.
type CreateStrategyResponse struct {
	StrategyID string `json:"strategyId"`
	Name       string `json:"name"`
}

// StrategyResponse describes a registered strategy.
type StrategyResponse struct {
	StrategyID   string  `json:"strategyId"`
	Name         string  `json:"name"`
	BuyAbovePct  float64 `json:"buyAbovePct"`
	SellBelowPct float64 `json:"sellBelowPct"`
	CreatedAt    string  `json:"createdAt"`
}

// CreateAccountRequest is the request body for registering a
// simulation account.
type CreateAccountRequest struct {
	Name        string  `json:"name"`
	InitialCash float64 `json:"initialCash"`
	Currency    string  `json:"currency,omitempty"`
}

// CreateAccountResponse is the response body after registering an
// account.
type CreateAccountResponse struct {
	AccountID string `json:"accountId"`
	Name      string `json:"name"`
}

// CreateForecastRequest is the request body for creating a forecast
// job. The idempotency key travels in the X-Idempotency-Key header.
type CreateForecastRequest struct {
	DatasetVersionID string         `json:"datasetVersionId"`
	ModelType        string         `json:"modelType"`
	Params           map[string]any `json:"params,omitempty"`
	Horizon          int            `json:"horizon"`
}

// CreateForecastResponse is the response body after submitting a
// forecast job. It is identical for first and repeated idempotent
// submissions.
type CreateForecastResponse struct {
	ForecastJobID string `json:"forecastJobId"`
	Status        string `json:"status"`
}

// ForecastJobResponse describes a forecast job.
type ForecastJobResponse struct {
	ForecastJobID string  `json:"forecastJobId"`
	Status        string  `json:"status"`
	ModelType     string  `json:"modelType"`
	Horizon       int     `json:"horizon"`
	DedupKey      string  `json:"dedupKey"`
	OutputURI     *string `json:"outputUri"`
	ErrorMessage  *string `json:"errorMessage"`
	CreatedAt     string  `json:"createdAt"`
	StartedAt     *string `json:"startedAt"`
	FinishedAt    *string `json:"finishedAt"`
}

// CreateSignalRunRequest is the request body for creating a signal
// run.
type CreateSignalRunRequest struct {
	ForecastJobID string `json:"forecastJobId"`
	StrategyID    string `json:"strategyId"`
}

// SignalRunResponse describes a signal run.
type SignalRunResponse struct {
	SignalRunID   string  `json:"signalRunId"`
	ForecastJobID string  `json:"forecastJobId"`
	StrategyID    string  `json:"strategyId"`
	Status        string  `json:"status"`
	OutputURI     *string `json:"outputUri"`
	ErrorMessage  *string `json:"errorMessage"`
}

// CreateSimRunRequest is the request body for creating a trade
// simulation run.
type CreateSimRunRequest struct {
	AccountID   string `json:"accountId"`
	SignalRunID string `json:"signalRunId"`
	ExecModel   string `json:"execModel,omitempty"`
}

// SimRunResponse describes a trade simulation run. Result carries the
// inline result payload once the run succeeds.
type SimRunResponse struct {
	TradeSimRunID string          `json:"tradeSimRunId"`
	AccountID     string          `json:"accountId"`
	SignalRunID   string          `json:"signalRunId"`
	ExecModel     string          `json:"execModel"`
	Status        string          `json:"status"`
	OutputURI     *string         `json:"outputUri"`
	Result        json.RawMessage `json:"result,omitempty"`
	ErrorMessage  *string         `json:"errorMessage"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
