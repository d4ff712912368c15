package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"quantplane/pkg/api"
)

// Client handles API calls to the quantplane controller.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a new client with the given base URL and token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// do sends one JSON request and decodes the response into out. Headers
// beyond auth and content type are passed through extraHeaders.
func (c *Client) do(method, path string, body any, extraHeaders map[string]string, out any) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	httpReq.Header.Add("Content-Type", "application/json")
	for k, v := range extraHeaders {
		httpReq.Header.Add(k, v)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// CreateDataset sends POST /datasets to register a dataset.
func (c *Client) CreateDataset(req api.CreateDatasetRequest) (*api.CreateDatasetResponse, error) {
	var result api.CreateDatasetResponse
	if err := c.do(http.MethodPost, "/datasets", req, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// IngestVersion sends POST /datasets/{id}/versions to ingest a new
// dataset version.
func (c *Client) IngestVersion(datasetID string, req api.IngestVersionRequest) (*api.DatasetVersionResponse, error) {
	var result api.DatasetVersionResponse
	path := fmt.Sprintf("/datasets/%s/versions", datasetID)
	if err := c.do(http.MethodPost, path, req, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetDatasetVersion sends GET /datasets/{id}/versions/{vid}.
func (c *Client) GetDatasetVersion(datasetID, versionID string) (*api.DatasetVersionResponse, error) {
	var result api.DatasetVersionResponse
	path := fmt.Sprintf("/datasets/%s/versions/%s", datasetID, versionID)
	if err := c.do(http.MethodGet, path, nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateStrategy sends POST /strategies to register a threshold
// strategy.
func (c *Client) CreateStrategy(req api.CreateStrategyRequest) (*api.CreateStrategyResponse, error) {
	var result api.CreateStrategyResponse
	if err := c.do(http.MethodPost, "/strategies", req, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetStrategy(id string) (*api.StrategyResponse, error) {
	var result api.StrategyResponse
	if err := c.do(http.MethodGet, "/strategies/"+id, nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateAccount sends POST /accounts to register a simulation account.
func (c *Client) CreateAccount(req api.CreateAccountRequest) (*api.CreateAccountResponse, error) {
	var result api.CreateAccountResponse
	if err := c.do(http.MethodPost, "/accounts", req, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateForecast sends POST /forecasts to submit a forecast job. An
// empty idempotencyKey omits the X-Idempotency-Key header.
func (c *Client) CreateForecast(req api.CreateForecastRequest, idempotencyKey string) (*api.CreateForecastResponse, error) {
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{"X-Idempotency-Key": idempotencyKey}
	}

	var result api.CreateForecastResponse
	if err := c.do(http.MethodPost, "/forecasts", req, headers, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetForecast sends GET /forecasts/{id}.
func (c *Client) GetForecast(jobID string) (*api.ForecastJobResponse, error) {
	var result api.ForecastJobResponse
	if err := c.do(http.MethodGet, "/forecasts/"+jobID, nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetForecastResult sends GET /forecasts/{id}/result. The controller
// answers 409 until the job has succeeded; that surfaces here as an
// APIError.
func (c *Client) GetForecastResult(jobID string) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.do(http.MethodGet, "/forecasts/"+jobID+"/result", nil, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateSignalRun sends POST /signal-runs.
func (c *Client) CreateSignalRun(req api.CreateSignalRunRequest) (*api.SignalRunResponse, error) {
	var result api.SignalRunResponse
	if err := c.do(http.MethodPost, "/signal-runs", req, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSignalRun sends GET /signal-runs/{id}.
func (c *Client) GetSignalRun(runID string) (*api.SignalRunResponse, error) {
	var result api.SignalRunResponse
	if err := c.do(http.MethodGet, "/signal-runs/"+runID, nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateSimRun sends POST /sim-runs.
func (c *Client) CreateSimRun(req api.CreateSimRunRequest) (*api.SimRunResponse, error) {
	var result api.SimRunResponse
	if err := c.do(http.MethodPost, "/sim-runs", req, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSimRun sends GET /sim-runs/{id}.
func (c *Client) GetSimRun(runID string) (*api.SimRunResponse, error) {
	var result api.SimRunResponse
	if err := c.do(http.MethodGet, "/sim-runs/"+runID, nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
