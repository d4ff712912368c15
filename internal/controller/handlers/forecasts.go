package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"quantplane/internal/controller/middleware"
	"quantplane/internal/forecast"
	"quantplane/internal/pipeline"
	"quantplane/internal/store"
	"quantplane/pkg/api"
)

// CreateForecast handles POST /forecasts. A repeated call with the
// same X-Idempotency-Key returns the original job with the same
// response body.
func (h *Handlers) CreateForecast(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())

	var req api.CreateForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	job, err := h.svc.CreateForecastJob(r.Context(), tenant.ID, pipeline.ForecastRequest{
		DatasetVersionID: req.DatasetVersionID,
		IdempotencyKey:   r.Header.Get("X-Idempotency-Key"),
		ModelType:        req.ModelType,
		Params:           req.Params,
		Horizon:          req.Horizon,
	})
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.respondJson(w, http.StatusCreated, api.CreateForecastResponse{
		ForecastJobID: job.ID,
		Status:        string(job.Status),
	})
}

// GetForecast handles GET /forecasts/{id}.
func (h *Handlers) GetForecast(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())

	job, err := h.store.GetForecastJob(r.Context(), tenant.ID, r.PathValue("id"))
	if err != nil {
		h.serviceError(w, err)
		return
	}

	resp := api.ForecastJobResponse{
		ForecastJobID: job.ID,
		Status:        string(job.Status),
		ModelType:     job.ModelType,
		Horizon:       job.Horizon,
		DedupKey:      job.DedupKey,
		OutputURI:     job.OutputURI,
		ErrorMessage:  job.ErrorMessage,
		CreatedAt:     job.CreatedAt.Format(time.RFC3339),
	}
	if job.StartedAt != nil {
		s := job.StartedAt.Format(time.RFC3339)
		resp.StartedAt = &s
	}
	if job.FinishedAt != nil {
		s := job.FinishedAt.Format(time.RFC3339)
		resp.FinishedAt = &s
	}
	h.respondJson(w, http.StatusOK, resp)
}

// GetForecastResult handles GET /forecasts/{id}/result. It returns the
// forecast artifact once the job has succeeded, 409 before that.
func (h *Handlers) GetForecastResult(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())

	job, err := h.store.GetForecastJob(r.Context(), tenant.ID, r.PathValue("id"))
	if err != nil {
		h.serviceError(w, err)
		return
	}

	if job.Status != store.RunStatusSucceeded {
		h.httpError(w, "job not ready, status="+string(job.Status), http.StatusConflict)
		return
	}
	if job.OutputURI == nil || *job.OutputURI == "" {
		h.httpError(w, "missing output artifact", http.StatusInternalServerError)
		return
	}

	var result forecast.Artifact
	if err := h.artifacts.ReadJSON(*job.OutputURI, &result); err != nil {
		h.httpError(w, "failed to load artifact", http.StatusInternalServerError)
		return
	}
	h.respondJson(w, http.StatusOK, result)
}
