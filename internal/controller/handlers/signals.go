package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"quantplane/internal/controller/middleware"
	"quantplane/internal/store"
	"quantplane/pkg/api"
)

// CreateStrategy handles POST /strategies.
func (h *Handlers) CreateStrategy(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())

	var req api.CreateStrategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	s, err := h.svc.CreateStrategy(r.Context(), tenant.ID, req.Name, req.BuyAbovePct, req.SellBelowPct)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.respondJson(w, http.StatusCreated, api.CreateStrategyResponse{
		StrategyID: s.ID,
		Name:       s.Name,
	})
}

// GetStrategy handles GET /strategies/{id}.
func (h *Handlers) GetStrategy(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())

	s, err := h.store.GetStrategy(r.Context(), tenant.ID, r.PathValue("id"))
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJson(w, http.StatusOK, api.StrategyResponse{
		StrategyID:   s.ID,
		Name:         s.Name,
		BuyAbovePct:  s.BuyAbovePct,
		SellBelowPct: s.SellBelowPct,
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
	})
}

// CreateSignalRun handles POST /signal-runs. The referenced forecast
// job must already be SUCCEEDED.
func (h *Handlers) CreateSignalRun(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())

	var req api.CreateSignalRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	run, err := h.svc.CreateSignalRun(r.Context(), tenant.ID, req.ForecastJobID, req.StrategyID)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.respondJson(w, http.StatusCreated, signalRunResponse(run))
}

// GetSignalRun handles GET /signal-runs/{id}.
func (h *Handlers) GetSignalRun(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())

	run, err := h.store.GetSignalRun(r.Context(), tenant.ID, r.PathValue("id"))
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJson(w, http.StatusOK, signalRunResponse(run))
}

func signalRunResponse(run *store.SignalRun) api.SignalRunResponse {
	return api.SignalRunResponse{
		SignalRunID:   run.ID,
		ForecastJobID: run.ForecastJobID,
		StrategyID:    run.StrategyID,
		Status:        string(run.Status),
		OutputURI:     run.OutputURI,
		ErrorMessage:  run.ErrorMessage,
	}
}
