package handlers

import (
	"encoding/json"
	"net/http"

	"quantplane/internal/controller/middleware"
	"quantplane/internal/store"
	"quantplane/pkg/api"
)

// CreateAccount handles POST /accounts.
func (h *Handlers) CreateAccount(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())

	var req api.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	a, err := h.svc.CreateSimAccount(r.Context(), tenant.ID, req.Name, req.InitialCash, req.Currency)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.respondJson(w, http.StatusCreated, api.CreateAccountResponse{
		AccountID: a.ID,
		Name:      a.Name,
	})
}

// CreateSimRun handles POST /sim-runs. The referenced signal run must
// already be SUCCEEDED.
func (h *Handlers) CreateSimRun(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())

	var req api.CreateSimRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	run, err := h.svc.CreateTradeSimRun(r.Context(), tenant.ID, req.AccountID, req.SignalRunID, req.ExecModel)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.respondJson(w, http.StatusCreated, simRunResponse(run))
}

// GetSimRun handles GET /sim-runs/{id}. The inline result payload is
// included once the run has succeeded.
func (h *Handlers) GetSimRun(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())

	run, err := h.store.GetTradeSimRun(r.Context(), tenant.ID, r.PathValue("id"))
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.respondJson(w, http.StatusOK, simRunResponse(run))
}

func simRunResponse(run *store.TradeSimRun) api.SimRunResponse {
	return api.SimRunResponse{
		TradeSimRunID: run.ID,
		AccountID:     run.AccountID,
		SignalRunID:   run.SignalRunID,
		ExecModel:     run.ExecModel,
		Status:        string(run.Status),
		OutputURI:     run.OutputURI,
		Result:        json.RawMessage(run.Result),
		ErrorMessage:  run.ErrorMessage,
	}
}
