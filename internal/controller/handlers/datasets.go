package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"quantplane/internal/controller/middleware"
	"quantplane/internal/store"
	"quantplane/pkg/api"
)

// CreateDataset handles POST /datasets.
func (h *Handlers) CreateDataset(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())

	var req api.CreateDatasetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	d, err := h.svc.CreateDataset(r.Context(), tenant.ID, req.Name)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.respondJson(w, http.StatusCreated, api.CreateDatasetResponse{
		DatasetID: d.ID,
		Name:      d.Name,
	})
}

// IngestVersion handles POST /datasets/{id}/versions. The new version
// starts in VALIDATING; the dataset worker takes it from there.
func (h *Handlers) IngestVersion(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())
	datasetID := r.PathValue("id")

	var req api.IngestVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	v, err := h.svc.IngestVersion(r.Context(), tenant.ID, datasetID, req.RawURI, store.ColumnMapping{
		Timestamp: req.Mapping.Timestamp,
		Target:    req.Mapping.Target,
	})
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.respondJson(w, http.StatusCreated, versionResponse(v))
}

// GetDatasetVersion handles GET /datasets/{id}/versions/{vid}.
func (h *Handlers) GetDatasetVersion(w http.ResponseWriter, r *http.Request) {
	tenant, _ := middleware.TenantFromContext(r.Context())

	v, err := h.store.GetDatasetVersion(r.Context(), tenant.ID, r.PathValue("vid"))
	if err != nil {
		h.serviceError(w, err)
		return
	}
	if v.DatasetID != r.PathValue("id") {
		h.httpError(w, "not found", http.StatusNotFound)
		return
	}

	h.respondJson(w, http.StatusOK, versionResponse(v))
}

func versionResponse(v *store.DatasetVersion) api.DatasetVersionResponse {
	resp := api.DatasetVersionResponse{
		DatasetVersionID: v.ID,
		DatasetID:        v.DatasetID,
		Status:           string(v.Status),
		Checksum:         v.Checksum,
		ProcessedURI:     v.ProcessedURI,
		ErrorMessage:     v.ErrorMessage,
		CreatedAt:        v.CreatedAt.Format(time.RFC3339),
	}
	if v.Profile != nil {
		if b, err := json.Marshal(v.Profile); err == nil {
			resp.Profile = b
		}
	}
	if v.FinishedAt != nil {
		s := v.FinishedAt.Format(time.RFC3339)
		resp.FinishedAt = &s
	}
	return resp
}
