package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"quantplane/internal/auth"
	"quantplane/internal/store"
	"quantplane/pkg/api"

	"github.com/google/uuid"
)

// CreateTenant handles POST /tenants (Admin Only).
// It generates a new API Key, hashes it for storage, and returns the raw key ONCE.
func (h *Handlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		h.httpError(w, "name is required", http.StatusBadRequest)
		return
	}

	// Generate a secure random API key (32 bytes)
	rawKeyBytes := make([]byte, 32)
	if _, err := rand.Read(rawKeyBytes); err != nil {
		h.httpError(w, "Entropy failure", http.StatusInternalServerError)
		return
	}
	apiKey := "qp_" + hex.EncodeToString(rawKeyBytes)

	tenant := &store.Tenant{
		ID:        "tn_" + uuid.New().String()[:8],
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.store.CreateTenant(ctx, tenant, auth.HashKey(apiKey)); err != nil {
		h.httpError(w, "Failed to create tenant", http.StatusInternalServerError)
		return
	}

	// Return the Raw Key (this is the only time the user sees it)
	resp := api.CreateTenantResponse{
		ID:     tenant.ID,
		Name:   tenant.Name,
		APIKey: apiKey,
	}
	h.respondJson(w, http.StatusCreated, resp)
}
