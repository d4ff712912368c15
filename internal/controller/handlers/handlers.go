// Package handlers contains HTTP handlers for the controller API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"quantplane/internal/artifact"
	"quantplane/internal/pipeline"
	"quantplane/internal/store"
	"quantplane/pkg/api"
)

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	store     store.Store
	svc       *pipeline.Service
	artifacts *artifact.Store
}

// New creates a new Handlers instance.
func New(s store.Store, svc *pipeline.Service, artifacts *artifact.Store) *Handlers {
	return &Handlers{store: s, svc: svc, artifacts: artifacts}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}

// serviceError maps pipeline and store errors onto HTTP statuses:
// validation 400, missing dependency 404, precondition 409.
func (h *Handlers) serviceError(w http.ResponseWriter, err error) {
	switch {
	case pipeline.IsValidation(err):
		h.httpError(w, err.Error(), http.StatusBadRequest)
	case pipeline.IsPrecondition(err):
		h.httpError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, store.ErrNotFound):
		h.httpError(w, "not found", http.StatusNotFound)
	default:
		h.httpError(w, "internal error", http.StatusInternalServerError)
	}
}
