// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"

	"github.com/pulseworks/rppg/internal/adapters/repository"
)

// Estimate query configuration constants.
const (
	defaultEstimateLimit = 16
	maxEstimateLimit     = 256
)

// EstimatesHandler serves the recorded heart-rate estimate history.
type EstimatesHandler struct {
	store repository.Store
}

// NewEstimatesHandler creates a new estimates handler.
func NewEstimatesHandler(store repository.Store) *EstimatesHandler {
	return &EstimatesHandler{store: store}
}

// HandleGetEstimates handles GET /api/estimates?limit=N requests.
// Estimates are returned newest first.
func (h *EstimatesHandler) HandleGetEstimates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	n := defaultEstimateLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		n = parsed
	}
	if n > maxEstimateLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", ErrBadRequest)
		return
	}

	estimates, err := h.store.Recent(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, estimates)
}

// HandleGetLatest handles GET /api/estimates/latest requests.
func (h *EstimatesHandler) HandleGetLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	latest, ok := h.store.Latest(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", ErrNoEstimates)
		return
	}
	writeJSON(w, http.StatusOK, latest)
}
