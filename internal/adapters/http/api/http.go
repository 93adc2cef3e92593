// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pulseworks/rppg/internal/adapters/repository"
	"github.com/pulseworks/rppg/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wires HTTP routes for the pipeline's operational surface.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	estimatesHandler *EstimatesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(store repository.Store, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		estimatesHandler: NewEstimatesHandler(store),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/api/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/estimates", MetricsMiddleware(s.estimatesHandler.HandleGetEstimates, "estimates"))
	mux.HandleFunc("/api/estimates/latest", MetricsMiddleware(s.estimatesHandler.HandleGetLatest, "estimates_latest"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
