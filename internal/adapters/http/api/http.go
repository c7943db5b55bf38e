// Package api exposes the latest batch report over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/drainwatch/internal/adapters/repository"
	service "github.com/okian/drainwatch/internal/app"
)

// Runner triggers a batch run over the configured input.
type Runner interface {
	Rerun(ctx context.Context) (repository.Stats, error)
}

// Server wires HTTP routes for the report API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	reportHandler *ReportHandler
	runsHandler   *RunsHandler
}

// NewServer creates a new API server. runner may be nil, in which case
// POST /runs answers 503.
func NewServer(store repository.Store, runner Runner) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(store),
		reportHandler: NewReportHandler(store),
		runsHandler:   NewRunsHandler(runner),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.reportHandler.HandleEvents, "events"))
	mux.HandleFunc("/matches", MetricsMiddleware(s.reportHandler.HandleMatches, "matches"))
	mux.HandleFunc("/daily", MetricsMiddleware(s.reportHandler.HandleDaily, "daily"))
	mux.HandleFunc("/kpis", MetricsMiddleware(s.reportHandler.HandleKPIs, "kpis"))
	mux.HandleFunc("/runs", MetricsMiddleware(s.runsHandler.HandlePostRun, "runs"))
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

// writeStoreError maps report store and run errors to HTTP responses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNoRun):
		writeError(w, http.StatusNotFound, "no_run", err)
	case errors.Is(err, service.ErrRunInProgress):
		writeError(w, http.StatusConflict, "run_in_progress", err)
	case errors.Is(err, service.ErrIngest):
		writeError(w, http.StatusUnprocessableEntity, "ingest_failed", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "cancelled", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	return false
}
