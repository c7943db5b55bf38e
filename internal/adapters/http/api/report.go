package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/drainwatch/internal/adapters/repository"
	"github.com/okian/drainwatch/internal/domain/model"
)

// ReportHandler serves the stored run's events, matches, daily rows and KPIs.
type ReportHandler struct {
	store repository.Store
}

// NewReportHandler creates a new report handler.
func NewReportHandler(store repository.Store) *ReportHandler {
	return &ReportHandler{store: store}
}

// HandleEvents handles GET /events?vessel=ID requests.
func (h *ReportHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	events, err := h.store.Events(r.Context(), vesselParam(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(events))
}

// HandleMatches handles GET /matches?status=S requests.
func (h *ReportHandler) HandleMatches(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	var status model.Status
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		st, err := model.ParseStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
			return
		}
		status = st
	}
	matches, err := h.store.Matches(r.Context(), status)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(matches))
}

// HandleDaily handles GET /daily?vessel=ID requests.
func (h *ReportHandler) HandleDaily(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	rows, err := h.store.Daily(r.Context(), vesselParam(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rows))
}

// HandleKPIs handles GET /kpis requests.
func (h *ReportHandler) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	kpis, err := h.store.KPIs(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kpis)
}

func vesselParam(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("vessel"))
}

// nonNil keeps empty results encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
