package api

import (
	"net/http"

	"github.com/okian/drainwatch/internal/adapters/repository"
)

// StatsHandler handles stats requests.
type StatsHandler struct {
	store repository.Store
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(store repository.Store) *StatsHandler {
	return &StatsHandler{store: store}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
