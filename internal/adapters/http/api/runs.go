package api

import (
	"net/http"

	"github.com/okian/drainwatch/pkg/logger"
)

// RunsHandler triggers batch runs.
type RunsHandler struct {
	runner Runner
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(runner Runner) *RunsHandler {
	return &RunsHandler{runner: runner}
}

// HandlePostRun handles POST /runs requests. The run executes synchronously
// and the response carries the stats of the published run.
func (h *RunsHandler) HandlePostRun(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if h.runner == nil {
		writeError(w, http.StatusServiceUnavailable, "runs_disabled", ErrRunsDisabled)
		return
	}
	stats, err := h.runner.Rerun(r.Context())
	if err != nil {
		logger.Get().Named("api").Warn(r.Context(), "run request failed", logger.Error(err))
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stats)
}
