package api

import (
	"errors"
	"net/http"

	"github.com/hstefan/energy-sensors/internal/clustering"
)

// handleClusterSummary returns the latest clustering run and its clusters.
func (s *Server) handleClusterSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.clusters.Summary(r.Context())
	if err != nil {
		if errors.Is(err, clustering.ErrNoRun) {
			writeNotFound(w, "no clustering run yet")
			return
		}
		s.logger.Error("failed to load cluster summary", "error", err)
		writeInternalError(w, "failed to load cluster summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleComputeClusters runs clustering synchronously and returns the new
// summary.
func (s *Server) handleComputeClusters(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "clustering is disabled")
		return
	}

	summary, err := s.engine.Compute(r.Context())
	if err != nil {
		if errors.Is(err, clustering.ErrNoData) {
			writeError(w, http.StatusConflict, ErrCodeConflict, "no events to cluster")
			return
		}
		s.logger.Error("clustering run failed", "error", err)
		writeInternalError(w, "clustering run failed")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
