package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/startrack/internal/adapters/repository"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves the service state and the last run report per job.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats. With ?job=<name> only that job's last
// report is returned, 404 when the job has not run yet.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	stats := h.statsProvider.GetStats()

	job := strings.TrimSpace(r.URL.Query().Get("job"))
	if job == "" {
		writeJSON(w, http.StatusOK, stats)
		return
	}
	last, _ := stats["lastRuns"].(map[string]any)
	report, ok := last[job]
	if !ok {
		writeDomainError(w, fmt.Errorf("%w: no run of %q", repository.ErrNotFound, job))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
