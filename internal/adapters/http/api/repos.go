package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/startrack/internal/domain/model"
)

// RepoDependencies defines the interface for single entity reads.
type RepoDependencies interface {
	Repo(ctx context.Context, id int64) (model.AggregateRecord, error)
}

// RepoHandler handles repo requests.
type RepoHandler struct {
	deps RepoDependencies
}

// NewRepoHandler creates a new repo handler.
func NewRepoHandler(deps RepoDependencies) *RepoHandler {
	return &RepoHandler{deps: deps}
}

// HandleGetRepo handles GET /repos/{id} requests.
func (h *RepoHandler) HandleGetRepo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/repos/")
	id, err := strconv.ParseInt(path, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid repo id %q", ErrBadRequest, path))
		return
	}
	agg, err := h.deps.Repo(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}
