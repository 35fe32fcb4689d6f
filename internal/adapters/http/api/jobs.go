package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/startrack/internal/app"
	"github.com/okian/startrack/internal/domain/model"
	"github.com/okian/startrack/pkg/logger"
)

// JobDependencies triggers jobs by name.
type JobDependencies interface {
	RunJob(ctx context.Context, name string, force bool) (any, error)
}

// JobsHandler handles manual and cron triggered job runs.
type JobsHandler struct {
	deps   JobDependencies
	logger logger.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps JobDependencies, l logger.Logger) *JobsHandler {
	return &JobsHandler{deps: deps, logger: l}
}

// HandleRunJob handles POST /jobs/{name}?force=true requests. The run is
// synchronous; the response carries its report.
func (h *JobsHandler) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if name == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing job name", ErrBadRequest))
		return
	}
	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: force must be a boolean", ErrBadRequest))
			return
		}
		force = b
	}

	report, err := h.deps.RunJob(r.Context(), name, force)
	if err != nil {
		h.logger.Error(r.Context(), "job failed", logger.String("job", name), logger.Error(err))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// RetryDependencies runs delivered retry tasks.
type RetryDependencies interface {
	Retry(ctx context.Context, task model.RetryTask) (service.RetryReport, error)
}

// RetryHandler receives tasks from the delayed task scheduler.
type RetryHandler struct {
	deps   RetryDependencies
	logger logger.Logger
}

// NewRetryHandler creates a new retry handler.
func NewRetryHandler(deps RetryDependencies, l logger.Logger) *RetryHandler {
	return &RetryHandler{deps: deps, logger: l}
}

// HandleRetry handles POST of a JSON encoded retry task.
func (h *RetryHandler) HandleRetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var task model.RetryTask
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&task); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(task.Payload.Job) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing payload.job", ErrBadRequest))
		return
	}
	report, err := h.deps.Retry(r.Context(), task)
	if err != nil {
		h.logger.Error(r.Context(), "retry failed",
			logger.String("task", task.ID), logger.String("job", task.Payload.Job), logger.Error(err))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
