package api

import (
	"errors"
	"net/http"

	"github.com/okian/startrack/internal/adapters/repository"
	service "github.com/okian/startrack/internal/app"
	"github.com/okian/startrack/internal/domain/ranking"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// classify maps domain errors to a status and a stable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrUnknownJob):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrJobRunning):
		return http.StatusConflict, "job_running"
	case errors.Is(err, service.ErrUnsupported):
		return http.StatusNotImplemented, "unsupported"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "not_started"
	case errors.Is(err, ranking.ErrIntegrity), errors.Is(err, ranking.ErrFetch):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}
