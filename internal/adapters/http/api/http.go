// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/startrack/internal/domain/retry"
	"github.com/okian/startrack/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider
	LeaderboardDependencies
	RepoDependencies
	JobDependencies
	RetryDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	repoHandler        *RepoHandler
	jobsHandler        *JobsHandler
	retryHandler       *RetryHandler
	retryPath          string
}

// Option configures a Server.
type Option func(*Server)

// WithRetryPath sets the route delayed retry tasks are delivered to.
func WithRetryPath(path string) Option {
	return func(s *Server) {
		if path != "" {
			s.retryPath = path
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, maxLimit int, l logger.Logger, opts ...Option) *Server {
	if l == nil {
		l = logger.Get()
	}
	s := &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		repoHandler:        NewRepoHandler(deps),
		jobsHandler:        NewJobsHandler(deps, l.Named("jobs")),
		retryHandler:       NewRetryHandler(deps, l.Named("retry")),
		retryPath:          retry.DefaultEndpoint,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/repos/", MetricsMiddleware(s.repoHandler.HandleGetRepo, "repos"))
	mux.HandleFunc("/jobs/", MetricsMiddleware(s.jobsHandler.HandleRunJob, "jobs"))
	mux.HandleFunc(s.retryPath, MetricsMiddleware(s.retryHandler.HandleRetry, "retry"))
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
