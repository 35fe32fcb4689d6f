package service

import "errors"

var (
	// ErrNotStarted is returned by jobs before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrJobRunning refuses overlapping runs of one job.
	ErrJobRunning = errors.New("job already running")
	// ErrUnknownJob is returned for unknown job names.
	ErrUnknownJob = errors.New("unknown job")
	// ErrUnsupported is returned when a job lacks its collaborator.
	ErrUnsupported = errors.New("job not supported by this configuration")
	// ErrMissingDependency is returned by Start.
	ErrMissingDependency = errors.New("missing dependency")
	// ErrInvalidArgument rejects bad caller input.
	ErrInvalidArgument = errors.New("invalid argument")
)
