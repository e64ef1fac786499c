package bulk

import "errors"

var (
	// ErrNoJobs indicates discovery matched nothing.
	ErrNoJobs = errors.New("no jobs found")

	// ErrJobsNotFound indicates the jobs path does not exist.
	ErrJobsNotFound = errors.New("jobs path not found")

	// ErrInvalidManifest indicates a manifest that cannot be turned into job specs.
	ErrInvalidManifest = errors.New("invalid job manifest")
)
