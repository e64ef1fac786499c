package tailor

import "errors"

var (
	// ErrInvalidInput indicates a request that cannot be processed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoGenerator indicates generation was needed but no generator is configured.
	ErrNoGenerator = errors.New("no generator configured")
)
