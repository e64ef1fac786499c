package resolve

import (
	"errors"
	"fmt"
)

var (
	// ErrNonInteractive is returned when ASK needs an operator but none is attached.
	ErrNonInteractive = errors.New("ask mode not available - non-interactive terminal")
	// ErrManualUnavailable is returned when MANUAL repair has no way to wait for the operator.
	ErrManualUnavailable = errors.New("manual mode not available - non-interactive terminal")
	// ErrIterationLimit is returned when the optional remediation cap is reached.
	ErrIterationLimit = errors.New("resolution iteration limit reached")
	// ErrFailSoft marks a validation failure that leaves the persisted files in place.
	ErrFailSoft = errors.New("validation failed (soft)")
	// ErrFailHard marks a validation failure after which the persisted edits are discarded.
	ErrFailHard = errors.New("validation failed (hard)")
)

// ValidationError carries the findings that ended the loop. Recoverable failures leave the edits file in
// place for inspection.
type ValidationError struct {
	Findings    []string
	Recoverable bool
	Err         error
}

func (e *ValidationError) Error() string {
	if len(e.Findings) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %d finding(s), first: %s", e.Err, len(e.Findings), e.Findings[0])
}

func (e *ValidationError) Unwrap() error { return e.Err }
