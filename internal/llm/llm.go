package llm

import (
	"context"
	"errors"
	"fmt"

	"resume-tailor/resume/edits"
)

// Client abstracts LLM providers that turn a prompt into raw text.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to Client.
type Func func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ErrEmptyResponse is returned when the provider answered with no content.
var ErrEmptyResponse = errors.New("empty response")

// GenerationError distinguishes a provider that produced nothing from one whose output did not parse.
type GenerationError struct {
	Kind edits.FailureKind
	Raw  string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation %s: %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Failure converts the error into the marker carried by an edit set.
func (e *GenerationError) Failure() edits.Failure {
	detail := ""
	if e.Err != nil {
		detail = e.Err.Error()
	}
	return edits.Failure{Kind: e.Kind, Detail: detail, Raw: e.Raw}
}

// NoResponse wraps a transport or provider error.
func NoResponse(err error) *GenerationError {
	return &GenerationError{Kind: edits.FailureNoResponse, Err: err}
}

// Malformed wraps a parse failure together with the offending text.
func Malformed(raw string, err error) *GenerationError {
	return &GenerationError{Kind: edits.FailureMalformed, Raw: raw, Err: err}
}
