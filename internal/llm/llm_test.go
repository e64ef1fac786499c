package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"resume-tailor/resume/edits"
)

func TestGenerationErrorFailure(t *testing.T) {
	cause := errors.New("connection refused")
	err := NoResponse(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, edits.Failure{Kind: edits.FailureNoResponse, Detail: "connection refused"}, err.Failure())

	var ge *GenerationError
	wrapped := error(Malformed("<html>", errors.New("invalid character '<'")))
	assert.True(t, errors.As(wrapped, &ge))
	assert.Equal(t, edits.FailureMalformed, ge.Kind)
	assert.Equal(t, "<html>", ge.Failure().Raw)
}

func TestFuncAdapter(t *testing.T) {
	var c Client = Func(func(ctx context.Context, prompt string) (string, error) {
		return "echo:" + prompt, nil
	})
	out, err := c.Complete(context.Background(), "hi")
	assert.NoError(t, err)
	assert.Equal(t, "echo:hi", out)
}
