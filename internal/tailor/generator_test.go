package tailor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-tailor/internal/llm"
	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/resume/edits"
	"resume-tailor/resume/model"
)

func TestGenerateMarksFailures(t *testing.T) {
	in := llm.PromptInput{JobText: "job", Resume: model.NewBuffer([]string{"a"})}

	tests := []struct {
		name   string
		client llm.Client
		kind   edits.FailureKind
	}{
		{"provider error", llm.Func(func(context.Context, string) (string, error) {
			return "", errors.New("connection reset")
		}), edits.FailureNoResponse},
		{"unparseable", llm.Func(func(context.Context, string) (string, error) {
			return "sure! here are your edits", nil
		}), edits.FailureMalformed},
		{"wrong version", llm.Func(func(context.Context, string) (string, error) {
			return `{"version":3,"meta":{},"ops":[]}`, nil
		}), edits.FailureMalformed},
		{"no client", nil, edits.FailureNoResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Generator{Client: tt.client, Model: "m", Log: telemetry.NewNop()}
			set := g.Generate(context.Background(), in)
			require.NotNil(t, set.Failure)
			assert.Equal(t, tt.kind, set.Failure.Kind)
			assert.Empty(t, set.Ops)
		})
	}
}

func TestGenerateStripsThinkBlock(t *testing.T) {
	g := &Generator{
		Client: llm.Func(func(context.Context, string) (string, error) {
			return "<think>plan</think>\n" + validEdits, nil
		}),
		Model: "m",
		Log:   telemetry.NewNop(),
	}
	set := g.Generate(context.Background(), llm.PromptInput{Resume: model.NewBuffer([]string{"a", "b"})})
	assert.Nil(t, set.Failure)
	assert.Len(t, set.Ops, 1)
}

func TestCorrectorReturnsErrorOnBadOutput(t *testing.T) {
	g := &Generator{
		Client: llm.Func(func(context.Context, string) (string, error) { return "nope", nil }),
		Model:  "m",
		Log:    telemetry.NewNop(),
	}
	correct := g.Corrector(llm.PromptInput{Resume: model.NewBuffer([]string{"a"})})
	_, err := correct(context.Background(), edits.Placeholder("m"), []string{"finding"})

	var gerr *llm.GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, edits.FailureMalformed, gerr.Kind)
}

func TestCacheable(t *testing.T) {
	assert.True(t, Cacheable(validEdits))
	assert.False(t, Cacheable("not json"))
}
