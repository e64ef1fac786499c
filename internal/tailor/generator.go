package tailor

import (
	"context"
	"errors"
	"fmt"

	"resume-tailor/internal/llm"
	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/resume/edits"
)

// Generator asks the model for edit sets.
type Generator struct {
	Client llm.Client
	Model  string
	Log    *telemetry.Logger
}

// Generate returns the model's edit set for in. A provider error or an unparseable response does not
// fail the call: the returned set carries the failure marker instead, which the validator reports.
func (g *Generator) Generate(ctx context.Context, in llm.PromptInput) edits.Set {
	in.Model = g.Model
	set, err := g.complete(ctx, llm.GeneratePrompt(in))
	if err != nil {
		var gerr *llm.GenerationError
		if !errors.As(err, &gerr) {
			gerr = llm.NoResponse(err)
		}
		g.Log.Warn("tailor.generate.failed", map[string]any{
			"model": g.Model,
			"kind":  string(gerr.Kind),
			"error": err.Error(),
		})
		return edits.FromFailure(gerr.Failure(), g.Model)
	}
	g.Log.Debug("tailor.generate.complete", map[string]any{"model": g.Model, "ops": len(set.Ops)})
	return set
}

// Corrector returns a resolve corrector that re-prompts with the findings and the current edit set.
// Any failure is returned as an error so the resolution loop can fall back to manual repair.
func (g *Generator) Corrector(in llm.PromptInput) func(ctx context.Context, set edits.Set, findings []string) (edits.Set, error) {
	in.Model = g.Model
	return func(ctx context.Context, set edits.Set, findings []string) (edits.Set, error) {
		current := set
		if current.Failure != nil {
			current = edits.Placeholder(g.Model)
		}
		data, err := edits.Encode(current)
		if err != nil {
			return edits.Set{}, fmt.Errorf("encode edits for correction: %w", err)
		}
		corrected, err := g.complete(ctx, llm.CorrectionPrompt(in, findings, string(data)))
		if err != nil {
			return edits.Set{}, fmt.Errorf("correction: %w", err)
		}
		return corrected, nil
	}
}

func (g *Generator) complete(ctx context.Context, prompt string) (edits.Set, error) {
	if g.Client == nil {
		return edits.Set{}, llm.NoResponse(errors.New("no generator configured"))
	}
	raw, err := g.Client.Complete(ctx, prompt)
	if err != nil {
		return edits.Set{}, llm.NoResponse(err)
	}
	set, err := edits.DecodeResponse(raw)
	if err != nil {
		return edits.Set{}, llm.Malformed(raw, err)
	}
	return set, nil
}

// Cacheable reports whether a raw completion decodes as an edit set. Only those are worth caching.
func Cacheable(raw string) bool {
	_, err := edits.DecodeResponse(raw)
	return err == nil
}
