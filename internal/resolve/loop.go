package resolve

import (
	"context"
	"fmt"

	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/resume/edits"
)

// ValidateFunc returns the findings for a candidate edit set. An empty result means the set is acceptable.
type ValidateFunc func(set edits.Set) []string

// Corrector asks the generator for a repaired edit set seeded with the findings.
type Corrector func(ctx context.Context, set edits.Set, findings []string) (edits.Set, error)

// Interactor lets an operator pick the reaction to a round of findings under ASK.
type Interactor interface {
	Choose(ctx context.Context, findings []string) (Choice, error)
}

// Repairer blocks until the persisted edit set has been edited by hand and parses again.
type Repairer interface {
	AwaitRepair(ctx context.Context, store Store, findings []string) (edits.Set, error)
}

// Loop drives one job's edit set from generation to a validated state.
type Loop struct {
	Policy   Policy
	Validate ValidateFunc
	Store    Store

	// Correct is optional. Without it RETRY falls back to MANUAL.
	Correct Corrector
	// Interactor is nil when no operator is attached.
	Interactor Interactor
	// Repairer is nil when manual repair is unavailable.
	Repairer Repairer
	// MaxIterations caps remediation rounds. Zero leaves the loop unbounded.
	MaxIterations int

	Log     *telemetry.Logger
	Metrics *metrics.Registry
}

// Outcome is the terminal success state of a loop run.
type Outcome struct {
	Set edits.Set
	// Warnings holds findings the operator chose to accept. Empty when the set validated cleanly.
	Warnings   []string
	Iterations int
}

// Run validates set and remediates according to the policy until the set validates, the operator accepts it,
// or a terminal policy fires. The loop does not stop on its own under RETRY or MANUAL unless MaxIterations is set.
func (l *Loop) Run(ctx context.Context, set edits.Set) (Outcome, error) {
	iterations := 0
	for {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		findings := l.Validate(set)
		l.Metrics.ObserveValidation(len(findings))
		if len(findings) == 0 {
			return Outcome{Set: set, Iterations: iterations}, nil
		}

		choice, err := l.choose(ctx, findings)
		if err != nil {
			return Outcome{}, err
		}
		l.Log.Info("resolve.findings", map[string]any{
			"path":      l.Store.Path(),
			"findings":  len(findings),
			"choice":    choice.String(),
			"iteration": iterations,
		})

		switch choice {
		case ChoiceAccept:
			return Outcome{Set: set, Warnings: findings, Iterations: iterations}, nil
		case ChoiceFailSoft:
			return Outcome{}, &ValidationError{Findings: findings, Recoverable: true, Err: ErrFailSoft}
		case ChoiceFailHard:
			if err := l.Store.Discard(); err != nil {
				l.Log.Warn("resolve.discard_failed", map[string]any{"path": l.Store.Path(), "error": err})
			}
			return Outcome{}, &ValidationError{Findings: findings, Err: ErrFailHard}
		}

		if l.MaxIterations > 0 && iterations >= l.MaxIterations {
			return Outcome{}, &ValidationError{Findings: findings, Err: ErrIterationLimit}
		}
		iterations++
		l.Metrics.IncResolveIteration()

		if choice == ChoiceRetry {
			corrected, ok := l.retry(ctx, set, findings)
			if ok {
				set = corrected
				continue
			}
		}
		repaired, err := l.manual(ctx, findings)
		if err != nil {
			return Outcome{}, err
		}
		set = repaired
	}
}

func (l *Loop) choose(ctx context.Context, findings []string) (Choice, error) {
	if c, ok := choiceFor(l.Policy); ok {
		return c, nil
	}
	if l.Interactor == nil {
		return 0, &ValidationError{Findings: findings, Err: ErrNonInteractive}
	}
	c, err := l.Interactor.Choose(ctx, findings)
	if err != nil {
		return 0, fmt.Errorf("ask: %w", err)
	}
	return c, nil
}

// retry reports false when the caller should fall back to manual repair.
func (l *Loop) retry(ctx context.Context, set edits.Set, findings []string) (edits.Set, bool) {
	if l.Correct == nil {
		l.Log.Warn("resolve.retry.unavailable", map[string]any{"path": l.Store.Path()})
		return edits.Set{}, false
	}
	corrected, err := l.Correct(ctx, set, findings)
	if err != nil {
		l.Log.Warn("resolve.retry.failed", map[string]any{"path": l.Store.Path(), "error": err})
		return edits.Set{}, false
	}
	if err := l.Store.Save(corrected); err != nil {
		l.Log.Warn("resolve.retry.persist_failed", map[string]any{"path": l.Store.Path(), "error": err})
		return edits.Set{}, false
	}
	l.Log.Info("resolve.retry", map[string]any{"path": l.Store.Path(), "ops": len(corrected.Ops)})
	return corrected, true
}

func (l *Loop) manual(ctx context.Context, findings []string) (edits.Set, error) {
	if l.Repairer == nil {
		return edits.Set{}, &ValidationError{Findings: findings, Err: ErrManualUnavailable}
	}
	set, err := l.Repairer.AwaitRepair(ctx, l.Store, findings)
	if err != nil {
		return edits.Set{}, fmt.Errorf("manual repair: %w", err)
	}
	l.Log.Info("resolve.manual.reloaded", map[string]any{"path": l.Store.Path(), "ops": len(set.Ops)})
	return set, nil
}
