package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-tailor/internal/shared/metrics"
	"resume-tailor/resume/edits"
	"resume-tailor/resume/model"
	"resume-tailor/resume/service"
)

type memStore struct {
	set       edits.Set
	saves     int
	discarded bool
}

func (m *memStore) Path() string { return "mem/edits.json" }
func (m *memStore) Save(set edits.Set) error {
	m.set = set
	m.saves++
	return nil
}
func (m *memStore) Load() (edits.Set, error) { return m.set, nil }
func (m *memStore) Discard() error {
	m.discarded = true
	return nil
}

type scriptedInteractor struct {
	choices []Choice
	calls   int
}

func (s *scriptedInteractor) Choose(ctx context.Context, findings []string) (Choice, error) {
	c := s.choices[s.calls]
	s.calls++
	return c, nil
}

type stubRepairer struct {
	repaired edits.Set
	calls    int
}

func (s *stubRepairer) AwaitRepair(ctx context.Context, store Store, findings []string) (edits.Set, error) {
	s.calls++
	return s.repaired, nil
}

var buffer = model.NewBuffer([]string{"Jane Doe", "EXPERIENCE", "Wrote Python"})

func validator(set edits.Set) []string {
	return service.ValidateEdits(set, buffer, service.RiskMed)
}

func validSet() edits.Set {
	return edits.Set{Version: 1, Ops: []edits.Op{edits.ReplaceLine(3, "Wrote Go")}}
}

func invalidSet() edits.Set {
	return edits.Set{Version: 1, Ops: []edits.Op{edits.ReplaceLine(9, "out of range")}}
}

func newLoop(policy Policy) (*Loop, *memStore) {
	store := &memStore{}
	return &Loop{Policy: policy, Validate: validator, Store: store}, store
}

func TestRunReturnsValidSetImmediately(t *testing.T) {
	loop, _ := newLoop(PolicyFailHard)
	out, err := loop.Run(context.Background(), validSet())
	require.NoError(t, err)
	assert.Equal(t, validSet(), out.Set)
	assert.Zero(t, out.Iterations)
	assert.Empty(t, out.Warnings)
}

func TestFailSoftKeepsFiles(t *testing.T) {
	loop, store := newLoop(PolicyFailSoft)
	_, err := loop.Run(context.Background(), invalidSet())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Recoverable)
	assert.ErrorIs(t, err, ErrFailSoft)
	assert.Equal(t, []string{"Op 1: line 9 not in resume bounds"}, verr.Findings)
	assert.Contains(t, err.Error(), "Op 1: line 9 not in resume bounds")
	assert.False(t, store.discarded)
}

func TestFailHardDiscardsEdits(t *testing.T) {
	loop, store := newLoop(PolicyFailHard)
	_, err := loop.Run(context.Background(), invalidSet())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.False(t, verr.Recoverable)
	assert.ErrorIs(t, err, ErrFailHard)
	assert.True(t, store.discarded)
}

func TestAskWithoutOperatorIsNotRecoverable(t *testing.T) {
	loop, _ := newLoop(PolicyAsk)
	_, err := loop.Run(context.Background(), invalidSet())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, ErrNonInteractive)
	assert.False(t, verr.Recoverable)
}

func TestAskAcceptReturnsWarnings(t *testing.T) {
	loop, _ := newLoop(PolicyAsk)
	loop.Interactor = &scriptedInteractor{choices: []Choice{ChoiceAccept}}

	out, err := loop.Run(context.Background(), invalidSet())
	require.NoError(t, err)
	assert.Equal(t, invalidSet(), out.Set)
	assert.Equal(t, []string{"Op 1: line 9 not in resume bounds"}, out.Warnings)
}

func TestAskRetryThenValid(t *testing.T) {
	loop, store := newLoop(PolicyAsk)
	loop.Interactor = &scriptedInteractor{choices: []Choice{ChoiceRetry}}
	var seen []string
	loop.Correct = func(ctx context.Context, set edits.Set, findings []string) (edits.Set, error) {
		seen = findings
		return validSet(), nil
	}

	out, err := loop.Run(context.Background(), invalidSet())
	require.NoError(t, err)
	assert.Equal(t, 1, out.Iterations)
	assert.Equal(t, []string{"Op 1: line 9 not in resume bounds"}, seen)
	assert.Equal(t, 1, store.saves, "corrected set is persisted before re-validation")
	assert.Equal(t, validSet(), store.set)
}

func TestRetryWithoutCorrectorFallsBackToManual(t *testing.T) {
	loop, _ := newLoop(PolicyRetry)
	repairer := &stubRepairer{repaired: validSet()}
	loop.Repairer = repairer

	out, err := loop.Run(context.Background(), invalidSet())
	require.NoError(t, err)
	assert.Equal(t, 1, repairer.calls)
	assert.Equal(t, validSet(), out.Set)
}

func TestRetryCorrectorFailureWithoutRepairer(t *testing.T) {
	loop, _ := newLoop(PolicyRetry)
	loop.Correct = func(ctx context.Context, set edits.Set, findings []string) (edits.Set, error) {
		return edits.Set{}, errors.New("503 upstream")
	}

	_, err := loop.Run(context.Background(), invalidSet())
	assert.ErrorIs(t, err, ErrManualUnavailable)
}

func TestManualPolicyUsesRepairer(t *testing.T) {
	loop, _ := newLoop(PolicyManual)
	repairer := &stubRepairer{repaired: validSet()}
	loop.Repairer = repairer

	out, err := loop.Run(context.Background(), invalidSet())
	require.NoError(t, err)
	assert.Equal(t, 1, out.Iterations)
	assert.Equal(t, 1, repairer.calls)
}

func TestRetryIsUnboundedByDefault(t *testing.T) {
	loop, _ := newLoop(PolicyRetry)
	reg := metrics.New()
	loop.Metrics = reg
	calls := 0
	loop.Correct = func(ctx context.Context, set edits.Set, findings []string) (edits.Set, error) {
		calls++
		if calls < 50 {
			return invalidSet(), nil
		}
		return validSet(), nil
	}

	out, err := loop.Run(context.Background(), invalidSet())
	require.NoError(t, err)
	assert.Equal(t, 50, out.Iterations)
	assert.Contains(t, reg.Render(), "tailor_resolve_iterations_total 50\n")
	assert.Contains(t, reg.Render(), "tailor_validations_total 51\n")
}

func TestMaxIterationsStopsTheLoop(t *testing.T) {
	loop, _ := newLoop(PolicyRetry)
	loop.MaxIterations = 3
	calls := 0
	loop.Correct = func(ctx context.Context, set edits.Set, findings []string) (edits.Set, error) {
		calls++
		return invalidSet(), nil
	}

	_, err := loop.Run(context.Background(), invalidSet())
	assert.ErrorIs(t, err, ErrIterationLimit)
	assert.Equal(t, 3, calls)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	loop, _ := newLoop(PolicyRetry)
	ctx, cancel := context.WithCancel(context.Background())
	loop.Correct = func(c context.Context, set edits.Set, findings []string) (edits.Set, error) {
		cancel()
		return invalidSet(), nil
	}

	_, err := loop.Run(ctx, invalidSet())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGeneratorFailureMarkerIsAFinding(t *testing.T) {
	loop, _ := newLoop(PolicyFailSoft)
	set := edits.FromFailure(edits.Failure{Kind: edits.FailureNoResponse, Detail: "timeout"}, "gpt-4o-mini")

	_, err := loop.Run(context.Background(), set)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Generator returned no response: timeout"}, verr.Findings)
}

func TestParsePolicy(t *testing.T) {
	cases := map[string]Policy{
		"":          PolicyAsk,
		"ask":       PolicyAsk,
		"RETRY":     PolicyRetry,
		"fail:soft": PolicyFailSoft,
		"fail-hard": PolicyFailHard,
		"manual":    PolicyManual,
		"hard":      PolicyFailHard,
	}
	for in, want := range cases {
		got, err := ParsePolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePolicy("yolo")
	assert.Error(t, err)
}
