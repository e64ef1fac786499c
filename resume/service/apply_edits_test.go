package service

import (
	"errors"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-tailor/resume/contract"
	"resume-tailor/resume/edits"
	"resume-tailor/resume/model"
)

func TestApplyEditsRangeThenInsert(t *testing.T) {
	buf := model.NewBuffer([]string{"A", "B", "C"})
	set := setOf(
		edits.ReplaceRange(2, 3, "X\nY\nZ"),
		edits.InsertAfter(1, "Q"),
	)

	got, err := ApplyEdits(buf, set)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"A", "Q", "X", "Y", "Z"}, got.Lines()); diff != "" {
		t.Fatalf("unexpected buffer (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"A", "B", "C"}, buf.Lines(), "input buffer must not change")
}

func TestApplyEditsPerKind(t *testing.T) {
	base := []string{"1", "2", "3", "4", "5"}
	tests := []struct {
		name string
		op   edits.Op
		want []string
	}{
		{name: "replace_line", op: edits.ReplaceLine(3, "three"), want: []string{"1", "2", "three", "4", "5"}},
		{name: "replace_range grow", op: edits.ReplaceRange(2, 3, "a\nb\nc"), want: []string{"1", "a", "b", "c", "4", "5"}},
		{name: "replace_range shrink", op: edits.ReplaceRange(2, 4, "a"), want: []string{"1", "a", "5"}},
		{name: "replace_range empty text", op: edits.ReplaceRange(2, 3, ""), want: []string{"1", "", "4", "5"}},
		{name: "insert_after multi", op: edits.InsertAfter(2, "x\ny"), want: []string{"1", "2", "x", "y", "3", "4", "5"}},
		{name: "insert_after last", op: edits.InsertAfter(5, "tail"), want: []string{"1", "2", "3", "4", "5", "tail"}},
		{name: "delete_range", op: edits.DeleteRange(2, 4), want: []string{"1", "5"}},
		{name: "delete everything", op: edits.DeleteRange(1, 5), want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyEdits(model.NewBuffer(base), setOf(tt.op))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got.Lines()); diff != "" {
				t.Fatalf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyEditsNoOpIsIdentity(t *testing.T) {
	buf := model.NewBuffer([]string{"A", "", "C"})
	got, err := ApplyEdits(buf, setOf())
	require.NoError(t, err)
	assert.True(t, buf.Equal(got))
}

func TestApplyEditsErrors(t *testing.T) {
	buf := model.NewBuffer([]string{"A", "B"})

	_, err := ApplyEdits(buf, setOf(edits.ReplaceLine(1, "ok"), edits.ReplaceLine(7, "x")))
	var editErr *EditError
	require.True(t, errors.As(err, &editErr))
	assert.Equal(t, 1, editErr.Index)
	assert.Equal(t, 7, editErr.Line)
	assert.True(t, errors.Is(err, ErrLineMissing))

	_, err = ApplyEdits(buf, setOf(edits.DeleteRange(2, 3)))
	assert.True(t, errors.Is(err, ErrLineMissing))

	_, err = ApplyEdits(buf, setOf(edits.Op{Kind: "swap", Line: new(int)}))
	assert.True(t, errors.Is(err, ErrUnknownOp))

	bad := setOf(edits.ReplaceLine(1, "x"))
	bad.Version = 2
	_, err = ApplyEdits(buf, bad)
	assert.True(t, errors.Is(err, contract.ErrUnsupportedVersion))
}

func TestApplyEditsAcceptsLengthMismatchFlaggedByValidator(t *testing.T) {
	buf := sampleBuffer(4)
	set := setOf(edits.ReplaceRange(1, 3, "only"))
	require.NotEmpty(t, ValidateEdits(set, buf, RiskStrict))

	got, err := ApplyEdits(buf, set)
	require.NoError(t, err)
	assert.Equal(t, []string{"only", "line 4"}, got.Lines())
}

// randomDisjointOps builds ops over non-overlapping spans, each span separated by at least one
// untouched line so no insert anchor collides with another op.
func randomDisjointOps(r *rand.Rand, n int) []edits.Op {
	var ops []edits.Op
	line := 1
	for line <= n {
		line += r.Intn(2)
		if line > n {
			break
		}
		width := 1 + r.Intn(3)
		if line+width-1 > n {
			width = n - line + 1
		}
		end := line + width - 1
		switch r.Intn(4) {
		case 0:
			ops = append(ops, edits.ReplaceLine(line, "rl"))
			end = line
		case 1:
			block := make([]string, 1+r.Intn(4))
			for i := range block {
				block[i] = "rr"
			}
			ops = append(ops, edits.ReplaceRange(line, end, strings.Join(block, "\n")))
		case 2:
			ops = append(ops, edits.InsertAfter(line, strings.Repeat("ins\n", r.Intn(3))+"ins"))
			end = line
		case 3:
			ops = append(ops, edits.DeleteRange(line, end))
		}
		line = end + 2
	}
	return ops
}

// applyBottomUp applies ops one at a time from the bottom of the document upward on a plain slice.
func applyBottomUp(lines []string, ops []edits.Op) []string {
	sorted := append([]edits.Op(nil), ops...)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].PrimaryLine() > sorted[b].PrimaryLine() })

	out := append([]string(nil), lines...)
	for _, op := range sorted {
		switch op.Kind {
		case edits.KindReplaceLine:
			out[op.LineNum()-1] = op.TextValue()
		case edits.KindReplaceRange:
			block := strings.Split(op.TextValue(), "\n")
			out = append(out[:op.StartNum()-1], append(block, out[op.EndNum():]...)...)
		case edits.KindInsertAfter:
			block := strings.Split(op.TextValue(), "\n")
			out = append(out[:op.LineNum()], append(block, out[op.LineNum():]...)...)
		case edits.KindDeleteRange:
			out = append(out[:op.StartNum()-1], out[op.EndNum():]...)
		}
	}
	return out
}

func TestApplyEditsMatchesBottomUpAndIgnoresInputOrder(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for iter := 0; iter < 200; iter++ {
		n := 1 + r.Intn(25)
		buf := sampleBuffer(n)
		ops := randomDisjointOps(r, n)
		want := applyBottomUp(buf.Lines(), ops)

		shuffled := append([]edits.Op(nil), ops...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		for _, candidate := range [][]edits.Op{ops, shuffled} {
			got, err := ApplyEdits(buf, setOf(candidate...))
			require.NoError(t, err)
			if diff := cmp.Diff(want, got.Lines()); diff != "" {
				t.Fatalf("iteration %d (-want +got):\n%s", iter, diff)
			}
			_, err = model.FromMap(got.Map())
			require.NoError(t, err, "result must be contiguous")
		}
		for _, finding := range ValidateEdits(setOf(ops...), buf, RiskLow) {
			assert.Contains(t, finding, "line count mismatch", "generated ops must be conflict free")
		}
	}
}
