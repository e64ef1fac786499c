package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"resume-tailor/resume/contract"
	"resume-tailor/resume/edits"
	"resume-tailor/resume/model"
)

var (
	// ErrLineMissing indicates an op referenced a line absent at application time.
	ErrLineMissing = errors.New("line does not exist")

	// ErrUnknownOp indicates an op kind the engine does not implement.
	ErrUnknownOp = errors.New("unknown operation type")

	// ErrInvalidOp indicates an op lacks the fields its kind requires.
	ErrInvalidOp = errors.New("invalid operation")
)

// EditError names the op that made application fail. Index is the op's position in the set.
type EditError struct {
	Index int
	Kind  edits.Kind
	Line  int
	Err   error
}

func (e *EditError) Error() string {
	return fmt.Sprintf("op %d (%s) at line %d: %v", e.Index, e.Kind, e.Line, e.Err)
}

func (e *EditError) Unwrap() error { return e.Err }

// ApplyEdits applies set to buf and returns the new buffer. Ops run in descending order of their
// primary line, so each op only shifts lines that earlier ops have already finished with.
// The input buffer is never modified and no partial result is returned on error.
func ApplyEdits(buf model.Buffer, set edits.Set) (model.Buffer, error) {
	if set.Version != edits.SchemaVersion {
		return model.Buffer{}, fmt.Errorf("%w: %d", contract.ErrUnsupportedVersion, set.Version)
	}

	order := make([]int, len(set.Ops))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return set.Ops[order[a]].PrimaryLine() > set.Ops[order[b]].PrimaryLine()
	})

	lines := buf.Map()
	for _, idx := range order {
		op := set.Ops[idx]
		var err error
		lines, err = applyOp(lines, op)
		if err != nil {
			return model.Buffer{}, &EditError{Index: idx, Kind: op.Kind, Line: op.PrimaryLine(), Err: err}
		}
	}

	out, err := model.FromMap(lines)
	if err != nil {
		return model.Buffer{}, fmt.Errorf("apply edits: %w", err)
	}
	return out, nil
}

func applyOp(lines map[int]string, op edits.Op) (map[int]string, error) {
	switch op.Kind {
	case edits.KindReplaceLine:
		if op.Line == nil || op.Text == nil {
			return nil, fmt.Errorf("%w: replace_line requires line and text", ErrInvalidOp)
		}
		if _, ok := lines[*op.Line]; !ok {
			return nil, fmt.Errorf("cannot replace line %d: %w", *op.Line, ErrLineMissing)
		}
		lines[*op.Line] = *op.Text
		return lines, nil

	case edits.KindReplaceRange:
		start, end, err := rangeOf(op)
		if err != nil {
			return nil, err
		}
		if op.Text == nil {
			return nil, fmt.Errorf("%w: replace_range requires text", ErrInvalidOp)
		}
		if err := requireRange(lines, start, end, "replace"); err != nil {
			return nil, err
		}
		block := []string{""}
		if *op.Text != "" {
			block = strings.Split(*op.Text, "\n")
		}
		return splice(lines, start, end, block), nil

	case edits.KindInsertAfter:
		if op.Line == nil || op.Text == nil {
			return nil, fmt.Errorf("%w: insert_after requires line and text", ErrInvalidOp)
		}
		if _, ok := lines[*op.Line]; !ok {
			return nil, fmt.Errorf("cannot insert after line %d: %w", *op.Line, ErrLineMissing)
		}
		// An empty span after the anchor: nothing removed, block inserted at line+1.
		return splice(lines, *op.Line+1, *op.Line, strings.Split(*op.Text, "\n")), nil

	case edits.KindDeleteRange:
		start, end, err := rangeOf(op)
		if err != nil {
			return nil, err
		}
		if err := requireRange(lines, start, end, "delete"); err != nil {
			return nil, err
		}
		return splice(lines, start, end, nil), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOp, op.Kind)
}

// splice removes start..end (inclusive; empty when end < start), writes block at start and moves
// every line after end by len(block) - removed.
func splice(lines map[int]string, start, end int, block []string) map[int]string {
	removed := 0
	if end >= start {
		removed = end - start + 1
	}
	delta := len(block) - removed

	out := make(map[int]string, len(lines)+delta)
	for n, text := range lines {
		switch {
		case n < start:
			out[n] = text
		case n > end:
			out[n+delta] = text
		}
	}
	for i, text := range block {
		out[start+i] = text
	}
	return out
}

func rangeOf(op edits.Op) (int, int, error) {
	if op.Start == nil || op.End == nil {
		return 0, 0, fmt.Errorf("%w: %s requires start and end", ErrInvalidOp, op.Kind)
	}
	if *op.Start < 1 || *op.Start > *op.End {
		return 0, 0, fmt.Errorf("%w: invalid range %d-%d", ErrInvalidOp, *op.Start, *op.End)
	}
	return *op.Start, *op.End, nil
}

func requireRange(lines map[int]string, start, end int, verb string) error {
	for n := start; n <= end; n++ {
		if _, ok := lines[n]; !ok {
			return fmt.Errorf("cannot %s range %d-%d: line %d: %w", verb, start, end, n, ErrLineMissing)
		}
	}
	return nil
}
