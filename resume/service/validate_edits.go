package service

import (
	"fmt"
	"strings"

	"resume-tailor/resume/edits"
	"resume-tailor/resume/model"
)

// Risk is the validator strictness level. Higher levels escalate the wording of borderline findings.
type Risk int

const (
	RiskLow Risk = iota
	RiskMed
	RiskHigh
	RiskStrict
)

// ParseRisk accepts low, med, medium, high and strict (case-insensitive). Empty means med.
func ParseRisk(s string) (Risk, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, nil
	case "", "med", "medium":
		return RiskMed, nil
	case "high":
		return RiskHigh, nil
	case "strict":
		return RiskStrict, nil
	}
	return RiskMed, fmt.Errorf("unknown risk level %q", s)
}

func (r Risk) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskHigh:
		return "high"
	case RiskStrict:
		return "strict"
	}
	return "med"
}

// ValidateEdits inspects set against buf and returns findings; an empty result means the set is acceptable.
// Findings are advisory: the validator never stops early except for a generator failure marker,
// which yields a single finding in place of structural analysis.
func ValidateEdits(set edits.Set, buf model.Buffer, risk Risk) []string {
	if set.Failure != nil {
		return []string{failureFinding(*set.Failure)}
	}
	if len(set.Ops) == 0 {
		return []string{"'ops' list is empty"}
	}

	v := validator{buf: buf, risk: risk, claims: make(map[int]edits.Kind)}
	for i, op := range set.Ops {
		v.checkOp(i, op)
	}
	v.checkCrossOp(set.Ops)
	return v.findings
}

type validator struct {
	buf      model.Buffer
	risk     Risk
	claims   map[int]edits.Kind
	findings []string
}

func (v *validator) addf(format string, args ...any) {
	v.findings = append(v.findings, fmt.Sprintf(format, args...))
}

func (v *validator) checkOp(i int, op edits.Op) {
	if !op.IsObject() {
		v.addf("Op %d: must be an object", i)
		return
	}
	if op.Kind == "" {
		v.addf("Op %d: missing 'op' field", i)
		return
	}

	switch op.Kind {
	case edits.KindReplaceLine:
		v.checkReplaceLine(i, op)
	case edits.KindReplaceRange:
		v.checkReplaceRange(i, op)
	case edits.KindInsertAfter:
		v.checkInsertAfter(i, op)
	case edits.KindDeleteRange:
		v.checkDeleteRange(i, op)
	default:
		v.addf("Op %d: unknown operation type '%s'", i, op.Kind)
	}
}

func (v *validator) checkReplaceLine(i int, op edits.Op) {
	if !present(op, "line") {
		v.addf("Op %d: replace_line missing 'line' field", i)
		return
	}
	if !present(op, "text") {
		v.addf("Op %d: replace_line missing 'text' field", i)
		return
	}
	if op.Line == nil || *op.Line < 1 {
		v.addf("Op %d: 'line' must be integer >= 1", i)
		return
	}
	if op.Text == nil {
		v.addf("Op %d: 'text' must be string", i)
		return
	}
	if strings.Contains(*op.Text, "\n") {
		v.addf("Op %d: replace_line text contains newline; use replace_range", i)
		return
	}

	line := *op.Line
	if !v.buf.Has(line) {
		v.addf("Op %d: line %d not in resume bounds", i, line)
		return
	}
	if _, taken := v.claims[line]; taken {
		v.addf("Op %d: duplicate operation on line %d", i, line)
	}
	v.claims[line] = op.Kind
}

func (v *validator) checkReplaceRange(i int, op edits.Op) {
	if !present(op, "start") || !present(op, "end") || !present(op, "text") {
		v.addf("Op %d: replace_range missing required fields (start, end, text)", i)
		return
	}
	start, end, ok := v.checkRange(i, op)
	if !ok {
		return
	}
	if op.Text == nil {
		v.addf("Op %d: 'text' must be string", i)
		return
	}
	v.checkBounds(i, start, end)

	textLines := 1
	if *op.Text != "" {
		textLines = len(strings.Split(*op.Text, "\n"))
	}
	rangeLines := end - start + 1
	if textLines != rangeLines {
		msg := fmt.Sprintf("Op %d: replace_range line count mismatch (%d -> %d)", i, rangeLines, textLines)
		if v.risk >= RiskMed {
			msg += " (will cause line collisions)"
		}
		v.findings = append(v.findings, msg)
	}
	v.claimRange(i, op.Kind, start, end)
}

func (v *validator) checkInsertAfter(i int, op edits.Op) {
	if !present(op, "line") || !present(op, "text") {
		v.addf("Op %d: insert_after missing required fields (line, text)", i)
		return
	}
	if op.Line == nil || *op.Line < 1 {
		v.addf("Op %d: 'line' must be integer >= 1", i)
		return
	}
	if op.Text == nil {
		v.addf("Op %d: 'text' must be string", i)
		return
	}
	if !v.buf.Has(*op.Line) {
		v.addf("Op %d: line %d not in resume bounds", i, *op.Line)
	}
}

func (v *validator) checkDeleteRange(i int, op edits.Op) {
	if !present(op, "start") || !present(op, "end") {
		v.addf("Op %d: delete_range missing required fields (start, end)", i)
		return
	}
	start, end, ok := v.checkRange(i, op)
	if !ok {
		return
	}
	v.checkBounds(i, start, end)
	v.claimRange(i, op.Kind, start, end)
}

func (v *validator) checkRange(i int, op edits.Op) (int, int, bool) {
	if op.Start == nil || op.End == nil {
		v.addf("Op %d: start and end must be integers", i)
		return 0, 0, false
	}
	start, end := *op.Start, *op.End
	if start < 1 || end < 1 || start > end {
		v.addf("Op %d: invalid range %d-%d", i, start, end)
		return 0, 0, false
	}
	return start, end, true
}

// checkBounds reports the first line of the range missing from the buffer.
// Buffers are contiguous from 1, so that line is start when start is past the end, else Len()+1.
func (v *validator) checkBounds(i, start, end int) {
	switch {
	case !v.buf.Has(start):
		v.addf("Op %d: line %d not in resume bounds", i, start)
	case end > v.buf.Len():
		v.addf("Op %d: line %d not in resume bounds", i, v.buf.Len()+1)
	}
}

// claimRange reports at most one duplicate per op, then claims the lines of the range that exist.
func (v *validator) claimRange(i int, kind edits.Kind, start, end int) {
	last := min(end, v.buf.Len())
	for line := start; line <= last; line++ {
		if _, taken := v.claims[line]; taken {
			v.addf("Op %d: duplicate operation on line %d", i, line)
			break
		}
	}
	for line := start; line <= last; line++ {
		v.claims[line] = kind
	}
}

type span struct{ start, end int }

func (s span) contains(line int) bool { return s.start <= line && line <= s.end }

func (s span) overlaps(o span) bool { return !(o.end < s.start || o.start > s.end) }

func (v *validator) checkCrossOp(ops []edits.Op) {
	var deletes, replaces []span
	for _, op := range ops {
		if op.Start == nil || op.End == nil {
			continue
		}
		switch op.Kind {
		case edits.KindDeleteRange:
			deletes = append(deletes, span{*op.Start, *op.End})
		case edits.KindReplaceRange:
			replaces = append(replaces, span{*op.Start, *op.End})
		}
	}

	for i, op := range ops {
		if op.Kind != edits.KindInsertAfter || op.Line == nil {
			continue
		}
		for _, d := range deletes {
			if d.contains(*op.Line) {
				v.addf("Op %d: insert_after on line %d that is deleted by a delete_range", i, *op.Line)
				break
			}
		}
	}

	for i, op := range ops {
		if op.Kind != edits.KindDeleteRange || op.Start == nil || op.End == nil {
			continue
		}
		d := span{*op.Start, *op.End}
		for _, r := range replaces {
			if d.overlaps(r) {
				v.addf("Op %d: delete_range overlaps a replace_range; split or reorder ops", i)
				break
			}
		}
	}

	seen := make(map[int]struct{})
	for i, op := range ops {
		if op.Kind != edits.KindInsertAfter || op.Line == nil {
			continue
		}
		if _, dup := seen[*op.Line]; dup {
			v.addf("Op %d: multiple insert_after on line %d", i, *op.Line)
		}
		seen[*op.Line] = struct{}{}
	}
}

// present reports whether field appeared in the source op, regardless of its type.
func present(op edits.Op, field string) bool {
	if op.Mistyped(field) {
		return true
	}
	switch field {
	case "line":
		return op.Line != nil
	case "start":
		return op.Start != nil
	case "end":
		return op.End != nil
	case "text":
		return op.Text != nil
	}
	return false
}

func failureFinding(f edits.Failure) string {
	switch f.Kind {
	case edits.FailureNoResponse:
		return "Generator returned no response: " + f.Detail
	default:
		return "Generator response could not be parsed as an edit set: " + f.Detail
	}
}
