// Package edits defines the versioned edit set a generator produces for a resume and the
// canonical decoding of its on-disk JSON form.
package edits

// SchemaVersion is the only edit set version this module reads or writes.
const SchemaVersion = 1

// Kind names one of the four line-oriented edit operations.
type Kind string

const (
	KindReplaceLine  Kind = "replace_line"
	KindReplaceRange Kind = "replace_range"
	KindInsertAfter  Kind = "insert_after"
	KindDeleteRange  Kind = "delete_range"
)

// Known reports whether k is one of the supported operation kinds.
func (k Kind) Known() bool {
	switch k {
	case KindReplaceLine, KindReplaceRange, KindInsertAfter, KindDeleteRange:
		return true
	}
	return false
}

// Op is a single edit instruction. Positional fields are pointers so that a missing field can be told
// apart from a zero value; which fields are required depends on Kind.
type Op struct {
	Kind  Kind    `json:"op"`
	Line  *int    `json:"line,omitempty"`
	Start *int    `json:"start,omitempty"`
	End   *int    `json:"end,omitempty"`
	Text  *string `json:"text,omitempty"`

	// Provenance, descriptive only.
	Reason         string `json:"why,omitempty"`
	CurrentSnippet string `json:"current_snippet,omitempty"`

	mistyped  []string
	notObject bool
}

// ReplaceLine builds a replace_line op.
func ReplaceLine(line int, text string) Op {
	return Op{Kind: KindReplaceLine, Line: intPtr(line), Text: strPtr(text)}
}

// ReplaceRange builds a replace_range op.
func ReplaceRange(start, end int, text string) Op {
	return Op{Kind: KindReplaceRange, Start: intPtr(start), End: intPtr(end), Text: strPtr(text)}
}

// InsertAfter builds an insert_after op.
func InsertAfter(line int, text string) Op {
	return Op{Kind: KindInsertAfter, Line: intPtr(line), Text: strPtr(text)}
}

// DeleteRange builds a delete_range op.
func DeleteRange(start, end int) Op {
	return Op{Kind: KindDeleteRange, Start: intPtr(start), End: intPtr(end)}
}

// Mistyped reports whether field was present in the source document with a value of the wrong type.
func (o Op) Mistyped(field string) bool {
	for _, f := range o.mistyped {
		if f == field {
			return true
		}
	}
	return false
}

// IsObject reports whether the op was decoded from a JSON object.
func (o Op) IsObject() bool { return !o.notObject }

// LineNum returns the line reference or 0 when absent.
func (o Op) LineNum() int { return deref(o.Line) }

// StartNum returns the range start or 0 when absent.
func (o Op) StartNum() int { return deref(o.Start) }

// EndNum returns the range end or 0 when absent.
func (o Op) EndNum() int { return deref(o.End) }

// TextValue returns the text payload or "" when absent.
func (o Op) TextValue() string {
	if o.Text == nil {
		return ""
	}
	return *o.Text
}

// PrimaryLine is the line an op is ordered by: its line reference, else its range start, else 0.
func (o Op) PrimaryLine() int {
	if o.Line != nil {
		return *o.Line
	}
	if o.Start != nil {
		return *o.Start
	}
	return 0
}

// Set is the versioned container of ops a generator returns.
type Set struct {
	Version int            `json:"version"`
	Meta    map[string]any `json:"meta"`
	Ops     []Op           `json:"ops"`

	// Failure is set when the generator could not produce a well-formed set. It is never serialized.
	Failure *Failure `json:"-"`
}

// FailureKind distinguishes the two ways a generator call can fail to yield an edit set.
type FailureKind string

const (
	FailureNoResponse FailureKind = "no_response"
	FailureMalformed  FailureKind = "malformed_response"
)

// Failure marks an edit set that stands in for a failed generator call.
type Failure struct {
	Kind   FailureKind
	Detail string
	Raw    string
}

// FromFailure returns a placeholder set carrying the failure marker.
func FromFailure(f Failure, model string) Set {
	s := Placeholder(model)
	s.Failure = &f
	return s
}

// Placeholder is the empty set persisted when there is nothing valid to show an operator.
func Placeholder(model string) Set {
	return Set{
		Version: SchemaVersion,
		Meta:    map[string]any{"strategy": "manual", "model": model},
		Ops:     []Op{},
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
