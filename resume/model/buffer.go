package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotContiguous is returned when a line map has gaps or does not start at 1.
var ErrNotContiguous = errors.New("line numbers are not contiguous")

// Buffer is the indexed document being edited: line number -> text, numbered 1..Len().
// A Buffer is immutable once built; edits produce a new Buffer.
type Buffer struct {
	lines []string
}

// NewBuffer builds a Buffer from lines in document order. The slice is copied.
func NewBuffer(lines []string) Buffer {
	out := make([]string, len(lines))
	copy(out, lines)
	return Buffer{lines: out}
}

// FromText splits text on line breaks. A single trailing newline does not produce an empty last line,
// and CRLF endings are normalized.
func FromText(text string) Buffer {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text == "" {
		return Buffer{}
	}
	text = strings.TrimSuffix(text, "\n")
	return Buffer{lines: strings.Split(text, "\n")}
}

// FromMap builds a Buffer from a line-number map. Keys must form exactly 1..len(m).
func FromMap(m map[int]string) (Buffer, error) {
	lines := make([]string, len(m))
	for n, text := range m {
		if n < 1 || n > len(m) {
			return Buffer{}, fmt.Errorf("%w: line %d outside 1..%d", ErrNotContiguous, n, len(m))
		}
		lines[n-1] = text
	}
	return Buffer{lines: lines}, nil
}

// Len returns the number of lines.
func (b Buffer) Len() int {
	return len(b.lines)
}

// Has reports whether line n exists.
func (b Buffer) Has(n int) bool {
	return n >= 1 && n <= len(b.lines)
}

// Line returns the text of line n and whether it exists.
func (b Buffer) Line(n int) (string, bool) {
	if !b.Has(n) {
		return "", false
	}
	return b.lines[n-1], true
}

// Lines returns a copy of the lines in document order.
func (b Buffer) Lines() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Map returns a fresh line-number map for the buffer.
func (b Buffer) Map() map[int]string {
	m := make(map[int]string, len(b.lines))
	for i, text := range b.lines {
		m[i+1] = text
	}
	return m
}

// Text joins the lines with newlines.
func (b Buffer) Text() string {
	return strings.Join(b.lines, "\n")
}

// Equal reports whether both buffers hold the same lines.
func (b Buffer) Equal(other Buffer) bool {
	if len(b.lines) != len(other.lines) {
		return false
	}
	for i := range b.lines {
		if b.lines[i] != other.lines[i] {
			return false
		}
	}
	return true
}

// Numbered renders the buffer with right-aligned 4-wide line numbers, the format generators are prompted with.
func (b Buffer) Numbered() string {
	var sb strings.Builder
	for i, text := range b.lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%4d %s", i+1, text)
	}
	return sb.String()
}

// SortedKeys returns the keys of a line map in ascending order.
func SortedKeys(m map[int]string) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
