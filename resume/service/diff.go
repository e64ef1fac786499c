package service

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"resume-tailor/resume/model"
)

// Diff renders a unified diff between two buffers. Each line carries its own 4-wide line number so
// reviewers can map hunks back to the numbered resume the generator saw.
func Diff(old, updated model.Buffer) (string, error) {
	ud := difflib.UnifiedDiff{
		A:        numberedLines(old),
		B:        numberedLines(updated),
		FromFile: "old",
		ToFile:   "new",
		Context:  3,
	}
	out, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", fmt.Errorf("diff: %w", err)
	}
	return out, nil
}

func numberedLines(b model.Buffer) []string {
	lines := b.Lines()
	out := make([]string, len(lines))
	for i, text := range lines {
		out[i] = fmt.Sprintf("%4d %s\n", i+1, text)
	}
	return out
}
