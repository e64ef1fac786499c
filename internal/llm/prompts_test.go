package llm

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"resume-tailor/resume/model"
)

func sampleInput() PromptInput {
	return PromptInput{
		JobText:   "Backend engineer. Go, PostgreSQL, Kubernetes.",
		Resume:    model.NewBuffer([]string{"Jane Doe", "EXPERIENCE", "Built services in Python"}),
		Model:     "gpt-4o-mini",
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestGeneratePrompt(t *testing.T) {
	p := GeneratePrompt(sampleInput())

	assert.True(t, strings.HasPrefix(p, "CRITICAL SECURITY RULE"))
	assert.Contains(t, p, `"model": "gpt-4o-mini", "created_at": "2025-03-01T12:00:00Z"`)
	assert.Contains(t, p, "Job Description:\nBackend engineer. Go, PostgreSQL, Kubernetes.")
	assert.Contains(t, p, "   3 Built services in Python")
	assert.NotContains(t, p, "Known Sections")
	assert.NotContains(t, p, "LaTeX-specific rules")
	assert.NotContains(t, p, "{{")
}

func TestGeneratePromptWithSectionsAndLatex(t *testing.T) {
	in := sampleInput()
	in.Resume = model.NewBuffer([]string{`\documentclass{article}`, `\begin{document}`, "Jane", `\end{document}`})
	in.SectionsJSON = `{"sections":[]}`

	p := GeneratePrompt(in)
	assert.Contains(t, p, "Known Sections (JSON):\n{\"sections\":[]}\n\nResume")
	assert.Contains(t, p, "LaTeX-specific rules")
}

func TestCorrectionPrompt(t *testing.T) {
	p := CorrectionPrompt(sampleInput(), []string{"Op 1: line 9 not in resume bounds", "Op 2: missing 'op' field"}, "{\"version\":1}\n")

	assert.Contains(t, p, "Validation Errors Found:\n- Op 1: line 9 not in resume bounds\n- Op 2: missing 'op' field")
	assert.True(t, strings.HasSuffix(p, "INVALID Edits JSON (to be corrected):\n{\"version\":1}\n"))
	assert.Contains(t, p, `"strategy": "edit_fix"`)
	assert.NotContains(t, p, "{{")
}
