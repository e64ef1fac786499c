package llm

import (
	_ "embed"
	"strings"
	"time"

	"resume-tailor/resume/model"
)

var (
	//go:embed prompts/guard.txt
	guardText string
	//go:embed prompts/latex.txt
	latexPolicy string
	//go:embed prompts/generate.txt
	generateTemplate string
	//go:embed prompts/correct.txt
	correctTemplate string
)

// PromptInput carries the data shared by the generation and correction prompts.
type PromptInput struct {
	JobText      string
	Resume       model.Buffer
	SectionsJSON string
	Model        string
	CreatedAt    time.Time
}

// GeneratePrompt builds the prompt that asks for a fresh edit set.
func GeneratePrompt(in PromptInput) string {
	return fill(generateTemplate, in, nil)
}

// CorrectionPrompt builds the prompt that asks the generator to repair an edit set given its findings.
func CorrectionPrompt(in PromptInput, findings []string, editsJSON string) string {
	bullets := make([]string, 0, len(findings))
	for _, f := range findings {
		bullets = append(bullets, "- "+f)
	}
	return fill(correctTemplate, in, []string{
		"{{FINDINGS}}", strings.Join(bullets, "\n"),
		"{{EDITS}}", strings.TrimSpace(editsJSON),
	})
}

func fill(template string, in PromptInput, extra []string) string {
	numbered := in.Resume.Numbered()
	latex := ""
	if isLatex(numbered) {
		latex = "\n" + strings.TrimSpace(latexPolicy) + "\n"
	}
	sections := ""
	if s := strings.TrimSpace(in.SectionsJSON); s != "" {
		sections = "Known Sections (JSON):\n" + s + "\n\n"
	}
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	pairs := []string{
		"{{GUARD}}", strings.TrimSpace(guardText),
		"{{LATEX}}", latex,
		"{{MODEL}}", in.Model,
		"{{CREATED_AT}}", createdAt.Format(time.RFC3339),
		"{{JOB}}", strings.TrimSpace(in.JobText),
		"{{SECTIONS}}", sections,
		"{{RESUME}}", numbered,
	}
	pairs = append(pairs, extra...)
	return strings.NewReplacer(pairs...).Replace(template)
}

// isLatex looks past the line-number gutter for a document class or body marker.
func isLatex(numbered string) bool {
	if strings.Contains(numbered, `\begin{document}`) {
		return true
	}
	first, _, _ := strings.Cut(numbered, "\n")
	return strings.HasPrefix(strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(first), "0123456789")), `\documentclass`)
}
