package bulk

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"resume-tailor/internal/shared/storage/object"
)

const matrixVersion = 1

type matrixDoc struct {
	Version int           `json:"version"`
	Meta    matrixMeta    `json:"meta"`
	Summary matrixSummary `json:"summary"`
	Jobs    []jobView     `json:"jobs"`
	Ranking []string      `json:"ranking"`
}

type matrixMeta struct {
	RunID     string `json:"run_id"`
	Resume    string `json:"resume"`
	Model     string `json:"model"`
	Timestamp string `json:"timestamp"`
	OutputDir string `json:"output_dir"`
}

type matrixSummary struct {
	Total               int     `json:"total"`
	Success             int     `json:"success"`
	Failed              int     `json:"failed"`
	Skipped             int     `json:"skipped"`
	TotalRuntimeSeconds float64 `json:"total_runtime_seconds"`
}

type jobView struct {
	ID             string         `json:"id"`
	Name           *string        `json:"name"`
	Company        *string        `json:"company"`
	Status         Status         `json:"status"`
	RuntimeSeconds float64        `json:"runtime_seconds"`
	Attempts       int            `json:"attempts"`
	Edits          editsView      `json:"edits"`
	Coverage       coverageView   `json:"coverage"`
	Validation     validationView `json:"validation"`
	FitScore       float64        `json:"fit_score"`
	StuffingScore  float64        `json:"keyword_stuffing_score"`
	Outputs        outputsView    `json:"outputs"`
	Error          *string        `json:"error"`
}

type editsView struct {
	Total        int            `json:"total"`
	LinesTouched int            `json:"lines_touched"`
	Sections     []string       `json:"sections"`
	ByType       map[string]int `json:"by_type"`
}

type coverageView struct {
	Required        string   `json:"required"`
	RequiredRatio   float64  `json:"required_ratio"`
	Preferred       string   `json:"preferred"`
	PreferredRatio  float64  `json:"preferred_ratio"`
	MissingRequired []string `json:"missing_required"`
}

type validationView struct {
	TotalWarnings int            `json:"total_warnings"`
	BySeverity    map[string]int `json:"by_severity"`
	UnsafeClaims  int            `json:"unsafe_claims"`
}

type outputsView struct {
	Dir    *string `json:"dir"`
	Edits  *string `json:"edits"`
	Resume *string `json:"resume"`
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func seconds(d time.Duration) float64 { return round2(d.Seconds()) }

func newJobView(j JobResult) jobView {
	missing := j.Coverage.MissingRequired
	if len(missing) > 5 {
		missing = missing[:5]
	}
	sections := j.Edits.Sections
	if sections == nil {
		sections = []string{}
	}
	severity := j.Validation.BySeverity
	if severity == nil {
		severity = map[string]int{}
	}
	return jobView{
		ID:             j.Spec.ID,
		Name:           optional(j.Spec.Name),
		Company:        optional(j.Spec.Company),
		Status:         j.Status,
		RuntimeSeconds: seconds(j.Runtime),
		Attempts:       j.Attempts,
		Edits: editsView{
			Total:        j.Edits.Total,
			LinesTouched: j.Edits.LinesTouched,
			Sections:     sections,
			ByType: map[string]int{
				"inserts":      j.Edits.Inserts,
				"replacements": j.Edits.Replacements,
				"deletes":      j.Edits.Deletes,
			},
		},
		Coverage: coverageView{
			Required:        fmt.Sprintf("%d/%d", j.Coverage.RequiredMatched, j.Coverage.RequiredTotal),
			RequiredRatio:   round2(j.Coverage.RequiredRatio()),
			Preferred:       fmt.Sprintf("%d/%d", j.Coverage.PreferredMatched, j.Coverage.PreferredTotal),
			PreferredRatio:  round2(j.Coverage.PreferredRatio()),
			MissingRequired: append([]string{}, missing...),
		},
		Validation: validationView{
			TotalWarnings: j.Validation.TotalWarnings,
			BySeverity:    severity,
			UnsafeClaims:  j.Validation.UnsafeClaims,
		},
		FitScore:      round2(j.FitScore),
		StuffingScore: round2(j.StuffingScore),
		Outputs: outputsView{
			Dir:    optional(j.Outputs.Dir),
			Edits:  optional(j.Outputs.Edits),
			Resume: optional(j.Outputs.Resume),
		},
		Error: optional(j.Err),
	}
}

func newMatrixDoc(r Result) matrixDoc {
	doc := matrixDoc{
		Version: matrixVersion,
		Meta: matrixMeta{
			RunID:     r.RunID,
			Resume:    r.Resume,
			Model:     r.Model,
			Timestamp: r.Timestamp.Format(time.RFC3339),
			OutputDir: r.OutputDir,
		},
		Summary: matrixSummary{
			Total:               len(r.Jobs),
			Success:             r.Count(StatusSuccess),
			Failed:              r.Count(StatusFailed),
			Skipped:             r.Count(StatusSkipped),
			TotalRuntimeSeconds: seconds(r.TotalRuntime()),
		},
		Jobs:    make([]jobView, 0, len(r.Jobs)),
		Ranking: []string{},
	}
	for _, j := range r.Jobs {
		doc.Jobs = append(doc.Jobs, newJobView(j))
	}
	for _, j := range r.Ranked() {
		doc.Ranking = append(doc.Ranking, j.Spec.ID)
	}
	return doc
}

var statusMarks = map[Status]string{
	StatusSuccess: "✓",
	StatusFailed:  "✗",
	StatusSkipped: "⊘",
	StatusPending: "○",
	StatusRunning: "◌",
}

// MatrixMarkdown renders the human-readable batch report.
func MatrixMarkdown(r Result) string {
	lines := []string{
		"# Bulk Processing Results",
		"",
		fmt.Sprintf("**Resume:** %s", filepath.Base(r.Resume)),
		fmt.Sprintf("**Model:** %s", r.Model),
		fmt.Sprintf("**Timestamp:** %s", r.Timestamp.Format(time.RFC3339)),
		fmt.Sprintf("**Total Jobs:** %d (%d success, %d failed, %d skipped)",
			len(r.Jobs), r.Count(StatusSuccess), r.Count(StatusFailed), r.Count(StatusSkipped)),
		fmt.Sprintf("**Total Runtime:** %.1fs", r.TotalRuntime().Seconds()),
		"",
	}

	if ranked := r.Ranked(); len(ranked) > 0 {
		lines = append(lines,
			"## Ranking",
			"",
			"| Rank | Job | Fit Score | Required Coverage | Edits | Runtime |",
			"|------|-----|-----------|-------------------|-------|---------|",
		)
		for i, j := range ranked {
			lines = append(lines, fmt.Sprintf("| %d | %s | %.2f | %d/%d | %d | %.1fs |",
				i+1, j.Spec.DisplayName(), j.FitScore,
				j.Coverage.RequiredMatched, j.Coverage.RequiredTotal,
				j.Edits.Total, j.Runtime.Seconds()))
		}
		lines = append(lines, "")
	}

	lines = append(lines, "## Detailed Results", "")
	for _, j := range r.Jobs {
		mark, ok := statusMarks[j.Status]
		if !ok {
			mark = "?"
		}
		lines = append(lines, fmt.Sprintf("### %s %s", mark, j.Spec.DisplayName()), "")

		switch j.Status {
		case StatusSuccess:
			lines = append(lines,
				fmt.Sprintf("- **Fit Score:** %.2f", j.FitScore),
				fmt.Sprintf("- **Required Keywords:** %d/%d", j.Coverage.RequiredMatched, j.Coverage.RequiredTotal),
				fmt.Sprintf("- **Preferred Keywords:** %d/%d", j.Coverage.PreferredMatched, j.Coverage.PreferredTotal),
				fmt.Sprintf("- **Edits:** %d (%d replacements, %d inserts, %d deletes)",
					j.Edits.Total, j.Edits.Replacements, j.Edits.Inserts, j.Edits.Deletes),
				fmt.Sprintf("- **Runtime:** %.1fs", j.Runtime.Seconds()),
			)
			if missing := j.Coverage.MissingRequired; len(missing) > 0 {
				if len(missing) > 5 {
					missing = missing[:5]
				}
				lines = append(lines, "- **Missing Required:** "+strings.Join(missing, ", "))
			}
			if j.Validation.TotalWarnings > 0 {
				lines = append(lines, fmt.Sprintf("- **Warnings:** %d", j.Validation.TotalWarnings))
			}
		case StatusFailed:
			lines = append(lines, "- **Error:** "+orDefault(j.Err, "Unknown error"))
		case StatusSkipped:
			lines = append(lines, "- **Reason:** "+orDefault(j.Err, "Skipped"))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func writeMatrixFiles(ctx context.Context, store object.Store, l Layout, r Result) error {
	if err := putJSON(ctx, store, l.Key("matrix.json"), newMatrixDoc(r)); err != nil {
		return err
	}
	return putText(ctx, store, l.Key("matrix.md"), "text/markdown; charset=utf-8", MatrixMarkdown(r))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
