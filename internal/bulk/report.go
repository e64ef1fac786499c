package bulk

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFBD2E"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F56"))
)

// RenderSummary renders the terminal ranking table and per-status counts for a finished batch.
func RenderSummary(r Result) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("◉ Bulk Results"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s %s  %s %s  %s %s\n",
		labelStyle.Render("success:"), successStyle.Render(fmt.Sprint(r.Count(StatusSuccess))),
		labelStyle.Render("failed:"), countStyle(r.Count(StatusFailed), errorStyle).Render(fmt.Sprint(r.Count(StatusFailed))),
		labelStyle.Render("skipped:"), countStyle(r.Count(StatusSkipped), warnStyle).Render(fmt.Sprint(r.Count(StatusSkipped)))))
	b.WriteString("\n")

	ranked := r.Ranked()
	if len(ranked) > 0 {
		width := len("Job")
		for _, j := range ranked {
			width = max(width, len([]rune(j.Spec.DisplayName())))
		}

		b.WriteString(headerStyle.Render("◉ Ranking"))
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(fmt.Sprintf("  %4s  %-*s  %5s  %8s  %5s  %8s",
			"Rank", width, "Job", "Fit", "Required", "Edits", "Runtime")))
		b.WriteString("\n")
		for i, j := range ranked {
			b.WriteString(fmt.Sprintf("  %4d  %-*s  %s  %8s  %5d  %7.1fs\n",
				i+1, width, j.Spec.DisplayName(),
				fitStyle(j.FitScore).Render(fmt.Sprintf("%5.2f", j.FitScore)),
				fmt.Sprintf("%d/%d", j.Coverage.RequiredMatched, j.Coverage.RequiredTotal),
				j.Edits.Total, j.Runtime.Seconds()))
		}
		b.WriteString("\n")
	}

	for _, j := range r.Jobs {
		switch j.Status {
		case StatusFailed:
			b.WriteString(fmt.Sprintf("  %s %s: %s\n", errorStyle.Render("✗"), j.Spec.ID, j.Err))
		case StatusSkipped:
			b.WriteString(fmt.Sprintf("  %s %s: %s\n", warnStyle.Render("⊘"), j.Spec.ID, j.Err))
		}
	}
	if r.OutputDir != "" {
		b.WriteString(fmt.Sprintf("\n  %s %s\n", labelStyle.Render("output:"), r.OutputDir))
	}
	return b.String()
}

func countStyle(n int, bad lipgloss.Style) lipgloss.Style {
	if n > 0 {
		return bad
	}
	return successStyle
}

func fitStyle(score float64) lipgloss.Style {
	switch {
	case score >= 0.7:
		return successStyle
	case score >= 0.4:
		return warnStyle
	}
	return errorStyle
}
