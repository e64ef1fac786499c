package scoring

import (
	"regexp"
	"strings"

	"resume-tailor/resume/edits"
)

// Warning categories, in the order a finding is tested against them.
const (
	CategoryBounds    = "bounds"
	CategoryDuplicate = "duplicate"
	CategoryMismatch  = "mismatch"
	CategoryMissing   = "missing"
	CategoryOther     = "other"
)

// CategorizeWarnings buckets validator findings by the first matching category. Empty buckets are omitted.
func CategorizeWarnings(warnings []string) map[string]int {
	out := map[string]int{}
	for _, w := range warnings {
		lower := strings.ToLower(w)
		switch {
		case strings.Contains(lower, "bounds") || strings.Contains(lower, "not in resume"):
			out[CategoryBounds]++
		case strings.Contains(lower, "duplicate"):
			out[CategoryDuplicate]++
		case strings.Contains(lower, "mismatch"):
			out[CategoryMismatch]++
		case strings.Contains(lower, "missing"):
			out[CategoryMissing]++
		default:
			out[CategoryOther]++
		}
	}
	return out
}

var unsafeClaimPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d+%`),
	regexp.MustCompile(`\$\d+`),
	regexp.MustCompile(`(?i)\b(led|owned|architected|spearheaded)\b`),
	regexp.MustCompile(`(?i)\b\d+\s*(million|billion|k)\b`),
}

// CountUnsafeClaims counts ops whose replacement text introduces a metric or ownership claim that an
// operator should confirm. Each op counts at most once.
func CountUnsafeClaims(set edits.Set) int {
	n := 0
	for _, op := range set.Ops {
		text := op.TextValue()
		if text == "" {
			continue
		}
		for _, re := range unsafeClaimPatterns {
			if re.MatchString(text) {
				n++
				break
			}
		}
	}
	return n
}

// ValidationSummary condenses the warnings a job finished with.
type ValidationSummary struct {
	TotalWarnings int
	BySeverity    map[string]int
	UnsafeClaims  int
}

// SummarizeValidation builds the summary for warnings left on set.
func SummarizeValidation(warnings []string, set edits.Set) ValidationSummary {
	return ValidationSummary{
		TotalWarnings: len(warnings),
		BySeverity:    CategorizeWarnings(warnings),
		UnsafeClaims:  CountUnsafeClaims(set),
	}
}
