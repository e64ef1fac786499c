package scoring

import (
	"regexp"
	"strings"
)

const maxMissingRequired = 10

// Coverage counts how many job keywords appear in the tailored resume.
type Coverage struct {
	RequiredMatched  int
	RequiredTotal    int
	PreferredMatched int
	PreferredTotal   int
	// MissingRequired lists at most the first ten unmatched required keywords.
	MissingRequired []string
}

// RequiredRatio is zero when there are no required keywords.
func (c Coverage) RequiredRatio() float64 {
	if c.RequiredTotal == 0 {
		return 0
	}
	return float64(c.RequiredMatched) / float64(c.RequiredTotal)
}

// PreferredRatio is zero when there are no preferred keywords.
func (c Coverage) PreferredRatio() float64 {
	if c.PreferredTotal == 0 {
		return 0
	}
	return float64(c.PreferredMatched) / float64(c.PreferredTotal)
}

// KeywordCoverage matches keywords as case-insensitive substrings of the resume text.
func KeywordCoverage(resumeText string, required, preferred []string) Coverage {
	lower := strings.ToLower(resumeText)
	c := Coverage{RequiredTotal: len(required), PreferredTotal: len(preferred)}
	for _, kw := range required {
		if strings.Contains(lower, strings.ToLower(kw)) {
			c.RequiredMatched++
			continue
		}
		if len(c.MissingRequired) < maxMissingRequired {
			c.MissingRequired = append(c.MissingRequired, kw)
		}
	}
	for _, kw := range preferred {
		if strings.Contains(lower, strings.ToLower(kw)) {
			c.PreferredMatched++
		}
	}
	return c
}

var wordPattern = regexp.MustCompile(`\w+`)

// KeywordStuffing scores repetition from 0 (none) to 1 (severe): the number of words longer than four
// characters that occur more than five times, divided by ten.
func KeywordStuffing(text string) float64 {
	counts := map[string]int{}
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len([]rune(w)) > 4 {
			counts[w]++
		}
	}
	stuffed := 0
	for _, n := range counts {
		if n > 5 {
			stuffed++
		}
	}
	return min(float64(stuffed)/10, 1)
}
