package bulk

import (
	"fmt"
	"unicode/utf8"

	"resume-tailor/internal/shared/util"
)

const (
	// DefaultMaxIDLength bounds job IDs, which double as directory names.
	DefaultMaxIDLength = 50

	// MinIDLength is the shortest maximum Dedupe honors; it leaves room for a "_N" suffix.
	MinIDLength = 8

	fallbackID  = "job"
)

// Dedupe makes job IDs filesystem safe and unique. Each ID is sanitized and truncated to maxLen runes;
// an ID that collides with one already taken gets the next free "_N" suffix, with the base re-truncated so
// the result stays within maxLen. A maxLen of zero or less means DefaultMaxIDLength. A maxLen between 1 and
// MinIDLength-1 is raised to MinIDLength, so IDs may then exceed the requested maximum; configuration rejects
// such values before they reach here.
func Dedupe(specs []JobSpec, maxLen int) []JobSpec {
	if maxLen <= 0 {
		maxLen = DefaultMaxIDLength
	}
	maxLen = max(maxLen, MinIDLength)

	next := map[string]int{}
	taken := map[string]struct{}{}
	out := make([]JobSpec, 0, len(specs))

	for _, spec := range specs {
		base := util.TruncateRunes(util.SafeToken(spec.ID), maxLen)
		if base == "" {
			base = fallbackID
		}

		id := base
		if _, dup := taken[id]; dup {
			n := max(next[base], 2)
			for {
				suffix := fmt.Sprintf("_%d", n)
				id = util.TruncateRunes(base, maxLen-utf8.RuneCountInString(suffix)) + suffix
				n++
				if _, dup := taken[id]; !dup {
					break
				}
			}
			next[base] = n
		}

		taken[id] = struct{}{}
		spec.ID = id
		out = append(out, spec)
	}
	return out
}
