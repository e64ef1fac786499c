package scoring

import (
	"encoding/json"
	"sort"

	"resume-tailor/resume/edits"
)

// EditBreakdown describes what an edit set touches.
type EditBreakdown struct {
	Total        int
	LinesTouched int
	Sections     []string
	Inserts      int
	Replacements int
	Deletes      int
}

type sectionSpan struct {
	Name        string        `json:"name"`
	StartLine   int           `json:"start_line"`
	EndLine     int           `json:"end_line"`
	Subsections []sectionSpan `json:"subsections"`
}

// AnalyzeEdits counts ops by kind and the distinct lines they reference. When sectionsJSON is a valid
// sections document, touched lines are mapped to section and subsection names.
func AnalyzeEdits(set edits.Set, sectionsJSON string) EditBreakdown {
	b := EditBreakdown{Total: len(set.Ops)}
	touched := map[int]struct{}{}
	addRange := func(start, end int) {
		if start <= 0 || end <= 0 {
			return
		}
		for l := start; l <= end; l++ {
			touched[l] = struct{}{}
		}
	}

	for _, op := range set.Ops {
		switch op.Kind {
		case edits.KindInsertAfter:
			b.Inserts++
			addRange(op.LineNum(), op.LineNum())
		case edits.KindDeleteRange:
			b.Deletes++
			addRange(op.StartNum(), op.EndNum())
		case edits.KindReplaceLine:
			b.Replacements++
			addRange(op.LineNum(), op.LineNum())
		case edits.KindReplaceRange:
			b.Replacements++
			addRange(op.StartNum(), op.EndNum())
		}
	}

	b.LinesTouched = len(touched)
	if sectionsJSON != "" {
		b.Sections = sectionsTouched(touched, sectionsJSON)
	}
	return b
}

func sectionsTouched(lines map[int]struct{}, sectionsJSON string) []string {
	var doc struct {
		Sections []sectionSpan `json:"sections"`
	}
	if err := json.Unmarshal([]byte(sectionsJSON), &doc); err != nil {
		return nil
	}

	names := map[string]struct{}{}
	var visit func(s sectionSpan)
	visit = func(s sectionSpan) {
		name := s.Name
		if name == "" {
			name = "UNKNOWN"
		}
		for l := range lines {
			if s.StartLine <= l && l <= s.EndLine {
				names[name] = struct{}{}
				break
			}
		}
		for _, sub := range s.Subsections {
			visit(sub)
		}
	}
	for _, s := range doc.Sections {
		visit(s)
	}

	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
