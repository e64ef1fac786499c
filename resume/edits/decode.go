package edits

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"resume-tailor/resume/contract"
)

var (
	// ErrMalformedJSON indicates the document is not a well-formed JSON object.
	ErrMalformedJSON = errors.New("malformed edit set json")

	// ErrSchema wraps top-level shape violations (version, required fields).
	ErrSchema = errors.New("edit set schema error")
)

// shortKeys maps the compact aliases some generators emit to canonical field names.
var shortKeys = map[string]string{
	"l": "line",
	"t": "text",
	"s": "start",
	"e": "end",
}

var (
	thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeFence  = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\n?```$")
)

// Decode parses an edit set document. Short-key aliases are normalized before typed parsing, and
// schema violations (wrong version, missing ops) are returned as errors wrapping ErrSchema.
// Per-op problems are not errors here; they survive into the Set for the validator to report.
func Decode(data []byte) (Set, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Set{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	doc, ok := raw.(map[string]any)
	if !ok {
		return Set{}, fmt.Errorf("%w: top level must be an object", ErrMalformedJSON)
	}

	if err := contract.EnforceEditSet(doc); err != nil {
		return Set{}, fmt.Errorf("%w: %w", ErrSchema, err)
	}

	rawOps := doc["ops"].([]any)
	set := Set{
		Version: SchemaVersion,
		Meta:    doc["meta"].(map[string]any),
		Ops:     make([]Op, 0, len(rawOps)),
	}
	for _, item := range rawOps {
		fields, ok := item.(map[string]any)
		if !ok {
			set.Ops = append(set.Ops, Op{notObject: true})
			continue
		}
		set.Ops = append(set.Ops, parseOp(Normalize(fields)))
	}
	return set, nil
}

// DecodeResponse cleans a raw generator response and decodes it.
func DecodeResponse(raw string) (Set, error) {
	cleaned := CleanResponse(raw)
	if cleaned == "" {
		return Set{}, fmt.Errorf("%w: empty response", ErrMalformedJSON)
	}
	return Decode([]byte(cleaned))
}

// CleanResponse removes reasoning preambles and a surrounding markdown code fence.
func CleanResponse(raw string) string {
	out := thinkBlock.ReplaceAllString(raw, "")
	out = strings.TrimSpace(out)
	if m := codeFence.FindStringSubmatch(out); m != nil {
		out = strings.TrimSpace(m[1])
	}
	return out
}

// Normalize returns a copy of fields with short-key aliases renamed to their canonical form.
// When both forms are present the canonical key wins.
func Normalize(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if long, ok := shortKeys[k]; ok {
			if _, exists := fields[long]; exists {
				continue
			}
			k = long
		}
		out[k] = v
	}
	return out
}

// Encode renders a set in its canonical indented form.
func Encode(set Set) ([]byte, error) {
	if set.Meta == nil {
		set.Meta = map[string]any{}
	}
	if set.Ops == nil {
		set.Ops = []Op{}
	}
	return json.MarshalIndent(set, "", "  ")
}

func parseOp(fields map[string]any) Op {
	op := Op{}
	switch v := fields["op"].(type) {
	case nil:
	case string:
		op.Kind = Kind(v)
	default:
		op.Kind = Kind(fmt.Sprint(v))
	}

	op.Line = op.intField(fields, "line")
	op.Start = op.intField(fields, "start")
	op.End = op.intField(fields, "end")

	if v, ok := fields["text"]; ok {
		if s, isString := v.(string); isString {
			op.Text = &s
		} else {
			op.mistyped = append(op.mistyped, "text")
		}
	}
	if s, ok := fields["why"].(string); ok {
		op.Reason = s
	}
	if s, ok := fields["current_snippet"].(string); ok {
		op.CurrentSnippet = s
	}
	return op
}

func (o *Op) intField(fields map[string]any, name string) *int {
	v, ok := fields[name]
	if !ok {
		return nil
	}
	if n, isNumber := v.(json.Number); isNumber {
		if i, err := n.Int64(); err == nil {
			out := int(i)
			return &out
		}
	}
	o.mistyped = append(o.mistyped, name)
	return nil
}
