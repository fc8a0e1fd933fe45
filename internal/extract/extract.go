// Package extract recovers structured values from free-form model output.
// Model responses frequently wrap JSON in prose, markdown fences, or emit
// almost-valid JSON; the extractor tries progressively looser strategies and
// reports failure as a boolean, never as an error.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Fenced-block variants, tried in order. DOTALL so blocks may span lines.
var blockPatterns = []*regexp.Regexp{
	regexp.MustCompile("(?s)```json\\s*\n(.*?)\n```"),
	regexp.MustCompile("(?s)```\\s*\n(.*?)\n```"),
	regexp.MustCompile(`(?s)<json>(.*?)</json>`),
}

var trailingComma = regexp.MustCompile(`,(\s*[}\]])`)

// Object recovers a JSON object from text. Strategies, first success wins:
// direct parse, fenced code blocks, then the span from the first "{" to the
// last "}" with repair heuristics applied.
func Object(text string) (map[string]any, bool) {
	if v, ok := parseObject(text); ok {
		return v, true
	}

	for _, p := range blockPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if v, ok := parseObject(strings.TrimSpace(m[1])); ok {
				return v, true
			}
		}
	}

	if span, ok := objectSpan(text); ok {
		if v, ok := parseObject(Repair(span)); ok {
			return v, true
		}
	}

	return nil, false
}

// Any recovers a JSON value of any shape. Same strategy order as Object, but
// the span search tries an array before an object: callers asking for lists
// (deliverables, term names) usually get bare arrays back.
func Any(text string) (any, bool) {
	if v, ok := parseAny(text); ok {
		return v, true
	}

	for _, p := range blockPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if v, ok := parseAny(strings.TrimSpace(m[1])); ok {
				return v, true
			}
		}
	}

	if start, end := strings.Index(text, "["), strings.LastIndex(text, "]"); start >= 0 && end > start {
		if v, ok := parseAny(stripTrailingCommas(text[start : end+1])); ok {
			return v, true
		}
	}
	if span, ok := objectSpan(text); ok {
		if v, ok := parseAny(Repair(span)); ok {
			return v, true
		}
	}

	return nil, false
}

// Array recovers a JSON array from text via Any. A bare object is not
// unwrapped here; callers that expect a list inside an object field do their
// own unwrapping.
func Array(text string) ([]any, bool) {
	v, ok := Any(text)
	if !ok {
		return nil, false
	}
	arr, ok := v.([]any)
	return arr, ok
}

// Repair applies the object repair heuristics: strip trailing commas before a
// closing bracket or brace, and drop any trailing content after the last "}".
// Idempotent.
func Repair(s string) string {
	s = stripTrailingCommas(s)
	if i := strings.LastIndex(s, "}"); i >= 0 {
		s = s[:i+1]
	}
	return s
}

func stripTrailingCommas(s string) string {
	return trailingComma.ReplaceAllString(s, "$1")
}

func objectSpan(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func parseObject(s string) (map[string]any, bool) {
	var v map[string]any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

func parseAny(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	// Only objects and arrays count as structured values; a bare string or
	// number parsed out of prose would be noise.
	if s[0] != '{' && s[0] != '[' {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}
