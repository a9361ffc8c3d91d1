// Package extract recovers JSON documents from free-form model output.
//
// Generative models rarely return clean JSON even when told to: the document
// arrives wrapped in markdown fences, prefixed with prose, or with small
// syntax defects (bare keys, trailing commas, literal newlines inside
// strings). Extract tries a sequence of increasingly permissive strategies and
// applies purely syntactic repairs before each parse attempt. Repairs never
// change string or numeric content.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse is returned when no strategy yields parseable JSON
// even after repair.
var ErrMalformedResponse = errors.New("no parseable JSON found in response")

// Extract recovers a JSON value from raw model output.
// Strategy order, first success wins:
//  1. a fenced block explicitly tagged as json
//  2. any fenced block
//  3. the outermost balanced {...} span found by bracket counting
func Extract(raw string) (any, error) {
	base := strings.TrimSpace(strings.TrimPrefix(raw, "\uFEFF"))
	if base == "" {
		return nil, fmt.Errorf("empty response: %w", ErrMalformedResponse)
	}

	cleaned := stripPreamble(base)

	candidates := []string{
		fencedBlock(cleaned, "json"),
		fencedBlock(cleaned, ""),
	}
	candidates = append(candidates, balancedSpans(cleaned)...)
	if cleaned != base {
		// The preamble trim cuts at the first colon or newline, which can
		// land inside an unfenced document. Keep the untrimmed spans as
		// fallback candidates.
		candidates = append(candidates, balancedSpans(base)...)
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if value, ok := tryParse(candidate); ok {
			return value, nil
		}
	}

	return nil, ErrMalformedResponse
}

// tryParse attempts to parse the candidate as-is, then after repair.
func tryParse(candidate string) (any, bool) {
	var value any
	if err := json.Unmarshal([]byte(candidate), &value); err == nil {
		return value, true
	}

	repaired := Repair(candidate)
	if err := json.Unmarshal([]byte(repaired), &value); err == nil {
		return value, true
	}

	return nil, false
}

// stripPreamble drops a leading assistant preamble line
// ("Here is the report: ...") from already-trimmed text.
func stripPreamble(s string) string {
	lower := strings.ToLower(s)
	for _, preamble := range []string{"here is", "here's", "i have created", "the report"} {
		if strings.HasPrefix(lower, preamble) {
			if idx := strings.IndexAny(s, ":\n"); idx != -1 {
				return strings.TrimSpace(s[idx+1:])
			}
		}
	}
	return s
}

// fencedBlock returns the interior of the first fenced code block. When lang
// is non-empty only blocks tagged with that language match; otherwise any
// fence matches. Returns "" when no block is found.
func fencedBlock(s, lang string) string {
	search := s
	for {
		start := strings.Index(search, "```")
		if start == -1 {
			return ""
		}
		tagStart := start + 3
		nl := strings.IndexByte(search[tagStart:], '\n')
		if nl == -1 {
			return ""
		}
		tag := strings.ToLower(strings.TrimSpace(search[tagStart : tagStart+nl]))
		body := search[tagStart+nl+1:]
		end := strings.Index(body, "```")
		if end == -1 {
			return ""
		}
		if lang == "" || tag == lang {
			return strings.TrimSpace(body[:end])
		}
		// Tagged with something else; keep scanning past this block.
		search = body[end+3:]
	}
}

// balancedSpans returns every top-level balanced {...} span in s, in order of
// appearance. Brackets inside string literals are ignored.
func balancedSpans(s string) []string {
	var spans []string

	depth := 0
	start := -1
	inString := false
	escape := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escape:
				escape = false
			case c == '\\':
				escape = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					spans = append(spans, s[start:i+1])
					start = -1
				}
			}
		}
	}

	return spans
}
