package llm

import (
	"encoding/json"
	"strings"
)

// parseModelResponse decodes the model output defensively: direct JSON
// first, then the first balanced {...} span in the raw text, then an empty
// map. It never fails; JSON-mode guarantees vary by provider.
func parseModelResponse(raw string) map[string]any {
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err == nil && m != nil {
		return m
	}
	if span, ok := firstJSONObject(raw); ok {
		if err := json.Unmarshal([]byte(span), &m); err == nil && m != nil {
			return m
		}
	}
	return map[string]any{}
}

// firstJSONObject returns the first balanced top-level {...} span in s.
// Braces inside JSON strings are skipped.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
