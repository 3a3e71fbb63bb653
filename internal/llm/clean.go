package llm

import (
	"strconv"
	"strings"
	"time"
)

// dateFormats tried in order during date cleaning. The first that parses
// wins and the value is re-emitted in ISO form.
var dateFormats = []string{
	"2006-01-02",      // ISO
	"01/02/2006",      // US slash
	"01-02-2006",      // US dash
	"January 2, 2006", // long month name
	"Jan 2, 2006",     // abbreviated month name
}

// cleanData normalizes every expected field regardless of its confidence
// score. Fields absent from the response are set to nil explicitly.
func cleanData(data map[string]any, expected []FieldDef) map[string]any {
	cleaned := make(map[string]any, len(expected))
	for _, f := range expected {
		value, present := data[f.Name]
		if !present || value == nil {
			cleaned[f.Name] = nil
			continue
		}
		cleaned[f.Name] = CleanValue(value, f.Type)
	}
	return cleaned
}

// CleanValue normalizes a single raw value by declared type. Cleaning is
// idempotent: re-cleaning an already-cleaned value returns the same value.
func CleanValue(value any, fieldType string) any {
	if value == nil {
		return nil
	}
	switch fieldType {
	case "number":
		return cleanNumber(value)
	case "date":
		return cleanDate(value)
	case "boolean":
		return cleanBoolean(value)
	default:
		return value
	}
}

// cleanNumber strips currency symbols and thousands separators from string
// values and parses them as floats. Unparsable strings become nil;
// non-string values pass through unchanged.
func cleanNumber(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	stripped := strings.NewReplacer("$", "", ",", "").Replace(s)
	f, err := strconv.ParseFloat(strings.TrimSpace(stripped), 64)
	if err != nil {
		return nil
	}
	return f
}

// cleanDate re-emits the first parsable format as ISO. Unparsable strings
// pass through unchanged; they may still be human-readable downstream.
func cleanDate(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// cleanBoolean coerces strings by membership in the affirmative set and
// everything else with a plain truthiness cast.
func cleanBoolean(value any) any {
	if s, ok := value.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes", "1", "x", "checked":
			return true
		default:
			return false
		}
	}
	return truthy(value)
}

// truthy mirrors a dynamic-language boolean cast for the JSON value kinds
// the decoder produces.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}
