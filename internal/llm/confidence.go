package llm

import "time"

// Confidence buckets. Missing required fields hurt most; present values
// with a type mismatch sit between missing-optional and valid.
const (
	confMissingRequired = 0.3
	confMissingOptional = 0.8
	confValid           = 0.95
	confWrongType       = 0.5
)

// fieldConfidences scores every expected field, including ones absent from
// the model response. All scores lie in [0,1].
func fieldConfidences(data map[string]any, expected []FieldDef) map[string]float64 {
	confidences := make(map[string]float64, len(expected))
	for _, f := range expected {
		value, present := data[f.Name]
		switch {
		case !present || value == nil:
			if f.Required {
				confidences[f.Name] = confMissingRequired
			} else {
				confidences[f.Name] = confMissingOptional
			}
		case matchesType(value, f.Type):
			confidences[f.Name] = confValid
		default:
			confidences[f.Name] = confWrongType
		}
	}
	return confidences
}

// overallConfidence is the arithmetic mean of the per-field scores, or
// exactly 0 when there are none.
func overallConfidence(confidences map[string]float64) float64 {
	if len(confidences) == 0 {
		return 0.0
	}
	var sum float64
	for _, c := range confidences {
		sum += c
	}
	return sum / float64(len(confidences))
}

// matchesType reports whether a decoded JSON value matches a declared field
// type. nil is always valid (intentionally absent); unknown declared types
// always pass.
func matchesType(value any, fieldType string) bool {
	if value == nil {
		return true
	}
	switch fieldType {
	case "string", "text":
		_, ok := value.(string)
		return ok
	case "number":
		switch value.(type) {
		case float64, int, int64:
			return true
		}
		return false
	case "date":
		s, ok := value.(string)
		return ok && isValidDate(s)
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	default:
		return true
	}
}

// isValidDate checks for a strict ISO YYYY-MM-DD date string.
func isValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
