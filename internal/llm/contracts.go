package llm

import "context"

// Completer is the structured-extraction capability: one chat completion at
// low temperature with a JSON-shaped response.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// FieldDef describes one field the extraction should produce, derived from
// the document type's schema.
type FieldDef struct {
	Name     string
	Type     string // string | text | number | date | boolean | array
	Required bool
}

// Result is the outcome of one extraction attempt. It is produced fresh per
// call and never mutated after construction.
type Result struct {
	Data             map[string]any     `json:"data"`
	Confidence       float64            `json:"confidence"`
	FieldConfidences map[string]float64 `json:"field_confidences"`
	RawResponse      string             `json:"raw_response,omitempty"`
	Errors           []string           `json:"errors,omitempty"`

	// NeedsReview is true when Confidence is strictly below the configured
	// review threshold.
	NeedsReview bool `json:"needs_review"`
}
