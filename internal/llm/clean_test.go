package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanValueNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"currency with separators", "$1,234.56", 1234.56},
		{"plain numeric string", "12.5", 12.5},
		{"integer string", "500", 500.0},
		{"whitespace tolerated", " $99 ", 99.0},
		{"unparsable becomes nil", "a lot", nil},
		{"float passes through", 1234.56, 1234.56},
		{"bool passes through", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanValue(tt.in, "number"))
		})
	}
}

func TestCleanValueDate(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"iso unchanged", "2025-01-15", "2025-01-15"},
		{"us slash", "01/15/2025", "2025-01-15"},
		{"us dash", "01-15-2025", "2025-01-15"},
		{"long month", "January 15, 2025", "2025-01-15"},
		{"abbreviated month", "Jan 15, 2025", "2025-01-15"},
		{"unparsable passes through", "sometime next year", "sometime next year"},
		{"non-string passes through", 20250115, 20250115},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanValue(tt.in, "date"))
		})
	}
}

func TestCleanValueBoolean(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"yes", "yes", true},
		{"uppercase true", "TRUE", true},
		{"checkbox x", "x", true},
		{"checked", "checked", true},
		{"numeric one", "1", true},
		{"no", "no", false},
		{"arbitrary string", "signed by inspector", false},
		{"zero number", float64(0), false},
		{"nonzero number", float64(2), true},
		{"empty list", []any{}, false},
		{"native bool", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanValue(tt.in, "boolean"))
		})
	}
}

// Cleaning must be a fixed point: cleaning an already-cleaned value changes
// nothing.
func TestCleanValueIdempotent(t *testing.T) {
	inputs := []struct {
		in        any
		fieldType string
	}{
		{"$1,234.56", "number"},
		{"not a number", "number"},
		{"01/15/2025", "date"},
		{"unparsable date", "date"},
		{"yes", "boolean"},
		{"no", "boolean"},
		{"hello", "string"},
		{[]any{"a", "b"}, "array"},
	}
	for _, tt := range inputs {
		once := CleanValue(tt.in, tt.fieldType)
		twice := CleanValue(once, tt.fieldType)
		assert.Equal(t, once, twice, "type %s input %v", tt.fieldType, tt.in)
	}
}

func TestCleanDataFillsAbsentFields(t *testing.T) {
	expected := []FieldDef{
		{Name: "permit_number", Type: "string", Required: true},
		{Name: "coverage_amount", Type: "number", Required: true},
		{Name: "notes", Type: "text"},
	}
	got := cleanData(map[string]any{"coverage_amount": "$2,000,000"}, expected)

	assert.Len(t, got, 3)
	assert.Contains(t, got, "permit_number")
	assert.Nil(t, got["permit_number"])
	assert.Equal(t, 2000000.0, got["coverage_amount"])
	assert.Nil(t, got["notes"])
}
