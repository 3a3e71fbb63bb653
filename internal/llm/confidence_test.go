package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldConfidencesBuckets(t *testing.T) {
	tests := []struct {
		name  string
		data  map[string]any
		field FieldDef
		want  float64
	}{
		{
			name:  "missing required",
			data:  map[string]any{},
			field: FieldDef{Name: "permit_number", Type: "string", Required: true},
			want:  0.3,
		},
		{
			name:  "missing optional",
			data:  map[string]any{},
			field: FieldDef{Name: "carrier", Type: "string"},
			want:  0.8,
		},
		{
			name:  "null required counts as missing",
			data:  map[string]any{"permit_number": nil},
			field: FieldDef{Name: "permit_number", Type: "string", Required: true},
			want:  0.3,
		},
		{
			name:  "present and valid",
			data:  map[string]any{"permit_number": "HP-2024-0042"},
			field: FieldDef{Name: "permit_number", Type: "string", Required: true},
			want:  0.95,
		},
		{
			name:  "present wrong type",
			data:  map[string]any{"coverage_amount": "a lot"},
			field: FieldDef{Name: "coverage_amount", Type: "number", Required: true},
			want:  0.5,
		},
		{
			name:  "date must be ISO",
			data:  map[string]any{"expiration_date": "01/15/2025"},
			field: FieldDef{Name: "expiration_date", Type: "date", Required: true},
			want:  0.5,
		},
		{
			name:  "ISO date is valid",
			data:  map[string]any{"expiration_date": "2025-01-15"},
			field: FieldDef{Name: "expiration_date", Type: "date", Required: true},
			want:  0.95,
		},
		{
			name:  "number accepts decoded float",
			data:  map[string]any{"coverage_amount": float64(1000000)},
			field: FieldDef{Name: "coverage_amount", Type: "number", Required: true},
			want:  0.95,
		},
		{
			name:  "boolean mismatch",
			data:  map[string]any{"signed": "yes"},
			field: FieldDef{Name: "signed", Type: "boolean"},
			want:  0.5,
		},
		{
			name:  "unknown declared type always passes",
			data:  map[string]any{"extra": 42},
			field: FieldDef{Name: "extra", Type: "object"},
			want:  0.95,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fieldConfidences(tt.data, []FieldDef{tt.field})
			require.Len(t, got, 1)
			assert.InDelta(t, tt.want, got[tt.field.Name], 1e-9)
		})
	}
}

func TestFieldConfidencesScoresEveryExpectedField(t *testing.T) {
	expected := []FieldDef{
		{Name: "a", Type: "string", Required: true},
		{Name: "b", Type: "string"},
		{Name: "c", Type: "number", Required: true},
	}
	got := fieldConfidences(map[string]any{"a": "ok"}, expected)
	require.Len(t, got, 3)
	assert.InDelta(t, 0.95, got["a"], 1e-9)
	assert.InDelta(t, 0.8, got["b"], 1e-9)
	assert.InDelta(t, 0.3, got["c"], 1e-9)
}

func TestOverallConfidence(t *testing.T) {
	assert.Zero(t, overallConfidence(nil))
	assert.Zero(t, overallConfidence(map[string]float64{}))

	got := overallConfidence(map[string]float64{"a": 0.95, "b": 0.3, "c": 0.85})
	assert.InDelta(t, 0.7, got, 1e-9)
}
