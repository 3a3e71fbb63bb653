package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/complytrack/compliance-tracker/constants"
)

// Document represents an uploaded compliance document and the state of its
// extraction pipeline, for data transfer between layers.
type Document struct {
	ID               uuid.UUID                `json:"id"`
	EntityID         *uuid.UUID               `json:"entity_id,omitempty"`
	DocumentTypeCode *string                  `json:"document_type_code,omitempty"`
	Filename         string                   `json:"filename"`
	MimeType         string                   `json:"mime_type"`
	StoragePath      string                   `json:"storage_path"`
	Status           constants.DocumentStatus `json:"status"`

	// Extraction results; nil until a processing attempt touches them.
	RawText              *string            `json:"raw_text,omitempty"`
	ExtractedData        map[string]any     `json:"extracted_data,omitempty"`
	ExtractionConfidence *float64           `json:"extraction_confidence,omitempty"`
	FieldConfidences     map[string]float64 `json:"field_confidences,omitempty"`
	ProcessingError      *string            `json:"processing_error,omitempty"`
	ProcessedAt          *time.Time         `json:"processed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
