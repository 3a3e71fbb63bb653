// Package config loads the YAML niche configuration that declares document
// types (with their extraction prompts and field schemas) and requirement
// types (with the document type codes that satisfy them).
package config

import "github.com/complytrack/compliance-tracker/constants"

// SchemaField declares one field the extraction engine should produce.
type SchemaField struct {
	Name     string `yaml:"name"`
	Label    string `yaml:"label,omitempty"`
	Type     string `yaml:"type"` // string | text | number | date | boolean | array
	Required bool   `yaml:"required,omitempty"`
}

// ExtractionSchema is the ordered field list for a document type.
type ExtractionSchema struct {
	Fields []SchemaField `yaml:"fields"`
}

// DocumentType configures extraction for one kind of compliance document.
// A nil/empty ExtractionPrompt disables extraction for the type.
type DocumentType struct {
	Code              string           `yaml:"code"`
	Name              string           `yaml:"name"`
	Description       string           `yaml:"description,omitempty"`
	AcceptedMimeTypes []string         `yaml:"accepted_mime_types,omitempty"`
	ExtractionPrompt  string           `yaml:"extraction_prompt,omitempty"`
	ExtractionSchema  ExtractionSchema `yaml:"extraction_schema,omitempty"`
}

// Accepts reports whether the document type accepts the given media type.
func (dt DocumentType) Accepts(mimeType string) bool {
	accepted := dt.AcceptedMimeTypes
	if len(accepted) == 0 {
		accepted = constants.DefaultAcceptedMimeTypes
	}
	for _, mt := range accepted {
		if mt == mimeType {
			return true
		}
	}
	return false
}

// RequirementType configures one kind of compliance obligation.
type RequirementType struct {
	Code                  string   `yaml:"code"`
	Name                  string   `yaml:"name"`
	Description           string   `yaml:"description,omitempty"`
	Frequency             string   `yaml:"frequency,omitempty"`
	RequiredDocumentTypes []string `yaml:"required_document_types,omitempty"`
}

// Niche is the root of the YAML configuration file.
type Niche struct {
	Niche            string            `yaml:"niche"`
	DocumentTypes    []DocumentType    `yaml:"document_types"`
	RequirementTypes []RequirementType `yaml:"requirement_types"`
}
