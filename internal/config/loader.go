package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/complytrack/compliance-tracker/internal/common"
)

// Registry is the loaded niche configuration with lookup indexes. It is
// immutable after Load and safe for concurrent readers.
type Registry struct {
	niche    Niche
	docTypes map[string]DocumentType
	reqByDoc map[string][]RequirementType
	reqTypes map[string]RequirementType
}

// Load reads, validates and indexes a niche configuration file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read niche config: %w", err)
	}
	return Parse(data)
}

// Parse validates and indexes raw YAML configuration bytes.
func Parse(data []byte) (*Registry, error) {
	// Decode once into a generic document for schema validation, once into
	// the typed structs. yaml.v3 yields map[string]interface{} for mappings
	// so the generic form is JSON-compatible.
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("parse niche config: %w", err)
	}
	if err := validateAgainstMetaSchema(generic); err != nil {
		return nil, fmt.Errorf("niche config invalid: %w: %w", common.ErrValidation, err)
	}

	var niche Niche
	if err := yaml.Unmarshal(data, &niche); err != nil {
		return nil, fmt.Errorf("decode niche config: %w", err)
	}

	reg := &Registry{
		niche:    niche,
		docTypes: make(map[string]DocumentType, len(niche.DocumentTypes)),
		reqByDoc: make(map[string][]RequirementType),
		reqTypes: make(map[string]RequirementType, len(niche.RequirementTypes)),
	}
	for _, dt := range niche.DocumentTypes {
		if _, dup := reg.docTypes[dt.Code]; dup {
			return nil, fmt.Errorf("duplicate document type code %q", dt.Code)
		}
		reg.docTypes[dt.Code] = dt
	}
	for _, rt := range niche.RequirementTypes {
		if _, dup := reg.reqTypes[rt.Code]; dup {
			return nil, fmt.Errorf("duplicate requirement type code %q", rt.Code)
		}
		reg.reqTypes[rt.Code] = rt
		for _, dc := range rt.RequiredDocumentTypes {
			if _, ok := reg.docTypes[dc]; !ok {
				return nil, fmt.Errorf("requirement type %q references unknown document type %q", rt.Code, dc)
			}
			reg.reqByDoc[dc] = append(reg.reqByDoc[dc], rt)
		}
	}
	return reg, nil
}

// DocumentType looks up a document type by code. The second return is false
// when the code is not configured.
func (r *Registry) DocumentType(code string) (DocumentType, bool) {
	dt, ok := r.docTypes[code]
	return dt, ok
}

// RequirementType looks up a requirement type by code.
func (r *Registry) RequirementType(code string) (RequirementType, bool) {
	rt, ok := r.reqTypes[code]
	return rt, ok
}

// RequirementTypesForDocument returns the requirement types whose
// required_document_types set contains the given document type code.
func (r *Registry) RequirementTypesForDocument(docTypeCode string) []RequirementType {
	return r.reqByDoc[docTypeCode]
}

// DocumentTypes returns all configured document types in file order.
func (r *Registry) DocumentTypes() []DocumentType {
	return r.niche.DocumentTypes
}

// RequirementTypes returns all configured requirement types in file order.
func (r *Registry) RequirementTypes() []RequirementType {
	return r.niche.RequirementTypes
}

// Niche returns the loaded configuration root.
func (r *Registry) Niche() Niche {
	return r.niche
}

// metaSchema constrains the shape of the niche YAML. Field types are limited
// to the set the extraction engine can score and clean.
func metaSchema() map[string]any {
	fieldDef := map[string]any{
		"type":     "object",
		"required": []any{"name", "type"},
		"properties": map[string]any{
			"name":     map[string]any{"type": "string", "minLength": 1},
			"label":    map[string]any{"type": "string"},
			"type":     map[string]any{"enum": []any{"string", "text", "number", "date", "boolean", "array"}},
			"required": map[string]any{"type": "boolean"},
		},
	}
	return map[string]any{
		"type":     "object",
		"required": []any{"document_types"},
		"properties": map[string]any{
			"niche": map[string]any{"type": "string"},
			"document_types": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"code", "name"},
					"properties": map[string]any{
						"code":                map[string]any{"type": "string", "minLength": 1},
						"name":                map[string]any{"type": "string", "minLength": 1},
						"description":         map[string]any{"type": "string"},
						"accepted_mime_types": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"extraction_prompt":   map[string]any{"type": "string"},
						"extraction_schema": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"fields": map[string]any{"type": "array", "items": fieldDef},
							},
						},
					},
				},
			},
			"requirement_types": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"code", "name"},
					"properties": map[string]any{
						"code":                    map[string]any{"type": "string", "minLength": 1},
						"name":                    map[string]any{"type": "string", "minLength": 1},
						"description":             map[string]any{"type": "string"},
						"frequency":               map[string]any{"enum": []any{"once", "daily", "weekly", "monthly", "quarterly", "annually"}},
						"required_document_types": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					},
				},
			},
		},
	}
}

func validateAgainstMetaSchema(doc any) error {
	b, err := json.Marshal(metaSchema())
	if err != nil {
		return fmt.Errorf("marshal meta schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("niche.schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add meta schema: %w", err)
	}
	schema, err := compiler.Compile("niche.schema.json")
	if err != nil {
		return fmt.Errorf("compile meta schema: %w", err)
	}
	// Round-trip through JSON so numbers/keys are in the form the validator
	// expects, regardless of the YAML decoder's choices.
	jb, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var v any
	if err := json.Unmarshal(jb, &v); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return schema.Validate(v)
}
