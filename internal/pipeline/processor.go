// Package pipeline sequences OCR, structured extraction, persistence and
// requirement linking for one document, and owns the per-document status
// state machine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/complytrack/compliance-tracker/constants"
	"github.com/complytrack/compliance-tracker/internal/config"
	"github.com/complytrack/compliance-tracker/internal/entity"
	"github.com/complytrack/compliance-tracker/internal/llm"
	"github.com/complytrack/compliance-tracker/internal/repository"
	"github.com/complytrack/compliance-tracker/internal/storage"
)

// TextExtractor is the text-extraction gateway contract the processor
// depends on.
type TextExtractor interface {
	ExtractBytes(ctx context.Context, content []byte, mimeType string) (string, error)
}

// FieldExtractor is the structured-extraction contract the processor
// depends on.
type FieldExtractor interface {
	Extract(ctx context.Context, text, extractionPrompt string, expected []llm.FieldDef) llm.Result
}

// Result is the caller-facing outcome of one processing attempt. No raw
// error detail beyond the message list crosses this boundary.
type Result struct {
	Success             bool               `json:"success"`
	DocumentID          uuid.UUID          `json:"document_id"`
	RawText             string             `json:"raw_text,omitempty"`
	ExtractedData       map[string]any     `json:"extracted_data,omitempty"`
	Confidence          float64            `json:"confidence"`
	FieldConfidences    map[string]float64 `json:"field_confidences,omitempty"`
	NeedsReview         bool               `json:"needs_review"`
	Errors              []string           `json:"errors,omitempty"`
	LinkedRequirementID *uuid.UUID         `json:"linked_requirement_id,omitempty"`
}

// Processor coordinates the extraction pipeline. All handles are immutable
// after construction; concurrent ProcessDocument calls share no mutable
// state.
type Processor struct {
	docs      repository.DocumentRepository
	store     storage.Store
	gateway   TextExtractor
	extractor FieldExtractor
	registry  *config.Registry
	linker    *Linker
	logger    *slog.Logger
	now       func() time.Time
}

func NewProcessor(
	docs repository.DocumentRepository,
	store storage.Store,
	gateway TextExtractor,
	extractor FieldExtractor,
	registry *config.Registry,
	linker *Linker,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		docs:      docs,
		store:     store,
		gateway:   gateway,
		extractor: extractor,
		registry:  registry,
		linker:    linker,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ProcessDocument runs the full pipeline for one document id. It never
// returns an error: every failure is reduced to a persisted status and a
// structured Result.
func (p *Processor) ProcessDocument(ctx context.Context, id uuid.UUID) (result Result) {
	// Belt-and-braces: a panic anywhere below becomes a recorded failure.
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("processor.panic", "document_id", id, "panic", r)
			result = p.failLoaded(ctx, id, fmt.Sprintf("internal error: %v", r))
		}
	}()

	doc, err := p.docs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// No record to update; return without writing any state.
			return Result{Success: false, DocumentID: id, Errors: []string{"Document not found"}}
		}
		return Result{Success: false, DocumentID: id, Errors: []string{err.Error()}}
	}

	// Mark in-flight first so concurrent observers and re-entry guards can
	// see the attempt.
	if err := p.docs.UpdateStatus(ctx, id, constants.DocStatusProcessing); err != nil {
		return Result{Success: false, DocumentID: id, Errors: []string{err.Error()}}
	}
	p.logger.Info("processor.start", "document_id", id, "mime_type", doc.MimeType)

	// Step 1: OCR text extraction.
	rawText, err := p.extractText(ctx, doc)
	if err != nil {
		p.logger.Error("processor.ocr.failed", "document_id", id, "err", err)
		return p.fail(ctx, doc, err.Error())
	}
	p.logger.Info("processor.ocr.ok", "document_id", id, "text_bytes", len(rawText))

	// Steps 2-3: resolve the type configuration and run extraction.
	extraction := p.extractData(ctx, rawText, doc)

	// Step 4: persist extraction results and derive the terminal status.
	p.applyExtraction(doc, rawText, extraction)
	if err := p.docs.SaveExtraction(ctx, doc); err != nil {
		p.logger.Error("processor.save.failed", "document_id", id, "err", err)
		return p.fail(ctx, doc, err.Error())
	}

	// Step 5: link to a requirement when the document belongs to an entity.
	var linkedID *uuid.UUID
	if p.linker != nil && len(extraction.Data) > 0 && doc.EntityID != nil {
		linkedID, err = p.linker.Link(ctx, doc, extraction)
		if err != nil {
			p.logger.Error("processor.link.failed", "document_id", id, "err", err)
			return p.fail(ctx, doc, err.Error())
		}
	}

	p.logger.Info("processor.done",
		"document_id", id,
		"status", string(doc.Status),
		"confidence", extraction.Confidence,
		"linked_requirement", linkedID != nil,
	)
	return Result{
		Success:             true,
		DocumentID:          id,
		RawText:             rawText,
		ExtractedData:       extraction.Data,
		Confidence:          extraction.Confidence,
		FieldConfidences:    extraction.FieldConfidences,
		NeedsReview:         extraction.NeedsReview,
		Errors:              extraction.Errors,
		LinkedRequirementID: linkedID,
	}
}

// extractText fetches the stored bytes and runs the OCR gateway.
func (p *Processor) extractText(ctx context.Context, doc *entity.Document) (string, error) {
	content, err := p.store.Fetch(ctx, doc.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return "", fmt.Errorf("Document file not found: %s", doc.StoragePath)
		}
		return "", err
	}
	return p.gateway.ExtractBytes(ctx, content, doc.MimeType)
}

// extractData resolves the document type configuration and runs the
// structured-extraction engine. A missing configuration is a no-op
// extraction, not a pipeline failure.
func (p *Processor) extractData(ctx context.Context, rawText string, doc *entity.Document) llm.Result {
	docType, ok := p.resolveDocumentType(doc)
	if ok && !docType.Accepts(doc.MimeType) {
		// Advisory only. OCR support is the real gate.
		p.logger.Warn("processor.mime_not_accepted",
			"document_id", doc.ID,
			"document_type", docType.Code,
			"mime_type", doc.MimeType,
		)
	}
	if !ok || docType.ExtractionPrompt == "" {
		return llm.Result{
			Data:             map[string]any{},
			FieldConfidences: map[string]float64{},
			Errors:           []string{"no extraction configuration for this document type"},
			NeedsReview:      true,
		}
	}

	expected := make([]llm.FieldDef, 0, len(docType.ExtractionSchema.Fields))
	for _, f := range docType.ExtractionSchema.Fields {
		ft := f.Type
		if ft == "" {
			ft = "string"
		}
		expected = append(expected, llm.FieldDef{Name: f.Name, Type: ft, Required: f.Required})
	}
	return p.extractor.Extract(ctx, rawText, docType.ExtractionPrompt, expected)
}

func (p *Processor) resolveDocumentType(doc *entity.Document) (config.DocumentType, bool) {
	if doc.DocumentTypeCode == nil {
		return config.DocumentType{}, false
	}
	return p.registry.DocumentType(*doc.DocumentTypeCode)
}

// applyExtraction writes the attempt's outcome onto the record and derives
// the terminal status: FAILED when there are errors and nothing extracted,
// NEEDS_REVIEW below the threshold, PROCESSED otherwise.
func (p *Processor) applyExtraction(doc *entity.Document, rawText string, res llm.Result) {
	doc.RawText = &rawText
	doc.ExtractedData = res.Data
	conf := res.Confidence
	doc.ExtractionConfidence = &conf
	doc.FieldConfidences = res.FieldConfidences
	now := p.now()
	doc.ProcessedAt = &now
	if len(res.Errors) > 0 {
		msg := strings.Join(res.Errors, "; ")
		doc.ProcessingError = &msg
	} else {
		doc.ProcessingError = nil
	}

	switch {
	case len(res.Errors) > 0 && len(res.Data) == 0:
		doc.Status = constants.DocStatusFailed
	case res.NeedsReview:
		doc.Status = constants.DocStatusNeedsReview
	default:
		doc.Status = constants.DocStatusProcessed
	}
}

// fail records a pipeline-aborting condition on the loaded document and
// returns the failure result.
func (p *Processor) fail(ctx context.Context, doc *entity.Document, msg string) Result {
	doc.Status = constants.DocStatusFailed
	doc.ProcessingError = &msg
	if err := p.docs.SaveExtraction(ctx, doc); err != nil {
		p.logger.Error("processor.fail.persist", "document_id", doc.ID, "err", err)
	}
	return Result{Success: false, DocumentID: doc.ID, Errors: []string{msg}}
}

// failLoaded is the recovery path where the document may not be in hand.
func (p *Processor) failLoaded(ctx context.Context, id uuid.UUID, msg string) Result {
	if doc, err := p.docs.GetByID(ctx, id); err == nil {
		return p.fail(ctx, doc, msg)
	}
	return Result{Success: false, DocumentID: id, Errors: []string{msg}}
}
