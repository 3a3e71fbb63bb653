// Package llm is the structured-extraction engine: it turns raw OCR text
// plus a per-document-type prompt and field schema into typed,
// confidence-scored, cleaned data.
package llm

import (
	"context"
	"log/slog"
	"time"
)

// ExtractorConfig holds thresholds for the extraction engine.
type ExtractorConfig struct {
	// ReviewThreshold flags results whose overall confidence is strictly
	// below it. Default 0.8.
	ReviewThreshold float64
}

// Extractor drives one extraction call end to end. A nil client means the
// extraction capability is not configured, which is a normal, expected
// outcome rather than an error condition.
type Extractor struct {
	client Completer
	cfg    ExtractorConfig
	logger *slog.Logger
}

func NewExtractor(client Completer, cfg ExtractorConfig, logger *slog.Logger) *Extractor {
	if cfg.ReviewThreshold <= 0 {
		cfg.ReviewThreshold = 0.8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{client: client, cfg: cfg, logger: logger}
}

// ReviewThreshold exposes the configured review cutoff.
func (e *Extractor) ReviewThreshold() float64 {
	return e.cfg.ReviewThreshold
}

// Extract runs the extraction capability against the document text and
// scores, cleans and packages the outcome. Transport and parse failures are
// absorbed into the Result; Extract never returns an error.
func (e *Extractor) Extract(ctx context.Context, text, extractionPrompt string, expected []FieldDef) Result {
	if e.client == nil {
		return e.finish(Result{
			Data:             map[string]any{},
			FieldConfidences: map[string]float64{},
			Errors:           []string{"extraction API key not configured"},
		})
	}

	start := time.Now()
	sys := BuildSystemPrompt()
	user := BuildUserPrompt(extractionPrompt, text)

	raw, err := e.client.Complete(ctx, sys, user)
	if err != nil {
		e.logger.Error("llm.extract.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return e.finish(Result{
			Data:             map[string]any{},
			FieldConfidences: map[string]float64{},
			Errors:           []string{err.Error()},
		})
	}

	extracted := parseModelResponse(raw)
	confidences := fieldConfidences(extracted, expected)
	overall := overallConfidence(confidences)
	cleaned := cleanData(extracted, expected)

	e.logger.Info("llm.extract.ok",
		"fields", len(expected),
		"confidence", overall,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return e.finish(Result{
		Data:             cleaned,
		Confidence:       overall,
		FieldConfidences: confidences,
		RawResponse:      raw,
	})
}

func (e *Extractor) finish(r Result) Result {
	r.NeedsReview = r.Confidence < e.cfg.ReviewThreshold
	return r
}
