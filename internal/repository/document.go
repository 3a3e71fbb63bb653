package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/complytrack/compliance-tracker/constants"
	"github.com/complytrack/compliance-tracker/internal/entity"
)

type documentRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewDocumentRepository returns the Postgres-backed document repository.
func NewDocumentRepository(pool *pgxpool.Pool, log *slog.Logger) DocumentRepository {
	if log == nil {
		log = slog.Default()
	}
	return &documentRepo{pool: pool, log: log}
}

const documentColumns = `
	id, entity_id, document_type_code, filename, mime_type, storage_path,
	status, raw_text, extracted_data, extraction_confidence,
	field_confidences, processing_error, processed_at, created_at, updated_at`

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT`+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func (r *documentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.DocumentStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE documents SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		r.log.Error("document status update failed", "document_id", id, "err", err)
		return fmt.Errorf("update document status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *documentRepo) SaveExtraction(ctx context.Context, doc *entity.Document) error {
	data, err := json.Marshal(doc.ExtractedData)
	if err != nil {
		return fmt.Errorf("marshal extracted data: %w", err)
	}
	confs, err := json.Marshal(doc.FieldConfidences)
	if err != nil {
		return fmt.Errorf("marshal field confidences: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE documents SET
			status = $2,
			raw_text = $3,
			extracted_data = $4,
			extraction_confidence = $5,
			field_confidences = $6,
			processing_error = $7,
			processed_at = $8,
			updated_at = now()
		WHERE id = $1`,
		doc.ID, string(doc.Status), doc.RawText, data,
		doc.ExtractionConfidence, confs, doc.ProcessingError, doc.ProcessedAt)
	if err != nil {
		r.log.Error("document extraction save failed", "document_id", doc.ID, "err", err)
		return fmt.Errorf("save document extraction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// rowScanner covers pgx.Row and *sql.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var (
		doc      entity.Document
		status   string
		dataRaw  []byte
		confsRaw []byte
	)
	err := row.Scan(
		&doc.ID, &doc.EntityID, &doc.DocumentTypeCode, &doc.Filename,
		&doc.MimeType, &doc.StoragePath, &status, &doc.RawText, &dataRaw,
		&doc.ExtractionConfidence, &confsRaw, &doc.ProcessingError,
		&doc.ProcessedAt, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	doc.Status = constants.DocumentStatus(status)
	if len(dataRaw) > 0 {
		if err := json.Unmarshal(dataRaw, &doc.ExtractedData); err != nil {
			return nil, fmt.Errorf("decode extracted data: %w", err)
		}
	}
	if len(confsRaw) > 0 {
		if err := json.Unmarshal(confsRaw, &doc.FieldConfidences); err != nil {
			return nil, fmt.Errorf("decode field confidences: %w", err)
		}
	}
	return &doc, nil
}
