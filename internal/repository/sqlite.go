package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/complytrack/compliance-tracker/constants"
	"github.com/complytrack/compliance-tracker/internal/entity"
)

// OpenSQLite opens (and bootstraps) the local SQLite database used when no
// Postgres DSN is configured.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite is in-process; a single writer avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := migrateSQLite(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("sqlite ready", "path", path)
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			entity_id TEXT,
			document_type_code TEXT,
			filename TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			storage_path TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'UPLOADED',
			raw_text TEXT,
			extracted_data TEXT,
			extraction_confidence REAL,
			field_confidences TEXT,
			processing_error TEXT,
			processed_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS requirements (
			id TEXT PRIMARY KEY,
			entity_id TEXT NOT NULL,
			requirement_type_code TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'PENDING',
			due_date TIMESTAMP,
			document_id TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_requirements_entity ON requirements(entity_id)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

type sqliteDocumentRepo struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSQLiteDocumentRepository returns the local-mode document repository.
func NewSQLiteDocumentRepository(db *sql.DB, log *slog.Logger) DocumentRepository {
	if log == nil {
		log = slog.Default()
	}
	return &sqliteDocumentRepo{db: db, log: log}
}

func (r *sqliteDocumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, entity_id, document_type_code, filename, mime_type,
		       storage_path, status, raw_text, extracted_data,
		       extraction_confidence, field_confidences, processing_error,
		       processed_at, created_at, updated_at
		FROM documents WHERE id = ?`, id.String())

	var (
		doc                                 entity.Document
		idStr                               string
		entityID, docTypeCode               sql.NullString
		status                              string
		rawText, dataRaw, confsRaw, procErr sql.NullString
		confidence                          sql.NullFloat64
		processedAt                         sql.NullTime
	)
	err := row.Scan(&idStr, &entityID, &docTypeCode, &doc.Filename,
		&doc.MimeType, &doc.StoragePath, &status, &rawText, &dataRaw,
		&confidence, &confsRaw, &procErr, &processedAt,
		&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	doc.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("document id: %w", err)
	}
	if entityID.Valid {
		eid, err := uuid.Parse(entityID.String)
		if err != nil {
			return nil, fmt.Errorf("entity id: %w", err)
		}
		doc.EntityID = &eid
	}
	if docTypeCode.Valid {
		doc.DocumentTypeCode = &docTypeCode.String
	}
	doc.Status = constants.DocumentStatus(status)
	if rawText.Valid {
		doc.RawText = &rawText.String
	}
	if dataRaw.Valid && dataRaw.String != "" {
		if err := json.Unmarshal([]byte(dataRaw.String), &doc.ExtractedData); err != nil {
			return nil, fmt.Errorf("decode extracted data: %w", err)
		}
	}
	if confidence.Valid {
		doc.ExtractionConfidence = &confidence.Float64
	}
	if confsRaw.Valid && confsRaw.String != "" {
		if err := json.Unmarshal([]byte(confsRaw.String), &doc.FieldConfidences); err != nil {
			return nil, fmt.Errorf("decode field confidences: %w", err)
		}
	}
	if procErr.Valid {
		doc.ProcessingError = &procErr.String
	}
	if processedAt.Valid {
		doc.ProcessedAt = &processedAt.Time
	}
	return &doc, nil
}

func (r *sqliteDocumentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.DocumentStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return requireRowsAffected(res)
}

func (r *sqliteDocumentRepo) SaveExtraction(ctx context.Context, doc *entity.Document) error {
	data, err := json.Marshal(doc.ExtractedData)
	if err != nil {
		return fmt.Errorf("marshal extracted data: %w", err)
	}
	confs, err := json.Marshal(doc.FieldConfidences)
	if err != nil {
		return fmt.Errorf("marshal field confidences: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE documents SET
			status = ?, raw_text = ?, extracted_data = ?,
			extraction_confidence = ?, field_confidences = ?,
			processing_error = ?, processed_at = ?, updated_at = ?
		WHERE id = ?`,
		string(doc.Status), nullableStr(doc.RawText), string(data),
		nullableF64(doc.ExtractionConfidence), string(confs),
		nullableStr(doc.ProcessingError), nullableTime(doc.ProcessedAt),
		time.Now().UTC(), doc.ID.String())
	if err != nil {
		return fmt.Errorf("save document extraction: %w", err)
	}
	return requireRowsAffected(res)
}

type sqliteRequirementRepo struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSQLiteRequirementRepository returns the local-mode requirement repository.
func NewSQLiteRequirementRepository(db *sql.DB, log *slog.Logger) RequirementRepository {
	if log == nil {
		log = slog.Default()
	}
	return &sqliteRequirementRepo{db: db, log: log}
}

func (r *sqliteRequirementRepo) FindOpenForEntity(ctx context.Context, entityID uuid.UUID, typeCodes []string) ([]*entity.Requirement, error) {
	if len(typeCodes) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, entity_id, requirement_type_code, name, status, due_date,
		       document_id, created_at, updated_at
		FROM requirements
		WHERE entity_id = ?
		  AND requirement_type_code IN (` + placeholders(len(typeCodes)) + `)
		  AND status IN (` + placeholders(len(constants.OpenRequirementStatuses)) + `)`
	args := []any{entityID.String()}
	for _, tc := range typeCodes {
		args = append(args, tc)
	}
	for _, s := range constants.OpenRequirementStatuses {
		args = append(args, string(s))
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find open requirements: %w", err)
	}
	defer rows.Close()
	return scanSQLiteRequirements(rows)
}

func (r *sqliteRequirementRepo) ListForEntity(ctx context.Context, entityID uuid.UUID) ([]*entity.Requirement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, entity_id, requirement_type_code, name, status, due_date,
		       document_id, created_at, updated_at
		FROM requirements WHERE entity_id = ?
		ORDER BY due_date IS NULL, due_date, id`, entityID.String())
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	defer rows.Close()
	return scanSQLiteRequirements(rows)
}

func (r *sqliteRequirementRepo) Save(ctx context.Context, req *entity.Requirement) error {
	var docID any
	if req.DocumentID != nil {
		docID = req.DocumentID.String()
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE requirements SET status = ?, due_date = ?, document_id = ?, updated_at = ?
		WHERE id = ?`,
		string(req.Status), nullableTime(req.DueDate), docID,
		time.Now().UTC(), req.ID.String())
	if err != nil {
		return fmt.Errorf("save requirement: %w", err)
	}
	return requireRowsAffected(res)
}

func scanSQLiteRequirements(rows *sql.Rows) ([]*entity.Requirement, error) {
	var out []*entity.Requirement
	for rows.Next() {
		var (
			req           entity.Requirement
			idStr, entStr string
			status        string
			dueDate       sql.NullTime
			docID         sql.NullString
		)
		if err := rows.Scan(&idStr, &entStr, &req.RequirementTypeCode,
			&req.Name, &status, &dueDate, &docID,
			&req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan requirement: %w", err)
		}
		var err error
		if req.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("requirement id: %w", err)
		}
		if req.EntityID, err = uuid.Parse(entStr); err != nil {
			return nil, fmt.Errorf("entity id: %w", err)
		}
		req.Status = constants.RequirementStatus(status)
		if dueDate.Valid {
			d := dueDate.Time
			req.DueDate = &d
		}
		if docID.Valid {
			did, err := uuid.Parse(docID.String)
			if err != nil {
				return nil, fmt.Errorf("document id: %w", err)
			}
			req.DocumentID = &did
		}
		out = append(out, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	out := "?"
	for i := 1; i < n; i++ {
		out += ", ?"
	}
	return out
}

func requireRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableStr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableF64(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
