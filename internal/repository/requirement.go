package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/complytrack/compliance-tracker/constants"
	"github.com/complytrack/compliance-tracker/internal/entity"
)

type requirementRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewRequirementRepository returns the Postgres-backed requirement repository.
func NewRequirementRepository(pool *pgxpool.Pool, log *slog.Logger) RequirementRepository {
	if log == nil {
		log = slog.Default()
	}
	return &requirementRepo{pool: pool, log: log}
}

const requirementColumns = `
	id, entity_id, requirement_type_code, name, status, due_date,
	document_id, created_at, updated_at`

func (r *requirementRepo) FindOpenForEntity(ctx context.Context, entityID uuid.UUID, typeCodes []string) ([]*entity.Requirement, error) {
	open := make([]string, 0, len(constants.OpenRequirementStatuses))
	for _, s := range constants.OpenRequirementStatuses {
		open = append(open, string(s))
	}
	rows, err := r.pool.Query(ctx,
		`SELECT`+requirementColumns+`
		 FROM requirements
		 WHERE entity_id = $1
		   AND requirement_type_code = ANY($2)
		   AND status = ANY($3)`,
		entityID, typeCodes, open)
	if err != nil {
		return nil, fmt.Errorf("find open requirements: %w", err)
	}
	defer rows.Close()
	return collectRequirements(rows)
}

func (r *requirementRepo) ListForEntity(ctx context.Context, entityID uuid.UUID) ([]*entity.Requirement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT`+requirementColumns+`
		 FROM requirements WHERE entity_id = $1 ORDER BY due_date NULLS LAST, id`,
		entityID)
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	defer rows.Close()
	return collectRequirements(rows)
}

func (r *requirementRepo) Save(ctx context.Context, req *entity.Requirement) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE requirements SET
			status = $2,
			due_date = $3,
			document_id = $4,
			updated_at = now()
		WHERE id = $1`,
		req.ID, string(req.Status), req.DueDate, req.DocumentID)
	if err != nil {
		r.log.Error("requirement save failed", "requirement_id", req.ID, "err", err)
		return fmt.Errorf("save requirement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowsScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectRequirements(rows rowsScanner) ([]*entity.Requirement, error) {
	var out []*entity.Requirement
	for rows.Next() {
		var (
			req    entity.Requirement
			status string
		)
		if err := rows.Scan(
			&req.ID, &req.EntityID, &req.RequirementTypeCode, &req.Name,
			&status, &req.DueDate, &req.DocumentID,
			&req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan requirement: %w", err)
		}
		req.Status = constants.RequirementStatus(status)
		out = append(out, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
