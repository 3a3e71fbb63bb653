package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/complytrack/compliance-tracker/constants"
	"github.com/complytrack/compliance-tracker/internal/entity"
)

// ErrNotFound is returned for lookups of ids that do not exist.
var ErrNotFound = errors.New("not found")

// DocumentRepository persists documents and their extraction state.
type DocumentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	// UpdateStatus writes only the lifecycle status, used for the
	// PROCESSING transition at the start of an attempt.
	UpdateStatus(ctx context.Context, id uuid.UUID, status constants.DocumentStatus) error
	// SaveExtraction persists raw text, extracted data, confidences,
	// processing error and terminal status after an attempt.
	SaveExtraction(ctx context.Context, doc *entity.Document) error
}

// RequirementRepository persists compliance requirements.
type RequirementRepository interface {
	// FindOpenForEntity returns the entity's requirements whose type code
	// is in typeCodes and whose status is open (PENDING, EXPIRING_SOON,
	// EXPIRED). Order is unspecified; callers needing determinism sort.
	FindOpenForEntity(ctx context.Context, entityID uuid.UUID, typeCodes []string) ([]*entity.Requirement, error)
	ListForEntity(ctx context.Context, entityID uuid.UUID) ([]*entity.Requirement, error)
	Save(ctx context.Context, req *entity.Requirement) error
}
