package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/complytrack/compliance-tracker/constants"
)

// Requirement is a compliance obligation owned by a tracked entity. The
// linker mutates DueDate, DocumentID and Status when a processed document
// satisfies it.
type Requirement struct {
	ID                  uuid.UUID                   `json:"id"`
	EntityID            uuid.UUID                   `json:"entity_id"`
	RequirementTypeCode string                      `json:"requirement_type_code"`
	Name                string                      `json:"name"`
	Status              constants.RequirementStatus `json:"status"`
	DueDate             *time.Time                  `json:"due_date,omitempty"`
	DocumentID          *uuid.UUID                  `json:"document_id,omitempty"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
}
