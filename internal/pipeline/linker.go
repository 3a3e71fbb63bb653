package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/complytrack/compliance-tracker/constants"
	"github.com/complytrack/compliance-tracker/internal/config"
	"github.com/complytrack/compliance-tracker/internal/entity"
	"github.com/complytrack/compliance-tracker/internal/llm"
	"github.com/complytrack/compliance-tracker/internal/repository"
)

// expirationDateFormat is the only layout accepted for an extracted
// expiration date; cleaning has already normalized parseable dates to it.
const expirationDateFormat = "2006-01-02"

// Linker matches a processed document against the entity's open
// requirements and satisfies the best candidate.
type Linker struct {
	registry        *config.Registry
	reqs            repository.RequirementRepository
	acceptThreshold float64
	logger          *slog.Logger
	now             func() time.Time
}

func NewLinker(registry *config.Registry, reqs repository.RequirementRepository, acceptThreshold float64, logger *slog.Logger) *Linker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Linker{
		registry:        registry,
		reqs:            reqs,
		acceptThreshold: acceptThreshold,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Link attaches the document to the most urgent open requirement that
// accepts its document type. It returns the satisfied requirement's id, or
// nil when the document links to nothing.
func (l *Linker) Link(ctx context.Context, doc *entity.Document, res llm.Result) (*uuid.UUID, error) {
	if doc.EntityID == nil || doc.DocumentTypeCode == nil {
		return nil, nil
	}
	docTypeCode := *doc.DocumentTypeCode
	if _, ok := l.registry.DocumentType(docTypeCode); !ok {
		return nil, nil
	}

	reqTypes := l.registry.RequirementTypesForDocument(docTypeCode)
	if len(reqTypes) == 0 {
		return nil, nil
	}
	codes := make([]string, 0, len(reqTypes))
	for _, rt := range reqTypes {
		codes = append(codes, rt.Code)
	}

	open, err := l.reqs.FindOpenForEntity(ctx, *doc.EntityID, codes)
	if err != nil {
		return nil, fmt.Errorf("find open requirements: %w", err)
	}
	if len(open) == 0 {
		return nil, nil
	}

	req := pickMostUrgent(open)
	req.DocumentID = &doc.ID
	if due, ok := extractedExpiration(res.Data); ok {
		req.DueDate = &due
	}
	if res.Confidence >= l.acceptThreshold {
		req.Status = constants.ReqStatusCompliant
	}
	req.UpdatedAt = l.now()

	if err := l.reqs.Save(ctx, req); err != nil {
		return nil, fmt.Errorf("save requirement %s: %w", req.ID, err)
	}
	l.logger.Info("linker.linked",
		"document_id", doc.ID,
		"requirement_id", req.ID,
		"status", string(req.Status),
		"confidence", res.Confidence,
	)
	return &req.ID, nil
}

// pickMostUrgent orders candidates by earliest due date with undated
// requirements last, breaking ties by id, and returns the first.
func pickMostUrgent(reqs []*entity.Requirement) *entity.Requirement {
	sorted := make([]*entity.Requirement, len(reqs))
	copy(sorted, reqs)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return strings.Compare(a.ID.String(), b.ID.String()) < 0
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		case !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		default:
			return strings.Compare(a.ID.String(), b.ID.String()) < 0
		}
	})
	return sorted[0]
}

// extractedExpiration reads a normalized expiration_date field from the
// extracted data. Anything that is not a well-formed ISO date is ignored.
func extractedExpiration(data map[string]any) (time.Time, bool) {
	raw, ok := data["expiration_date"]
	if !ok {
		return time.Time{}, false
	}
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(expirationDateFormat, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
