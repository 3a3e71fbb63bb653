package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complytrack/compliance-tracker/constants"
	"github.com/complytrack/compliance-tracker/internal/entity"
	"github.com/complytrack/compliance-tracker/internal/llm"
)

func linkerFixture(t *testing.T) (*Linker, *fakeReqRepo) {
	t.Helper()
	reqs := &fakeReqRepo{}
	return NewLinker(testRegistry(t), reqs, 0.8, quietLogger()), reqs
}

func linkableDocument() *entity.Document {
	entityID := uuid.New()
	code := "health_permit"
	return &entity.Document{
		ID:               uuid.New(),
		EntityID:         &entityID,
		DocumentTypeCode: &code,
	}
}

func openRequirement(due *time.Time) *entity.Requirement {
	return &entity.Requirement{
		ID:                  uuid.New(),
		RequirementTypeCode: "annual_health_permit",
		Status:              constants.ReqStatusPending,
		DueDate:             due,
	}
}

func datePtr(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestLinkNothingWithoutEntityOrType(t *testing.T) {
	l, reqs := linkerFixture(t)

	doc := linkableDocument()
	doc.EntityID = nil
	id, err := l.Link(context.Background(), doc, llm.Result{})
	require.NoError(t, err)
	assert.Nil(t, id)

	doc = linkableDocument()
	doc.DocumentTypeCode = nil
	id, err = l.Link(context.Background(), doc, llm.Result{})
	require.NoError(t, err)
	assert.Nil(t, id)

	assert.Nil(t, reqs.saved)
}

func TestLinkNothingWhenNoOpenRequirement(t *testing.T) {
	l, reqs := linkerFixture(t)

	id, err := l.Link(context.Background(), linkableDocument(), llm.Result{Confidence: 0.95})

	require.NoError(t, err)
	assert.Nil(t, id)
	assert.Nil(t, reqs.saved)
	assert.Equal(t, []string{"annual_health_permit"}, reqs.codes)
}

func TestLinkPicksEarliestDueDate(t *testing.T) {
	l, reqs := linkerFixture(t)

	later := openRequirement(datePtr("2026-09-01"))
	earliest := openRequirement(datePtr("2026-03-01"))
	undated := openRequirement(nil)
	reqs.open = []*entity.Requirement{later, undated, earliest}

	id, err := l.Link(context.Background(), linkableDocument(), llm.Result{Confidence: 0.95})

	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, earliest.ID, *id)
}

func TestLinkUndatedRequirementsSortLast(t *testing.T) {
	l, reqs := linkerFixture(t)

	undated := openRequirement(nil)
	dated := openRequirement(datePtr("2099-12-31"))
	reqs.open = []*entity.Requirement{undated, dated}

	id, err := l.Link(context.Background(), linkableDocument(), llm.Result{Confidence: 0.95})

	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, dated.ID, *id)
}

func TestLinkTieBreaksOnID(t *testing.T) {
	l, reqs := linkerFixture(t)

	due := datePtr("2026-03-01")
	a := openRequirement(due)
	b := openRequirement(due)
	reqs.open = []*entity.Requirement{a, b}

	wantID := a.ID
	if b.ID.String() < a.ID.String() {
		wantID = b.ID
	}

	id, err := l.Link(context.Background(), linkableDocument(), llm.Result{Confidence: 0.95})

	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, wantID, *id)
}

func TestLinkSetsDueDateFromExtractedExpiration(t *testing.T) {
	l, reqs := linkerFixture(t)
	reqs.open = []*entity.Requirement{openRequirement(nil)}

	_, err := l.Link(context.Background(), linkableDocument(), llm.Result{
		Data:       map[string]any{"expiration_date": "2026-06-30"},
		Confidence: 0.95,
	})

	require.NoError(t, err)
	require.NotNil(t, reqs.saved)
	require.NotNil(t, reqs.saved.DueDate)
	assert.Equal(t, "2026-06-30", reqs.saved.DueDate.Format("2006-01-02"))
}

func TestLinkIgnoresUnparsableExpiration(t *testing.T) {
	l, reqs := linkerFixture(t)
	existing := datePtr("2026-01-01")
	reqs.open = []*entity.Requirement{openRequirement(existing)}

	_, err := l.Link(context.Background(), linkableDocument(), llm.Result{
		Data:       map[string]any{"expiration_date": "sometime next year"},
		Confidence: 0.95,
	})

	require.NoError(t, err)
	require.NotNil(t, reqs.saved)
	assert.Equal(t, existing, reqs.saved.DueDate)
}

func TestLinkConfidenceGatesCompliance(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		want       constants.RequirementStatus
	}{
		{"above threshold", 0.9, constants.ReqStatusCompliant},
		{"exactly at threshold", 0.8, constants.ReqStatusCompliant},
		{"below threshold", 0.79, constants.ReqStatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, reqs := linkerFixture(t)
			reqs.open = []*entity.Requirement{openRequirement(nil)}

			id, err := l.Link(context.Background(), linkableDocument(), llm.Result{Confidence: tt.confidence})

			require.NoError(t, err)
			require.NotNil(t, id)
			require.NotNil(t, reqs.saved)
			assert.Equal(t, tt.want, reqs.saved.Status)
			assert.NotNil(t, reqs.saved.DocumentID)
		})
	}
}
