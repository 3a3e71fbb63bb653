package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/complytrack/compliance-tracker/constants"
	"github.com/complytrack/compliance-tracker/internal/config"
	"github.com/complytrack/compliance-tracker/internal/entity"
)

type fakeReqRepo struct {
	reqs []*entity.Requirement
}

func (f *fakeReqRepo) FindOpenForEntity(_ context.Context, _ uuid.UUID, _ []string) ([]*entity.Requirement, error) {
	return f.reqs, nil
}

func (f *fakeReqRepo) ListForEntity(_ context.Context, _ uuid.UUID) ([]*entity.Requirement, error) {
	return f.reqs, nil
}

func (f *fakeReqRepo) Save(_ context.Context, _ *entity.Requirement) error { return nil }

const exportNiche = `
document_types:
  - code: health_permit
    name: Health Permit
requirement_types:
  - code: annual_health_permit
    name: Annual Health Permit Renewal
    frequency: annually
    required_document_types:
      - health_permit
`

func TestExportRequirementsXLSX(t *testing.T) {
	reg, err := config.Parse([]byte(exportNiche))
	require.NoError(t, err)

	due := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	docID := uuid.New()
	repo := &fakeReqRepo{reqs: []*entity.Requirement{
		{
			ID:                  uuid.New(),
			RequirementTypeCode: "annual_health_permit",
			Name:                "Renew health permit",
			Status:              constants.ReqStatusCompliant,
			DueDate:             &due,
			DocumentID:          &docID,
			UpdatedAt:           time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:                  uuid.New(),
			RequirementTypeCode: "unconfigured",
			Name:                "Something ad hoc",
			Status:              constants.ReqStatusPending,
			UpdatedAt:           time.Date(2026, 1, 16, 12, 0, 0, 0, time.UTC),
		},
	}}

	svc := NewService(repo, reg, nil)
	data, err := svc.ExportRequirementsXLSX(context.Background(), uuid.New())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Requirements")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"Requirement", "Type", "Frequency", "Status", "Due Date", "Linked Document", "Last Updated",
	}, rows[0])

	assert.Equal(t, "Renew health permit", rows[1][0])
	assert.Equal(t, "Annual Health Permit Renewal", rows[1][1])
	assert.Equal(t, "annually", rows[1][2])
	assert.Equal(t, "COMPLIANT", rows[1][3])
	assert.Equal(t, "2026-06-30", rows[1][4])
	assert.Equal(t, docID.String(), rows[1][5])

	// Unconfigured type codes fall back to the raw code.
	assert.Equal(t, "unconfigured", rows[2][1])
	assert.Equal(t, "PENDING", rows[2][3])
}
