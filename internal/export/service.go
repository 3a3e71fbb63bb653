package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/complytrack/compliance-tracker/internal/config"
	"github.com/complytrack/compliance-tracker/internal/repository"
)

// Service is a tiny façade over repositories that produces XLSX bytes for
// compliance reports.
type Service struct {
	reqs     repository.RequirementRepository
	registry *config.Registry
	logger   *slog.Logger
}

func NewService(reqs repository.RequirementRepository, registry *config.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{reqs: reqs, registry: registry, logger: logger}
}

// ExportRequirementsXLSX returns an XLSX workbook (as bytes) listing every
// requirement tracked for the entity, most urgent first.
func (s *Service) ExportRequirementsXLSX(ctx context.Context, entityID uuid.UUID) ([]byte, error) {
	start := time.Now()

	reqs, err := s.reqs.ListForEntity(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("query requirements: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Requirements"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Requirement",
		"Type",
		"Frequency",
		"Status",
		"Due Date",
		"Linked Document",
		"Last Updated",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range reqs {
		typeName := r.RequirementTypeCode
		frequency := ""
		if rt, ok := s.registry.RequirementType(r.RequirementTypeCode); ok {
			typeName = rt.Name
			frequency = rt.Frequency
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.Name)
		write(2, typeName)
		write(3, frequency)
		write(4, string(r.Status))
		if r.DueDate != nil {
			write(5, r.DueDate.Format("2006-01-02"))
		} else {
			write(5, "")
		}
		if r.DocumentID != nil {
			write(6, r.DocumentID.String())
		} else {
			write(6, "")
		}
		write(7, r.UpdatedAt.Format("2006-01-02"))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 36) // name
	_ = f.SetColWidth(sheet, "B", "B", 28) // type
	_ = f.SetColWidth(sheet, "C", "C", 12) // frequency
	_ = f.SetColWidth(sheet, "D", "D", 16) // status
	_ = f.SetColWidth(sheet, "E", "E", 12) // due date
	_ = f.SetColWidth(sheet, "F", "F", 38) // document id
	_ = f.SetColWidth(sheet, "G", "G", 12) // updated

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"entity_id", entityID.String(),
		"rows", len(reqs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
