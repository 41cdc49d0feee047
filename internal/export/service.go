// Package export produces XLSX workbooks from filled templates.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/toladipo/docbrief/internal/form"
	"github.com/toladipo/docbrief/internal/render"
)

// Service flattens a filled template into a one-sheet workbook, one row per
// field, so the extracted values can be reviewed and corrected in bulk.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportXLSX returns an XLSX workbook (as bytes) for the filled template.
func (s *Service) ExportXLSX(tmpl *form.Template, eventName string) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Fields"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// Drop the default sheet so the workbook opens on Fields.
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{"Section", "Group", "Field", "Type", "Value"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	filled := 0
	for _, section := range tmpl.Sections {
		for _, group := range section.InputFields {
			for _, field := range group.Fields {
				write := func(col int, v any) {
					cell, _ := excelize.CoordinatesToCellName(col, row)
					_ = f.SetCellValue(sheet, cell, v)
				}

				value := render.FormatValue(field.InputValue)
				if value != "" {
					filled++
				}

				write(1, section.SectionName)
				write(2, group.FieldsHeading)
				write(3, field.InputName)
				write(4, field.DataType)
				write(5, truncate(value, 500))

				row++
			}
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 24)
	_ = f.SetColWidth(sheet, "B", "B", 24)
	_ = f.SetColWidth(sheet, "C", "C", 28)
	_ = f.SetColWidth(sheet, "D", "D", 10)
	_ = f.SetColWidth(sheet, "E", "E", 64)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.done",
		"template", tmpl.TemplateName,
		"event", eventName,
		"rows", row-2,
		"filled", filled,
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
