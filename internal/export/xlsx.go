package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

const (
	recordsSheet = "Extracted Data"
	summarySheet = "Summary"
	errorsSheet  = "Error Details"
)

// WriteRecordsXLSX writes one row per record, columns in output key order.
func WriteRecordsXLSX(w io.Writer, records []entity.OutputRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := useSheet(f, recordsSheet); err != nil {
		return err
	}
	if err := writeHeader(f, recordsSheet, constants.OutputKeys); err != nil {
		return err
	}
	for i, rec := range records {
		m := rec.Map()
		for j, key := range constants.OutputKeys {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			v := m[key]
			if list, ok := v.([]string); ok {
				v = strings.Join(list, ", ")
			}
			if v == nil {
				v = ""
			}
			if err := f.SetCellValue(recordsSheet, cell, v); err != nil {
				return fmt.Errorf("set %s: %w", cell, err)
			}
		}
	}
	_ = f.SetColWidth(recordsSheet, "A", "A", 38)
	_ = f.SetColWidth(recordsSheet, "B", "M", 18)
	_ = f.SetColWidth(recordsSheet, "N", "N", 60)
	_ = f.SetColWidth(recordsSheet, "O", "U", 22)

	return f.Write(w)
}

// WriteReportXLSX writes the summary sheet and, when there is anything to
// show, an error detail sheet.
func WriteReportXLSX(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := useSheet(f, summarySheet); err != nil {
		return err
	}
	if err := writeHeader(f, summarySheet, []string{"Metric", "Value"}); err != nil {
		return err
	}
	rows := []struct {
		metric string
		value  any
	}{
		{"Total Documents Processed", r.TotalProcessed},
		{"Successfully Validated (PASSED)", r.Passed},
		{"Partially Validated (PARTIAL)", r.Partial},
		{"Failed Validation (FAILED)", r.Failed},
		{"Duplicates", r.Duplicates},
		{"Documents with Missing Required Fields", r.MissingFieldsCount},
		{"Documents with Date Errors", r.DateErrorsCount},
		{"Documents with Numeric Errors", r.NumericErrorsCount},
		{"Extraction Failures", r.ExtractionFailures},
		{"Average Validation Score", r.AverageScore},
		{"Generated At", r.GeneratedAt},
	}
	for i, row := range rows {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+2), &[]any{row.metric, row.value}); err != nil {
			return fmt.Errorf("summary row: %w", err)
		}
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 42)
	_ = f.SetColWidth(summarySheet, "B", "B", 24)

	if len(r.ErrorDetails) > 0 {
		if _, err := f.NewSheet(errorsSheet); err != nil {
			return err
		}
		header := []string{"source_file_name", "document_id", "validation_status", "violations", "missing_fields", "failures"}
		if err := writeHeader(f, errorsSheet, header); err != nil {
			return err
		}
		for i, d := range r.ErrorDetails {
			row := []any{
				d.SourceFileName,
				d.DocumentID,
				d.Status,
				violationText(d.Violations),
				strings.Join(d.MissingFields, ", "),
				failureText(d.Failures),
			}
			if err := f.SetSheetRow(errorsSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
				return fmt.Errorf("error row: %w", err)
			}
		}
		_ = f.SetColWidth(errorsSheet, "A", "C", 24)
		_ = f.SetColWidth(errorsSheet, "D", "F", 60)
	}

	return f.Write(w)
}

// useSheet renames the default sheet so the workbook has no empty Sheet1.
func useSheet(f *excelize.File, name string) error {
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return fmt.Errorf("sheet %s: %w", name, err)
	}
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []string) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"366092"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		_ = f.SetCellStyle(sheet, cell, cell, style)
	}
	return nil
}

func violationText(vs []entity.Violation) string {
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		parts = append(parts, fmt.Sprintf("[%s] %s: %s", v.Severity, v.RuleID, v.Message))
	}
	return strings.Join(parts, "; ")
}

func failureText(fs []entity.Failure) string {
	parts := make([]string, 0, len(fs))
	for _, f := range fs {
		if f.Field != "" {
			parts = append(parts, fmt.Sprintf("%s %s: %s", f.Kind, f.Field, f.Message))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", f.Kind, f.Message))
	}
	return strings.Join(parts, "; ")
}
