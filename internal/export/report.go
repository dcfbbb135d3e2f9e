package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rpattn/memberload/internal/domain"

	"github.com/xuri/excelize/v2"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnknownFormat is returned for unsupported report formats.
var ErrUnknownFormat = errors.New("unknown report format")

const reportSheet = "Report"

// Result cell fills.
const (
	passFill   = "#C6EFCE"
	failedFill = "#FFC7CE"
)

// ParseFormat maps user input onto a Format. Blank defaults to JSON.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, raw)
	}
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// FileName derives the download name of a report.
func FileName(report domain.Report, f Format) string {
	base := strings.TrimSuffix(filepath.Base(report.FileName), filepath.Ext(report.FileName))
	name := sanitizeFileComponent(base)
	return fmt.Sprintf("%s-%s-report.%s", name, report.Mode, f)
}

// WriteCSV renders the report as CSV: input columns followed by the result
// columns.
func WriteCSV(w io.Writer, report domain.Report) error {
	columns := report.Columns()
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	values := make([]string, len(columns))
	for _, row := range report.Rows {
		record := row.Record()
		for idx, column := range columns {
			values[idx] = record[column]
		}
		if err := csvWriter.Write(values); err != nil {
			return fmt.Errorf("write row %d: %w", row.RowNumber, err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteXLSX renders the report as a workbook with the RESULT cell filled green
// for PASS and red for FAILED.
func WriteXLSX(w io.Writer, report domain.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), reportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	passStyle, err := fillStyle(f, passFill)
	if err != nil {
		return err
	}
	failedStyle, err := fillStyle(f, failedFill)
	if err != nil {
		return err
	}

	columns := report.Columns()
	header := make([]any, len(columns))
	resultCol := 0
	for idx, column := range columns {
		header[idx] = column
		if column == domain.ColumnResult {
			resultCol = idx + 1
		}
	}
	if err := writeRow(f, 1, header); err != nil {
		return err
	}
	if err := styleRange(f, 1, 1, len(columns), headerStyle); err != nil {
		return err
	}

	for idx, row := range report.Rows {
		sheetRow := idx + 2
		record := row.Record()
		values := make([]any, len(columns))
		for col, column := range columns {
			values[col] = record[column]
		}
		if err := writeRow(f, sheetRow, values); err != nil {
			return err
		}

		style := failedStyle
		if row.Result == domain.OutcomePass {
			style = passStyle
		}
		if err := styleRange(f, sheetRow, resultCol, resultCol, style); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func fillStyle(f *excelize.File, color string) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return 0, fmt.Errorf("create result style: %w", err)
	}
	return style, nil
}

func writeRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("resolve cell: %w", err)
	}
	if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func styleRange(f *excelize.File, row, fromCol, toCol, style int) error {
	if fromCol <= 0 {
		return nil
	}
	from, err := excelize.CoordinatesToCellName(fromCol, row)
	if err != nil {
		return fmt.Errorf("resolve cell: %w", err)
	}
	to, err := excelize.CoordinatesToCellName(toCol, row)
	if err != nil {
		return fmt.Errorf("resolve cell: %w", err)
	}
	if err := f.SetCellStyle(reportSheet, from, to, style); err != nil {
		return fmt.Errorf("style cells: %w", err)
	}
	return nil
}

func sanitizeFileComponent(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	builder := strings.Builder{}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			builder.WriteRune(r)
		default:
			builder.WriteRune('-')
		}
	}
	result := strings.Trim(builder.String(), "-")
	if result == "" {
		return "upload"
	}
	return result
}
