package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rpattn/memberload/internal/domain"
	"github.com/rpattn/memberload/internal/export"
)

func writeReportFile(path string, format export.Format, report domain.Report) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()

	switch format {
	case export.FormatCSV:
		return export.WriteCSV(file, report)
	case export.FormatXLSX:
		return export.WriteXLSX(file, report)
	default:
		enc := json.NewEncoder(file)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	}
}

func printSummary(w io.Writer, report domain.Report) {
	fmt.Fprintf(w, "batch %s (%s): %d rows, %d passed, %d failed\n",
		report.BatchID, report.Mode, report.TotalRows, report.PassedRows, report.FailedRows)
	for _, warning := range report.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	for _, row := range report.Rows {
		if row.Result == domain.OutcomeFailed {
			fmt.Fprintf(w, "row %d: %s\n", row.RowNumber, row.ReasonsText())
		}
	}
}
