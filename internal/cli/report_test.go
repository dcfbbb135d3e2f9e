package cli

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/rpattn/memberload/internal/domain"
	"github.com/rpattn/memberload/internal/export"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryReport() domain.Report {
	report := domain.Report{
		BatchID:  uuid.MustParse("2b1f7c4e-8a52-4b8e-9a55-0f3f1f0d6c11"),
		FileName: "members.csv",
		Mode:     domain.ModeValidate,
		Headers:  []string{domain.ColumnFullName},
		Warnings: []string{"Missing expected columns: PHONE"},
	}
	report.Append(domain.ReportRow{RowNumber: 2, Values: domain.InputRow{domain.ColumnFullName: "Aminah"}, Result: domain.OutcomePass, Reasons: []string{domain.MessageValidated}})
	report.Append(domain.ReportRow{RowNumber: 3, Values: domain.InputRow{domain.ColumnFullName: ""}, Result: domain.OutcomeFailed, Reasons: []string{"Missing required fields: FULLNAME"}})
	return report
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, summaryReport())

	assert.Equal(t,
		"batch 2b1f7c4e-8a52-4b8e-9a55-0f3f1f0d6c11 (validate): 2 rows, 1 passed, 1 failed\n"+
			"warning: Missing expected columns: PHONE\n"+
			"row 3: Missing required fields: FULLNAME\n",
		buf.String())
}

func TestWriteReportFileCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, writeReportFile(path, export.FormatCSV, summaryReport()))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"FULLNAME", "RESULT", "REASONS"}, records[0])
	assert.Equal(t, []string{"", "FAILED", "Missing required fields: FULLNAME"}, records[2])
}

func TestMigrateRejectsUnknownDirection(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"migrate", "sideways"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	assert.Error(t, cmd.Execute())
}

func TestProcessCommandsRequireFile(t *testing.T) {
	for _, name := range []string{"upload", "validate"} {
		cmd := NewRootCmd()
		cmd.SetArgs([]string{name})
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})

		assert.Error(t, cmd.Execute(), name)
	}
}
