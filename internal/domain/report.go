package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mode selects whether successful rows are committed or only validated.
type Mode string

const (
	ModeUpload   Mode = "upload"
	ModeValidate Mode = "validate"
)

// ParseMode maps user input onto a Mode. Blank defaults to upload.
func ParseMode(raw string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeUpload:
		return ModeUpload, true
	case ModeValidate:
		return ModeValidate, true
	default:
		return "", false
	}
}

// Commits reports whether successful rows are persisted.
func (m Mode) Commits() bool {
	return m == ModeUpload
}

// ReportRow is one annotated input line.
type ReportRow struct {
	RowNumber    int        `json:"rowNumber"`
	Values       InputRow   `json:"values"`
	Result       Outcome    `json:"result"`
	Kind         ReasonKind `json:"kind,omitempty"`
	Field        string     `json:"field,omitempty"`
	Reasons      []string   `json:"reasons"`
	MembershipID string     `json:"membershipId,omitempty"`
	Password     string     `json:"password,omitempty"`
}

// ReasonsText is the REASONS column value.
func (r ReportRow) ReasonsText() string {
	return strings.Join(r.Reasons, "; ")
}

// Record merges the input values with the appended result columns.
func (r ReportRow) Record() map[string]string {
	out := make(map[string]string, len(r.Values)+4)
	for key, value := range r.Values {
		out[key] = value
	}
	out[ColumnResult] = string(r.Result)
	out[ColumnReasons] = r.ReasonsText()
	if r.MembershipID != "" {
		out[ColumnMembershipID] = r.MembershipID
		out[ColumnPassword] = r.Password
	}
	return out
}

// Report is the annotated result of processing one file.
type Report struct {
	BatchID     uuid.UUID   `json:"batchId"`
	FileName    string      `json:"fileName"`
	Mode        Mode        `json:"mode"`
	Headers     []string    `json:"headers"`
	Rows        []ReportRow `json:"rows"`
	TotalRows   int         `json:"totalRows"`
	PassedRows  int         `json:"passedRows"`
	FailedRows  int         `json:"failedRows"`
	Warnings    []string    `json:"warnings"`
	StartedAt   time.Time   `json:"startedAt"`
	CompletedAt time.Time   `json:"completedAt"`
}

// Columns returns the input headers followed by the appended result columns.
func (r Report) Columns() []string {
	cols := make([]string, 0, len(r.Headers)+4)
	cols = append(cols, r.Headers...)
	cols = append(cols, ColumnResult, ColumnReasons)
	if r.Mode.Commits() {
		cols = append(cols, ColumnMembershipID, ColumnPassword)
	}
	return cols
}

// Append adds row and updates the counters.
func (r *Report) Append(row ReportRow) {
	r.Rows = append(r.Rows, row)
	r.TotalRows++
	if row.Result == OutcomePass {
		r.PassedRows++
	} else {
		r.FailedRows++
	}
}

// UploadBatch status values.
const (
	BatchStatusProcessing = "processing"
	BatchStatusCompleted  = "completed"
	BatchStatusAborted    = "aborted"
)

// UploadBatch is the audit record of one processed file.
type UploadBatch struct {
	ID          uuid.UUID
	FileName    string
	Mode        Mode
	Status      string
	TotalRows   int
	PassedRows  int
	FailedRows  int
	StartedAt   time.Time
	CompletedAt *time.Time
}

// NewUploadBatch opens a batch for report with total data rows.
func NewUploadBatch(report Report, total int) UploadBatch {
	return UploadBatch{
		ID:        report.BatchID,
		FileName:  report.FileName,
		Mode:      report.Mode,
		Status:    BatchStatusProcessing,
		TotalRows: total,
		StartedAt: report.StartedAt.UTC(),
	}
}

// Complete copies the final counters of report onto the batch.
func (b UploadBatch) Complete(report Report) UploadBatch {
	completed := report.CompletedAt.UTC()
	b.Status = BatchStatusCompleted
	b.TotalRows = report.TotalRows
	b.PassedRows = report.PassedRows
	b.FailedRows = report.FailedRows
	b.CompletedAt = &completed
	return b
}

// Abort records the rows processed before the file was torn down. TotalRows
// keeps the file's row count so the unprocessed remainder stays visible.
func (b UploadBatch) Abort(report Report) UploadBatch {
	stopped := report.CompletedAt.UTC()
	b.Status = BatchStatusAborted
	b.PassedRows = report.PassedRows
	b.FailedRows = report.FailedRows
	b.CompletedAt = &stopped
	return b
}

// Fields returns the upload_batches column map, without the id.
func (b UploadBatch) Fields() map[string]any {
	fields := map[string]any{
		"file_name":   b.FileName,
		"mode":        string(b.Mode),
		"status":      b.Status,
		"total_rows":  b.TotalRows,
		"passed_rows": b.PassedRows,
		"failed_rows": b.FailedRows,
		"started_at":  b.StartedAt,
	}
	if b.CompletedAt != nil {
		fields["completed_at"] = *b.CompletedAt
	}
	return fields
}
