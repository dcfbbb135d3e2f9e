package ingestion

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpattn/memberload/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadRequest(t *testing.T, fields map[string]string, fileName, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/members/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

const handlerFile = memberHeader + "\n1,Aminah,900101-14-5678,1,a@example.com,0123,2,1,1,1,1\n1,,900101-14-5679,1,r@example.com,0123,2,1,1,1,1\n"

func TestHandlerReturnsJSONReport(t *testing.T) {
	service, _ := newTestService(seededStore(), nil, Options{})
	handler := NewHTTPHandler(service, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, uploadRequest(t, map[string]string{"mode": "validate"}, "members.csv", handlerFile))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, domain.ModeValidate, report.Mode)
	assert.Equal(t, 2, report.TotalRows)
	assert.Equal(t, 1, report.PassedRows)
	assert.Equal(t, 1, report.FailedRows)
	assert.Equal(t, "members.csv", report.FileName)
}

func TestHandlerReturnsCSVReport(t *testing.T) {
	service, _ := newTestService(seededStore(), nil, Options{})
	handler := NewHTTPHandler(service, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, uploadRequest(t, map[string]string{"format": "csv"}, "members.csv", handlerFile))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "members-upload-report.csv")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	header := records[0]
	require.Equal(t, "PASSWORD", header[len(header)-1])
	assert.Equal(t, "PASS", records[1][len(header)-4])
	assert.Equal(t, "FAILED", records[2][len(header)-4])
	assert.Equal(t, "Missing required fields: FULLNAME", records[2][len(header)-3])
}

func TestHandlerRejectsBadInput(t *testing.T) {
	service, _ := newTestService(seededStore(), nil, Options{})
	handler := NewHTTPHandler(service, nil)

	cases := []struct {
		name string
		req  *http.Request
		code int
	}{
		{name: "wrong method", req: httptest.NewRequest(http.MethodGet, "/api/members/upload", nil), code: http.StatusMethodNotAllowed},
		{name: "missing file", req: uploadRequest(t, map[string]string{"mode": "upload"}, "", ""), code: http.StatusBadRequest},
		{name: "bad mode", req: uploadRequest(t, map[string]string{"mode": "delete"}, "members.csv", handlerFile), code: http.StatusBadRequest},
		{name: "bad format", req: uploadRequest(t, map[string]string{"format": "pdf"}, "members.csv", handlerFile), code: http.StatusBadRequest},
		{name: "empty file", req: uploadRequest(t, nil, "members.csv", ""), code: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, tc.req)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestLogsHandlerListsBatchEntries(t *testing.T) {
	logRepo := &stubLogRepo{}
	batchID := uuid.New()
	row := 4
	require.NoError(t, logRepo.Record(context.Background(), domain.IngestionLogEntry{
		BatchID:      batchID,
		FileName:     "members.csv",
		RowNumber:    &row,
		Kind:         domain.ReasonEmailFormatInvalid,
		FieldName:    domain.ColumnEmail,
		ErrorMessage: domain.MessageEmailFormatInvalid,
	}))

	mux := http.NewServeMux()
	mux.Handle("GET /api/members/uploads/{batchID}/logs", NewLogsHandler(logRepo))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/members/uploads/"+batchID.String()+"/logs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []domain.IngestionLogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ReasonEmailFormatInvalid, entries[0].Kind)
	assert.Equal(t, domain.ColumnEmail, entries[0].FieldName)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Len(t, raw, 1)
	for _, key := range []string{"batchId", "fileName", "rowNumber", "fieldName", "errorMessage", "createdAt"} {
		assert.Contains(t, raw[0], key)
	}
	assert.NotContains(t, raw[0], "batch_id")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/members/uploads/not-a-uuid/logs", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
