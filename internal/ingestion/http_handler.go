package ingestion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rpattn/memberload/internal/domain"
	"github.com/rpattn/memberload/internal/export"
	"github.com/rpattn/memberload/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const maxUploadBytes = 32 << 20

// Handler exposes the pipeline as an HTTP endpoint.
type Handler struct {
	service *Service
	logger  logrus.FieldLogger
}

// NewHTTPHandler wraps the service with a multipart POST endpoint.
func NewHTTPHandler(service *Service, logger logrus.FieldLogger) http.Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{service: service, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	mode, ok := domain.ParseMode(r.FormValue("mode"))
	if !ok {
		http.Error(w, "mode must be upload or validate", http.StatusBadRequest)
		return
	}

	format, err := export.ParseFormat(r.FormValue("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return
	}

	report, err := h.service.Process(r.Context(), Request{
		FileName: header.Filename,
		Mode:     mode,
		Data:     bytes.NewReader(data),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := writeReport(w, report, format); err != nil {
		h.logger.WithError(err).WithField("batch_id", report.BatchID).Error("failed to write report")
	}
}

func writeReport(w http.ResponseWriter, report domain.Report, format export.Format) error {
	if format == export.FormatJSON {
		writeJSON(w, http.StatusOK, report)
		return nil
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case export.FormatCSV:
		err = export.WriteCSV(&buf, report)
	case export.FormatXLSX:
		err = export.WriteXLSX(&buf, report)
	}
	if err != nil {
		http.Error(w, "failed to render report", http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(report, format)))
	w.Header().Set("X-Batch-ID", report.BatchID.String())
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(buf.Bytes())
	return err
}

// LogsHandler lists the failed rows recorded for an upload batch.
type LogsHandler struct {
	logs repository.IngestionLogRepository
}

// NewLogsHandler serves GET /api/members/uploads/{batchID}/logs.
func NewLogsHandler(logs repository.IngestionLogRepository) http.Handler {
	return &LogsHandler{logs: logs}
}

func (h *LogsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	batchID, err := uuid.Parse(strings.TrimSpace(r.PathValue("batchID")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid batch id: %v", err), http.StatusBadRequest)
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := h.logs.List(r.Context(), batchID, limit, offset)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to list logs: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return value, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
