package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rpattn/memberload/internal/credential"
	"github.com/rpattn/memberload/internal/domain"
	"github.com/rpattn/memberload/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultCallTimeout bounds every remote call made for a row.
const DefaultCallTimeout = 10 * time.Second

// ErrAborted is returned when the caller's context ends before every row was
// processed.
var ErrAborted = errors.New("upload aborted")

// Options tunes the pipeline.
type Options struct {
	CallTimeout     time.Duration
	ReferenceMode   string
	NationalIDTypes []domain.IdentityType
	Parse           ParseOptions
}

// Service validates uploaded member files and registers the rows that pass.
type Service struct {
	store      repository.RecordStore
	logRepo    repository.IngestionLogRepository
	normalizer Normalizer
	prober     Prober
	writer     *Writer
	opts       Options
	logger     logrus.FieldLogger
	now        func() time.Time
}

// NewService creates a new ingestion service. logRepo may be nil, in which case
// failed rows are only logged.
func NewService(
	store repository.RecordStore,
	logRepo repository.IngestionLogRepository,
	provider credential.Provider,
	opts Options,
	logger logrus.FieldLogger,
) *Service {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.ReferenceMode == "" {
		opts.ReferenceMode = ReferenceModeSpeculative
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Service{
		store:      store,
		logRepo:    logRepo,
		normalizer: NewNormalizer(opts.NationalIDTypes),
		prober:     NewProber(store),
		writer:     NewWriter(store, provider, opts.CallTimeout),
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// Request describes one uploaded file.
type Request struct {
	FileName string
	Mode     domain.Mode
	Data     io.Reader
}

// Process runs every data row of the file through the stage list and returns
// the annotated report. Only file level problems are returned as errors. If ctx
// ends mid-file, processing stops, the batch is marked aborted and the partial
// report is returned with ErrAborted.
func (s *Service) Process(ctx context.Context, req Request) (domain.Report, error) {
	started := s.now()

	mode := req.Mode
	if mode == "" {
		mode = domain.ModeUpload
	}
	if req.Data == nil {
		return domain.Report{}, errors.New("data reader is required")
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return domain.Report{}, fmt.Errorf("failed to read upload: %w", err)
	}

	table, err := parseTable(req.FileName, payload, s.opts.Parse)
	if err != nil {
		s.logger.WithError(err).WithField("file_name", req.FileName).Error("failed to parse upload")
		return domain.Report{}, err
	}

	report := domain.Report{
		BatchID:   uuid.New(),
		FileName:  req.FileName,
		Mode:      mode,
		Headers:   table.headers,
		Rows:      make([]domain.ReportRow, 0, len(table.rows)),
		Warnings:  headerWarnings(table.headers, mode),
		StartedAt: started,
	}

	logger := s.logger.WithFields(logrus.Fields{
		"batch_id":  report.BatchID,
		"file_name": report.FileName,
		"mode":      mode,
	})
	for _, warning := range report.Warnings {
		logger.Warn(warning)
	}

	batch := domain.NewUploadBatch(report, len(table.rows))
	s.openBatch(ctx, batch, logger)

	stages := s.pipeline(mode, s.referenceChecker(ctx))
	var interrupted error
	for _, parsed := range table.rows {
		if err := ctx.Err(); err != nil {
			interrupted = err
			break
		}

		row := s.processRow(ctx, stages, parsed, mode)
		// A row that failed after ctx ended was never really validated.
		if err := ctx.Err(); err != nil && row.Result == domain.OutcomeFailed {
			interrupted = err
			break
		}
		report.Append(row)
		observeRow(mode, row)

		if row.Result == domain.OutcomeFailed {
			logger.WithFields(logrus.Fields{
				"row":   row.RowNumber,
				"kind":  row.Kind,
				"field": row.Field,
			}).Info(row.ReasonsText())
			s.recordFailure(ctx, report, row, logger)
		}
	}

	report.CompletedAt = s.now()
	if interrupted != nil {
		s.closeBatch(ctx, batch.Abort(report), logger)
		logger.WithError(interrupted).WithFields(logrus.Fields{
			"total":     len(table.rows),
			"processed": report.TotalRows,
		}).Warn("upload aborted")
		return report, fmt.Errorf("%w: %w", ErrAborted, interrupted)
	}

	s.closeBatch(ctx, batch.Complete(report), logger)
	observeFile(mode, started)

	logger.WithFields(logrus.Fields{
		"total":  report.TotalRows,
		"passed": report.PassedRows,
		"failed": report.FailedRows,
	}).Info("upload processed")

	return report, nil
}

func (s *Service) processRow(ctx context.Context, stages []stage, parsed parsedRow, mode domain.Mode) domain.ReportRow {
	row := domain.ReportRow{
		RowNumber: parsed.line,
		Values:    parsed.values,
	}

	state := &rowState{row: parsed.values}
	if rowErr := runStages(ctx, stages, state); rowErr != nil {
		row.Result = domain.OutcomeFailed
		row.Kind = rowErr.Kind
		row.Field = rowErr.Field
		row.Reasons = rowErr.Reasons
		return row
	}

	row.Result = domain.OutcomePass
	if mode.Commits() && state.persisted != nil {
		row.Reasons = []string{domain.MessageRegistered}
		row.MembershipID = state.persisted.MembershipID
		row.Password = state.persisted.Credential
	} else {
		row.Reasons = []string{domain.MessageValidated}
	}
	return row
}

func (s *Service) referenceChecker(ctx context.Context) ReferenceChecker {
	if s.opts.ReferenceMode == ReferenceModeSnapshot {
		return LoadSnapshotChecker(ctx, s.store, s.opts.CallTimeout)
	}
	return NewSpeculativeChecker(s.store, s.opts.CallTimeout, s.logger)
}
