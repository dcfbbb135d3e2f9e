package ingestion

import (
	"context"

	"github.com/rpattn/memberload/internal/domain"

	"github.com/sirupsen/logrus"
)

// openBatch writes the audit row for a file. Audit failures never stop
// processing.
func (s *Service) openBatch(ctx context.Context, batch domain.UploadBatch, logger logrus.FieldLogger) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	fields := batch.Fields()
	fields["id"] = batch.ID.String()
	if _, err := s.store.Insert(callCtx, domain.TableUploadBatches, fields); err != nil {
		logger.WithError(err).Warn("failed to record upload batch")
	}
}

func (s *Service) closeBatch(ctx context.Context, batch domain.UploadBatch, logger logrus.FieldLogger) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.CallTimeout)
	defer cancel()

	if err := s.store.Update(callCtx, domain.TableUploadBatches, batch.ID.String(), batch.Fields()); err != nil {
		logger.WithError(err).Warn("failed to complete upload batch")
	}
}

func (s *Service) recordFailure(ctx context.Context, report domain.Report, row domain.ReportRow, logger logrus.FieldLogger) {
	if s.logRepo == nil {
		return
	}

	rowNumber := row.RowNumber
	entry := domain.IngestionLogEntry{
		BatchID:      report.BatchID,
		FileName:     report.FileName,
		RowNumber:    &rowNumber,
		Kind:         row.Kind,
		FieldName:    row.Field,
		ErrorMessage: row.ReasonsText(),
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.CallTimeout)
	defer cancel()

	if err := s.logRepo.Record(callCtx, entry); err != nil {
		logger.WithError(err).WithField("row", row.RowNumber).Warn("failed to record ingestion log")
	}
}
