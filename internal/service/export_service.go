package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"signal-export/internal/domain"
	"signal-export/internal/repository"
)

var ErrExportServiceNotConfigured = errors.New("export service not configured")

// ExportService arma el pipeline filas -> mensajes -> conversaciones -> archivos.
// Lectura, parseo y agrupacion corren en un solo hilo; solo la escritura es paralela.
type ExportService struct {
	logger      *zap.Logger
	rows        repository.MessageRowSource
	writer      *ArchiveWriter
	archives    repository.ArchiveRepository
	ledger      RunLedger
	haltOnError bool
}

// ExportOptions agrupa los colaboradores opcionales del export.
type ExportOptions struct {
	// Archives, si no es nil, recibe una copia de cada conversacion escrita.
	Archives repository.ArchiveRepository
	Ledger   RunLedger
	// HaltOnPayloadError corta el export con el primer payload invalido en lugar de saltarlo.
	HaltOnPayloadError bool
}

func NewExportService(logger *zap.Logger, rows repository.MessageRowSource, writer *ArchiveWriter, opts ExportOptions) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		logger:      logger,
		rows:        rows,
		writer:      writer,
		archives:    opts.Archives,
		ledger:      opts.Ledger,
		haltOnError: opts.HaltOnPayloadError,
	}
}

// Run ejecuta el export completo hacia outputDir. Los errores de lectura,
// de payload (si HaltOnPayloadError) y de agrupacion son fatales; los de
// escritura quedan en el resumen.
func (s *ExportService) Run(ctx context.Context, outputDir string) (domain.ExportRun, error) {
	if s == nil || s.rows == nil || s.writer == nil {
		return domain.ExportRun{}, ErrExportServiceNotConfigured
	}

	run := domain.ExportRun{ID: uuid.NewString(), StartedAt: time.Now().UTC()}
	logger := s.logger.With(zap.String("run_id", run.ID))

	logger.Debug("executing message query")
	agg := NewAggregator()
	for row, err := range s.rows.Rows(ctx) {
		if err != nil {
			return run, err
		}
		index := run.Rows
		run.Rows++

		rec, err := ParsePayload(row, index)
		if err != nil {
			if s.haltOnError {
				return run, err
			}
			run.SkippedPayloads++
			logger.Warn("skipping message with invalid payload",
				zap.Int("row", index),
				zap.String("message_id", row.MessageID),
				zap.String("conversation_id", row.ConversationID),
				zap.Error(err),
			)
			continue
		}
		agg.Add(rec)
	}
	run.FilteredMessages = agg.Filtered()

	logger.Debug("query finished, formatting data", zap.Int("rows", run.Rows))
	convs, err := agg.Finish()
	if err != nil {
		return run, err
	}
	run.Conversations = len(convs)
	for _, conv := range convs {
		run.Messages += len(conv.Messages)
	}

	for _, res := range s.writer.WriteAll(outputDir, convs) {
		if res.Err != nil {
			run.FilesFailed++
			continue
		}
		run.FilesWritten++
	}

	run.Mirrored = s.mirror(ctx, logger, run.ID, convs)
	run.FinishedAt = time.Now().UTC()

	if s.ledger != nil {
		if err := s.ledger.Record(ctx, run); err != nil {
			logger.Warn("run ledger record failed", zap.Error(err))
		}
	}

	logger.Info("export finished",
		zap.Int("rows", run.Rows),
		zap.Int("conversations", run.Conversations),
		zap.Int("messages", run.Messages),
		zap.Int("skipped_payloads", run.SkippedPayloads),
		zap.Int("filtered_messages", run.FilteredMessages),
		zap.Int("files_written", run.FilesWritten),
		zap.Int("files_failed", run.FilesFailed),
	)
	return run, nil
}

func (s *ExportService) mirror(ctx context.Context, logger *zap.Logger, runID string, convs []domain.Conversation) int {
	if s.archives == nil {
		return 0
	}
	mirrored := 0
	for _, conv := range convs {
		if err := s.archives.Upsert(ctx, runID, conv); err != nil {
			logger.Warn("archive mirror upsert failed", zap.String("conversation_id", conv.ConversationID), zap.Error(err))
			continue
		}
		mirrored++
	}
	return mirrored
}
