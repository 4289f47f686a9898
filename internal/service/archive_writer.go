package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"signal-export/internal/domain"
)

var (
	ErrDirectoryCreate = errors.New("output directory create failed")
	ErrWrite           = errors.New("archive write failed")
)

// WriteResult es el resultado de escribir una conversacion.
type WriteResult struct {
	ConversationID string
	File           string
	Err            error
}

// ArchiveWriter escribe un JSON por conversacion en paralelo. Un fallo en un
// archivo se registra y no afecta a los demas.
type ArchiveWriter struct {
	logger  *zap.Logger
	workers int
}

func NewArchiveWriter(logger *zap.Logger, workers int) *ArchiveWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 1
	}
	return &ArchiveWriter{logger: logger, workers: workers}
}

var fileNameReplacer = strings.NewReplacer("/", "_", `\`, "_", "\x00", "_")

// ArchiveFileName devuelve el nombre del archivo de una conversacion.
func ArchiveFileName(conv domain.Conversation) string {
	return fileNameReplacer.Replace(conv.DisplayName()) + ".json"
}

// WriteAll escribe todas las conversaciones. results[i] corresponde a convs[i].
func (w *ArchiveWriter) WriteAll(dir string, convs []domain.Conversation) []WriteResult {
	w.warnCollisions(convs)

	results := make([]WriteResult, len(convs))
	var g errgroup.Group
	g.SetLimit(w.workers)
	for i := range convs {
		g.Go(func() error {
			results[i] = w.write(dir, convs[i])
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (w *ArchiveWriter) write(dir string, conv domain.Conversation) WriteResult {
	file := filepath.Join(dir, ArchiveFileName(conv))
	result := WriteResult{ConversationID: conv.ConversationID, File: file}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		result.Err = fmt.Errorf("%w: marshal %s: %v", ErrWrite, conv.ConversationID, err)
		w.logger.Error("error serializing conversation", zap.String("conversation_id", conv.ConversationID), zap.Error(err))
		return result
	}

	// MkdirAll es idempotente y tolera llamadas concurrentes.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		result.Err = fmt.Errorf("%w: %s: %v", ErrDirectoryCreate, dir, err)
		w.logger.Error("error creating directory", zap.String("dir", dir), zap.Error(err))
		return result
	}

	if err := os.WriteFile(file, data, 0o644); err != nil {
		result.Err = fmt.Errorf("%w: %s: %v", ErrWrite, file, err)
		w.logger.Error("error writing file", zap.String("file", file), zap.Error(err))
		return result
	}

	w.logger.Debug("wrote conversation", zap.String("file", file), zap.Int("messages", len(conv.Messages)))
	return result
}

func (w *ArchiveWriter) warnCollisions(convs []domain.Conversation) {
	seen := make(map[string]string, len(convs))
	for _, conv := range convs {
		name := ArchiveFileName(conv)
		if other, ok := seen[name]; ok {
			w.logger.Warn("conversations share an output file; last write wins",
				zap.String("file", name),
				zap.String("conversation_id", conv.ConversationID),
				zap.String("other_conversation_id", other),
			)
			continue
		}
		seen[name] = conv.ConversationID
	}
}
