package service

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"signal-export/internal/domain"
)

// RunLedger guarda el resumen de cada export fuera del proceso.
type RunLedger interface {
	Record(ctx context.Context, run domain.ExportRun) error
}

type redisHashWriter interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type redisRunLedger struct {
	client redisHashWriter
	prefix string
}

func NewRedisRunLedger(client *redis.Client) RunLedger {
	if client == nil {
		return nil
	}
	return &redisRunLedger{
		client: client,
		prefix: "signal-export:",
	}
}

func (l *redisRunLedger) Record(ctx context.Context, run domain.ExportRun) error {
	if l == nil || l.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	key := l.prefix + "run:" + run.ID
	fields := map[string]interface{}{
		"started_at":        run.StartedAt.UTC().Format(time.RFC3339Nano),
		"finished_at":       run.FinishedAt.UTC().Format(time.RFC3339Nano),
		"rows":              strconv.Itoa(run.Rows),
		"skipped_payloads":  strconv.Itoa(run.SkippedPayloads),
		"filtered_messages": strconv.Itoa(run.FilteredMessages),
		"conversations":     strconv.Itoa(run.Conversations),
		"messages":          strconv.Itoa(run.Messages),
		"files_written":     strconv.Itoa(run.FilesWritten),
		"files_failed":      strconv.Itoa(run.FilesFailed),
		"mirrored":          strconv.Itoa(run.Mirrored),
	}
	if err := l.client.HSet(ctx, key, fields).Err(); err != nil {
		return err
	}
	return l.client.Set(ctx, l.prefix+"last", run.ID, 0).Err()
}
