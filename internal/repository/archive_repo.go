package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"signal-export/internal/domain"
)

// ArchiveRepository guarda una copia de cada conversacion exportada.
type ArchiveRepository interface {
	Upsert(ctx context.Context, runID string, conv domain.Conversation) error
}

type PgArchiveRepository struct {
	pool *pgxpool.Pool
}

func NewPgArchiveRepository(pool *pgxpool.Pool) *PgArchiveRepository {
	return &PgArchiveRepository{pool: pool}
}

func (r *PgArchiveRepository) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS conversation_archives (
			conversation_id TEXT PRIMARY KEY,
			profile_name    TEXT,
			conv_type       TEXT NOT NULL,
			e164            BIGINT,
			message_count   INTEGER NOT NULL,
			payload         JSONB NOT NULL,
			run_id          TEXT NOT NULL,
			exported_at     TIMESTAMPTZ NOT NULL
		)
	`
	_, err := r.pool.Exec(ctx, ddl)
	return err
}

func (r *PgArchiveRepository) Upsert(ctx context.Context, runID string, conv domain.Conversation) error {
	const query = `
		INSERT INTO conversation_archives (
			conversation_id, profile_name, conv_type, e164, message_count, payload, run_id, exported_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (conversation_id) DO UPDATE SET
			profile_name  = EXCLUDED.profile_name,
			conv_type     = EXCLUDED.conv_type,
			e164          = EXCLUDED.e164,
			message_count = EXCLUDED.message_count,
			payload       = EXCLUDED.payload,
			run_id        = EXCLUDED.run_id,
			exported_at   = EXCLUDED.exported_at
	`

	payload, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("marshal conversation %s: %w", conv.ConversationID, err)
	}

	_, err = r.pool.Exec(ctx, query,
		conv.ConversationID,
		conv.ProfileName,
		conv.ConvType,
		conv.E164,
		len(conv.Messages),
		string(payload),
		runID,
		time.Now().UTC(),
	)
	return err
}
