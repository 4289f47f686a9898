package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"signal-export/internal/domain"
)

var ErrQuery = errors.New("message query failed")

// MessageRowSource entrega las filas crudas del join en orden de envio.
type MessageRowSource interface {
	Rows(ctx context.Context) iter.Seq2[domain.RawRow, error]
}

type rowQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type SQLiteMessageRepository struct {
	conn rowQuerier
}

func NewSQLiteMessageRepository(conn rowQuerier) *SQLiteMessageRepository {
	return &SQLiteMessageRepository{conn: conn}
}

const messageRowsQuery = `
	SELECT
		m.id,
		m.json,
		m.conversationId,
		c.type,
		c.e164,
		CASE
			WHEN c.profileName IS NULL THEN m.conversationId
			ELSE c.profileName
		END AS profileName,
		ifnull(
			CASE
				WHEN m.type = 'incoming' THEN c.profileFullName
				ELSE 'me'
			END,
			'system'
		) AS messageName
	FROM messages AS m
	JOIN conversations AS c ON c.id = m.conversationId
	ORDER BY m.sent_at ASC
`

// Rows ejecuta el join de forma perezosa: la consulta corre al iterar.
// Un error de una fila se entrega y la iteracion sigue si el consumidor lo pide.
func (r *SQLiteMessageRepository) Rows(ctx context.Context) iter.Seq2[domain.RawRow, error] {
	return func(yield func(domain.RawRow, error) bool) {
		rows, err := r.conn.QueryContext(ctx, messageRowsQuery)
		if err != nil {
			yield(domain.RawRow{}, fmt.Errorf("%w: %v", ErrQuery, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			row, err := scanRawRow(rows)
			if err != nil {
				if !yield(domain.RawRow{}, fmt.Errorf("%w: scan row: %v", ErrQuery, err)) {
					return
				}
				continue
			}
			if !yield(row, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(domain.RawRow{}, fmt.Errorf("%w: %v", ErrQuery, err))
		}
	}
}

func scanRawRow(rows *sql.Rows) (domain.RawRow, error) {
	var (
		messageID   sql.NullString
		payload     sql.NullString
		convID      string
		convType    sql.NullString
		e164        sql.NullString
		profileName sql.NullString
		messageName sql.NullString
	)
	if err := rows.Scan(&messageID, &payload, &convID, &convType, &e164, &profileName, &messageName); err != nil {
		return domain.RawRow{}, err
	}

	return domain.RawRow{
		MessageID:      messageID.String,
		Payload:        payload.String,
		ConversationID: convID,
		ConvType:       nullableString(convType),
		E164:           nullableString(e164),
		ProfileName:    nullableString(profileName),
		MessageName:    nullableString(messageName),
	}, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
