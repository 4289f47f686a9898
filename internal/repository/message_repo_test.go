package repository

import (
	"context"
	"errors"
	"testing"

	"signal-export/internal/db"
	"signal-export/internal/db/dbtest"
	"signal-export/internal/domain"
)

func openFixture(t *testing.T, statements ...string) *db.Store {
	t.Helper()
	path := dbtest.NewEncryptedStore(t, dbtest.TestKey, statements...)
	store, err := db.OpenEncrypted(context.Background(), path, dbtest.TestKey)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func collectRows(t *testing.T, repo *SQLiteMessageRepository) []domain.RawRow {
	t.Helper()
	var out []domain.RawRow
	for row, err := range repo.Rows(context.Background()) {
		if err != nil {
			t.Fatalf("expected no row error, got %v", err)
		}
		out = append(out, row)
	}
	return out
}

func TestSQLiteMessageRepositoryRows(t *testing.T) {
	store := openFixture(t,
		`INSERT INTO conversations (id, type, e164, profileName, profileFullName) VALUES
			('conv-1', 'private', '+15550001111', 'Alice', 'Alice Liddell'),
			('conv-2', 'group', NULL, NULL, NULL)`,
		`INSERT INTO messages (id, json, conversationId, type, sent_at) VALUES
			('m3', '{"id":"m3"}', 'conv-2', 'outgoing', 300),
			('m1', '{"id":"m1"}', 'conv-1', 'incoming', 100),
			('m2', '{"id":"m2"}', 'conv-1', 'outgoing', 200),
			('m4', '{"id":"m4"}', 'conv-2', 'incoming', 400),
			('orphan', '{"id":"orphan"}', 'conv-404', 'incoming', 50)`,
	)

	rows := collectRows(t, NewSQLiteMessageRepository(store.Conn()))
	if len(rows) != 4 {
		t.Fatalf("expected 4 joined rows, got %d", len(rows))
	}

	wantOrder := []string{"m1", "m2", "m3", "m4"}
	for i, id := range wantOrder {
		if rows[i].MessageID != id {
			t.Fatalf("row %d: expected %s, got %s", i, id, rows[i].MessageID)
		}
	}

	incoming := rows[0]
	if incoming.ConvType == nil || *incoming.ConvType != "private" {
		t.Fatalf("expected conv type private, got %v", incoming.ConvType)
	}
	if incoming.E164 == nil || *incoming.E164 != "+15550001111" {
		t.Fatalf("expected e164 text, got %v", incoming.E164)
	}
	if incoming.ProfileName == nil || *incoming.ProfileName != "Alice" {
		t.Fatalf("expected profile name Alice, got %v", incoming.ProfileName)
	}
	if incoming.MessageName == nil || *incoming.MessageName != "Alice Liddell" {
		t.Fatalf("expected sender label from full name, got %v", incoming.MessageName)
	}
	if incoming.Payload != `{"id":"m1"}` {
		t.Fatalf("unexpected payload %q", incoming.Payload)
	}

	if rows[1].MessageName == nil || *rows[1].MessageName != "me" {
		t.Fatalf("expected outgoing label me, got %v", rows[1].MessageName)
	}

	group := rows[2]
	if group.ProfileName == nil || *group.ProfileName != "conv-2" {
		t.Fatalf("expected profile name fallback to conversation id, got %v", group.ProfileName)
	}
	if group.E164 != nil {
		t.Fatalf("expected nil e164, got %v", *group.E164)
	}
	if rows[3].MessageName == nil || *rows[3].MessageName != "system" {
		t.Fatalf("expected incoming without full name to be system, got %v", rows[3].MessageName)
	}
}

func TestSQLiteMessageRepositoryRows_StopEarly(t *testing.T) {
	store := openFixture(t,
		`INSERT INTO conversations (id, type) VALUES ('conv-1', 'private')`,
		`INSERT INTO messages (id, json, conversationId, type, sent_at) VALUES
			('m1', '{}', 'conv-1', 'outgoing', 1),
			('m2', '{}', 'conv-1', 'outgoing', 2)`,
	)

	seen := 0
	for _, err := range NewSQLiteMessageRepository(store.Conn()).Rows(context.Background()) {
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		seen++
		break
	}
	if seen != 1 {
		t.Fatalf("expected to stop after 1 row, got %d", seen)
	}

	// la conexion queda libre tras cortar la iteracion
	if rows := collectRows(t, NewSQLiteMessageRepository(store.Conn())); len(rows) != 2 {
		t.Fatalf("expected 2 rows on second pass, got %d", len(rows))
	}
}

func TestSQLiteMessageRepositoryRows_QueryError(t *testing.T) {
	store := openFixture(t, `DROP TABLE conversations`)

	var errs []error
	for _, err := range NewSQLiteMessageRepository(store.Conn()).Rows(context.Background()) {
		errs = append(errs, err)
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrQuery) {
		t.Fatalf("expected a single ErrQuery, got %v", errs)
	}
}
