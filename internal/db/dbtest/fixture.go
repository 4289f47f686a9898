// Package dbtest arma bases SQLCipher con el esquema de Signal Desktop para tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mutecomm/go-sqlcipher/v4"
)

// TestKey es una clave hex de 32 bytes como la que guarda Signal en config.json.
const TestKey = "6b1e3c9f0a5d2e7b8c4f1a0d3e6b9c2f5a8d1e4b7c0f3a6d9e2b5c8f1a4d7e0b"

// Schema reproduce las columnas de Signal Desktop que usa el export.
var Schema = []string{
	`CREATE TABLE conversations (
		id TEXT PRIMARY KEY,
		type TEXT,
		e164 TEXT,
		profileName TEXT,
		profileFullName TEXT
	)`,
	`CREATE TABLE messages (
		id TEXT PRIMARY KEY,
		json TEXT,
		conversationId TEXT,
		type TEXT,
		sent_at INTEGER
	)`,
}

// NewEncryptedStore crea una base cifrada con key, aplica Schema y luego statements.
func NewEncryptedStore(t *testing.T, key string, statements ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "db.sqlite")
	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer sqlDB.Close()
	sqlDB.SetMaxOpenConns(1)

	ctx := context.Background()
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		t.Fatalf("fixture conn: %v", err)
	}
	defer conn.Close()

	all := append([]string{`PRAGMA key = "x'` + key + `'";`}, Schema...)
	all = append(all, statements...)
	for _, stmt := range all {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("fixture exec %q: %v", stmt, err)
		}
	}
	return path
}
