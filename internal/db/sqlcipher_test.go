package db_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"signal-export/internal/db"
	"signal-export/internal/db/dbtest"
)

func TestOpenEncrypted(t *testing.T) {
	path := dbtest.NewEncryptedStore(t, dbtest.TestKey,
		`INSERT INTO conversations (id, type) VALUES ('conv-1', 'private')`,
	)

	store, err := db.OpenEncrypted(context.Background(), path, `"`+dbtest.TestKey+`"`)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer store.Close()

	var count int
	if err := store.Conn().QueryRowContext(context.Background(), "SELECT count(*) FROM conversations").Scan(&count); err != nil {
		t.Fatalf("query after unlock: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 conversation, got %d", count)
	}
}

func TestOpenEncrypted_PathWithURICharacters(t *testing.T) {
	fixture := dbtest.NewEncryptedStore(t, dbtest.TestKey,
		`INSERT INTO conversations (id, type) VALUES ('conv-1', 'private')`,
	)
	path := filepath.Join(filepath.Dir(fixture), "signal?mode=rw#100%.sqlite")
	if err := os.Rename(fixture, path); err != nil {
		t.Fatalf("rename fixture: %v", err)
	}

	store, err := db.OpenEncrypted(context.Background(), path, dbtest.TestKey)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer store.Close()

	var count int
	if err := store.Conn().QueryRowContext(context.Background(), "SELECT count(*) FROM conversations").Scan(&count); err != nil {
		t.Fatalf("query after unlock: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 conversation, got %d", count)
	}
	if _, err := store.Conn().ExecContext(context.Background(), `INSERT INTO conversations (id, type) VALUES ('x', 'private')`); err == nil {
		t.Fatalf("expected store to stay read-only")
	}
}

func TestOpenEncrypted_ReadOnly(t *testing.T) {
	path := dbtest.NewEncryptedStore(t, dbtest.TestKey)

	store, err := db.OpenEncrypted(context.Background(), path, dbtest.TestKey)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer store.Close()

	if _, err := store.Conn().ExecContext(context.Background(), `INSERT INTO conversations (id, type) VALUES ('x', 'private')`); err == nil {
		t.Fatalf("expected write to fail on read-only store")
	}
}

func TestOpenEncrypted_Errors(t *testing.T) {
	path := dbtest.NewEncryptedStore(t, dbtest.TestKey)
	wrongKey := "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

	cases := []struct {
		name string
		path string
		key  string
		want error
	}{
		{name: "missing file", path: filepath.Join(t.TempDir(), "missing.sqlite"), key: dbtest.TestKey, want: db.ErrStoreNotFound},
		{name: "empty key", path: path, key: "", want: db.ErrUnlockFailed},
		{name: "only quotes", path: path, key: `""`, want: db.ErrUnlockFailed},
		{name: "not hex", path: path, key: "x'; DROP TABLE messages; --", want: db.ErrUnlockFailed},
		{name: "wrong key", path: path, key: wrongKey, want: db.ErrUnlockFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := db.OpenEncrypted(context.Background(), tc.path, tc.key)
			if err == nil {
				store.Close()
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestKeyDirective(t *testing.T) {
	got := db.KeyDirective(`"abc123"`)
	want := `PRAGMA key = "x'abc123'";`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
