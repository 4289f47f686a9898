package db

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mutecomm/go-sqlcipher/v4"
)

var (
	ErrStoreNotFound = errors.New("signal database not found")
	ErrStoreOpen     = errors.New("signal database open failed")
	ErrUnlockFailed  = errors.New("signal database unlock failed (wrong key?)")
)

// Store es la base cifrada de Signal abierta en solo lectura sobre una unica conexion.
// SQLCipher aplica la clave por conexion, asi que todas las lecturas usan Conn.
type Store struct {
	db   *sql.DB
	conn *sql.Conn
}

// OpenEncrypted abre la base en solo lectura y la desbloquea con la clave hex de Signal.
func OpenEncrypted(ctx context.Context, path, key string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreOpen, path, err)
	}

	sqlDB, err := sql.Open("sqlite3", readOnlyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreOpen, err)
	}
	sqlDB.SetMaxOpenConns(1)

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreOpen, err)
	}

	store := &Store{db: sqlDB, conn: conn}
	if err := store.unlock(ctx, key); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// readOnlyDSN arma una URI de SQLite; "?", "#" y "%" del path quedan escapados.
func readOnlyDSN(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path), RawQuery: "mode=ro"}
	return u.String()
}

func (s *Store) unlock(ctx context.Context, key string) error {
	if err := validateKey(stripQuotes(key)); err != nil {
		return err
	}
	if _, err := s.conn.ExecContext(ctx, KeyDirective(key)); err != nil {
		return fmt.Errorf("%w: key directive rejected: %v", ErrUnlockFailed, err)
	}

	var tables int
	if err := s.conn.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master").Scan(&tables); err != nil {
		return fmt.Errorf("%w: %v", ErrUnlockFailed, err)
	}
	return nil
}

// Conn devuelve la conexion desbloqueada.
func (s *Store) Conn() *sql.Conn {
	return s.conn
}

func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var connErr error
	if s.conn != nil {
		connErr = s.conn.Close()
	}
	return errors.Join(connErr, s.db.Close())
}

// KeyDirective arma el PRAGMA de SQLCipher para una clave hex cruda.
// config.json puede traer la clave entre comillas; se eliminan todas.
func KeyDirective(key string) string {
	return `PRAGMA key = "x'` + stripQuotes(key) + `'";`
}

func stripQuotes(key string) string {
	return strings.ReplaceAll(key, `"`, "")
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrUnlockFailed)
	}
	if _, err := hex.DecodeString(key); err != nil {
		return fmt.Errorf("%w: key is not a hex string", ErrUnlockFailed)
	}
	return nil
}
