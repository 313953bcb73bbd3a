package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"arfs-go/internal/arfs"
	"arfs-go/internal/store/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore keeps entries in a single SQLite table.
type SQLiteStore struct {
	db   *sqlx.DB
	path string
}

// NewSQLiteStore opens the database at path and migrates it to the latest
// schema. path can be a file path or ":memory:".
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating cache database: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection.
func OpenConnection(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: opens a fresh database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

func (s *SQLiteStore) Get(ctx context.Context, bucket, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, "SELECT value FROM entries WHERE bucket = ? AND key = ?", bucket, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read entry: %w", err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, bucket, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (bucket, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (bucket, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		bucket, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, bucket, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE bucket = ? AND key = ?", bucket, key); err != nil {
		return fmt.Errorf("failed to remove entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context, bucket string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE bucket = ?", bucket); err != nil {
		return fmt.Errorf("failed to clear bucket %s: %w", bucket, err)
	}
	return nil
}

func (s *SQLiteStore) Size(ctx context.Context, bucket string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM entries WHERE bucket = ?", bucket); err != nil {
		return 0, fmt.Errorf("failed to count bucket %s: %w", bucket, err)
	}
	return n, nil
}

// ValidateSetup checks that the database is reachable and its schema is
// current.
func (s *SQLiteStore) ValidateSetup(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("cache database not accessible: %w", err)
	}
	return migrations.CheckDBMigrationStatus(s.db.DB)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Compile-time check that SQLiteStore implements arfs.Store interface
var _ arfs.Store = (*SQLiteStore)(nil)
