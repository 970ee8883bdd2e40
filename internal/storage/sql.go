package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/spellingtrainer/schemas"
)

const defaultSQLTimeout = 5 * time.Second

// Dialect holds what differs between SQL drivers.
type Dialect struct {
	Name string
	// MigrationPattern selects the files of schemas.Migrations for this driver.
	MigrationPattern string
	UpsertQuery      string
}

var (
	SQLiteDialect = Dialect{
		Name:             "sqlite3",
		MigrationPattern: "migrations/*.sqlite.sql",
		UpsertQuery: `INSERT INTO kv_entries (entry_key, entry_value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(entry_key) DO UPDATE SET entry_value = excluded.entry_value, updated_at = CURRENT_TIMESTAMP`,
	}

	MySQLDialect = Dialect{
		Name:             "mysql",
		MigrationPattern: "migrations/*.mysql.sql",
		UpsertQuery: `INSERT INTO kv_entries (entry_key, entry_value) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE entry_value = VALUES(entry_value)`,
	}
)

// SQLStorage stores keys in the kv_entries table.
type SQLStorage struct {
	db      *sqlx.DB
	dialect Dialect
	timeout time.Duration
}

func NewSQLStorage(db *sqlx.DB, dialect Dialect) *SQLStorage {
	return &SQLStorage{
		db:      db,
		dialect: dialect,
		timeout: defaultSQLTimeout,
	}
}

// Migrate applies the embedded migrations of the dialect in file name order.
func (s *SQLStorage) Migrate(ctx context.Context) error {
	files, err := fs.Glob(schemas.Migrations, s.dialect.MigrationPattern)
	if err != nil {
		return fmt.Errorf("fs.Glob(%s) > %w", s.dialect.MigrationPattern, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no migrations match %s", s.dialect.MigrationPattern)
	}
	sort.Strings(files)

	for _, file := range files {
		query, err := fs.ReadFile(schemas.Migrations, file)
		if err != nil {
			return fmt.Errorf("fs.ReadFile(%s) > %w", file, err)
		}
		if _, err := s.db.ExecContext(ctx, string(query)); err != nil {
			return fmt.Errorf("db.ExecContext(%s) > %w", file, err)
		}
	}
	return nil
}

func (s *SQLStorage) Get(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var value string
	err := s.db.GetContext(ctx, &value, "SELECT entry_value FROM kv_entries WHERE entry_key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("db.GetContext(kv_entry %s) > %w", key, err)
	}
	return value, nil
}

func (s *SQLStorage) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, s.dialect.UpsertQuery, key, value); err != nil {
		return fmt.Errorf("db.ExecContext(upsert kv_entry %s) > %w", key, err)
	}
	return nil
}

func (s *SQLStorage) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv_entries WHERE entry_key = ?", key); err != nil {
		return fmt.Errorf("db.ExecContext(delete kv_entry %s) > %w", key, err)
	}
	return nil
}
