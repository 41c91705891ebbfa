// Package sqlite is the identity store: a durable local cache of teams,
// players, matches and appearances keyed by (source, source-specific id),
// accreted incrementally across ingestion runs.
package sqlite

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/mvallerand/footgraph/internal/platform/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps one sqlite database file. The pool is capped at a single
// connection: the write layer is not safe for concurrent writers, and a lone
// connection also keeps in-memory databases coherent.
type Store struct {
	db  *sqlx.DB
	log *logging.Logger
}

// InMemory is the path for a throwaway store, used by tests.
const InMemory = ":memory:"

// Open opens (creating if needed) the store at path and applies any pending
// schema migrations.
func Open(ctx context.Context, path string, log *logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.Default()
	}
	if path != InMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	dsn := path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
	db, err := otelsqlx.ConnectContext(ctx, "sqlite3", dsn,
		otelsql.WithAttributes(semconv.DBSystemSqlite),
		otelsql.WithDBName("footgraph"),
		otelsql.WithQueryFormatter(formatQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, log: log}
	if err := store.migrateUp(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate store %s: %w", path, err)
	}
	return store, nil
}

// OpenReadOnly opens an existing store without applying migrations or any
// other write, so merge inputs are never mutated. The file must exist.
func OpenReadOnly(ctx context.Context, path string, log *logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.Default()
	}

	dsn := "file:" + path + "?mode=ro&_foreign_keys=on&_busy_timeout=5000"
	db, err := otelsqlx.ConnectContext(ctx, "sqlite3", dsn,
		otelsql.WithAttributes(semconv.DBSystemSqlite),
		otelsql.WithDBName("footgraph"),
		otelsql.WithQueryFormatter(formatQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open read-only store %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.db.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("init migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Counts reports row totals per entity, used in run summaries.
type Counts struct {
	Teams       int64
	Players     int64
	Matches     int64
	Appearances int64
}

func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var out Counts
	for _, part := range []struct {
		table string
		dst   *int64
	}{
		{"team", &out.Teams},
		{"player", &out.Players},
		{"match", &out.Matches},
		{"appearance", &out.Appearances},
	} {
		if err := s.db.GetContext(ctx, part.dst, "SELECT COUNT(*) FROM "+part.table); err != nil {
			return Counts{}, fmt.Errorf("count %s rows: %w", part.table, err)
		}
	}
	return out, nil
}
