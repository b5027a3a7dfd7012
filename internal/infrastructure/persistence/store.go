// Package persistence stores cache snapshots in SQLite or Turso, so a
// restart can repopulate the display from last known good content instead
// of hammering every upstream feed at once.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"

	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/types"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
	"github.com/pixelcycle/pixelcycle-go/pkg/config"
)

var tables = []string{
	`CREATE TABLE IF NOT EXISTS cache_snapshot (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		fingerprint TEXT NOT NULL,
		strategy TEXT NOT NULL,
		stored_at TIMESTAMP NOT NULL,
		ttl_seconds INTEGER NOT NULL,
		saved_at TIMESTAMP NOT NULL
	)`,
}

// Store wraps the snapshot database connection.
type Store struct {
	db       *sql.DB
	logger   *logging.ChanneledLogger
	source   string
	useTurso bool
}

// NewStore opens the snapshot database. Turso is used when configured,
// otherwise a local SQLite file under the application home directory.
func NewStore(logger *logging.ChanneledLogger) (*Store, error) {
	if config.TursoEnabled && config.TursoDatabaseURL != "" && config.TursoAuthToken != "" {
		connStr := config.TursoDatabaseURL + "?authToken=" + config.TursoAuthToken
		return Open("libsql", connStr, logger)
	}

	if err := os.MkdirAll(filepath.Dir(config.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return Open("sqlite3", config.DBPath, logger)
}

// Open establishes a snapshot store on the named driver and creates the
// schema when missing.
func Open(driverName, dataSourceName string, logger *logging.ChanneledLogger) (*Store, error) {
	start := time.Now()

	conn, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("snapshot database ping failed: %w", err)
	}

	conn.SetMaxOpenConns(config.DBMaxOpenConns)
	conn.SetMaxIdleConns(config.DBMaxIdleConns)

	store := &Store{db: conn, logger: logger, source: dataSourceName, useTurso: driverName == "libsql"}
	if err := store.createSchema(); err != nil {
		conn.Close()
		return nil, err
	}

	if logger != nil {
		logger.Snapshot().Info("Snapshot store ready",
			"backend", store.ConnectionInfo(), "duration", time.Since(start).String())
	}
	return store, nil
}

func (s *Store) createSchema() error {
	for _, tableSQL := range tables {
		if _, err := s.db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create snapshot table: %w", err)
		}
	}
	return nil
}

// SaveAll replaces the stored snapshot with the given entries in one
// transaction. An empty export clears the table.
func (s *Store) SaveAll(ctx context.Context, entries []types.ExportedEntry) error {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cache_snapshot"); err != nil {
		return fmt.Errorf("failed to clear previous snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cache_snapshot (key, payload, fingerprint, strategy, stored_at, ttl_seconds, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	savedAt := time.Now().UTC()
	for _, entry := range entries {
		if _, err := stmt.ExecContext(ctx,
			entry.Key, entry.Payload, entry.Fingerprint, string(entry.Strategy),
			entry.StoredAt, entry.TTLSeconds, savedAt); err != nil {
			return fmt.Errorf("failed to insert snapshot entry %s: %w", entry.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	if s.logger != nil {
		s.logger.Snapshot().Info("Cache snapshot saved",
			"entries", len(entries), "duration", time.Since(start).String())
	}
	return nil
}

// LoadAll returns every stored snapshot entry.
func (s *Store) LoadAll(ctx context.Context) ([]types.ExportedEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, payload, fingerprint, strategy, stored_at, ttl_seconds
		 FROM cache_snapshot`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer rows.Close()

	var entries []types.ExportedEntry
	for rows.Next() {
		var entry types.ExportedEntry
		var strategy string
		if err := rows.Scan(&entry.Key, &entry.Payload, &entry.Fingerprint,
			&strategy, &entry.StoredAt, &entry.TTLSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot entry: %w", err)
		}
		entry.Strategy = types.Strategy(strategy)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot rows failed: %w", err)
	}
	return entries, nil
}

// ConnectionInfo describes the active backend for startup logs and health.
func (s *Store) ConnectionInfo() string {
	if s.useTurso {
		return "Turso"
	}
	return fmt.Sprintf("SQLite (%s)", s.source)
}

// Health reports snapshot store status for the health endpoint.
func (s *Store) Health() map[string]any {
	status := "healthy"
	if err := s.db.Ping(); err != nil {
		status = "unreachable"
	}
	return map[string]any{
		"status":  status,
		"backend": s.ConnectionInfo(),
	}
}

// Close releases the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
