package places

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const placeCacheSchema = `
	CREATE TABLE IF NOT EXISTS place_cache (
		coord_key  TEXT PRIMARY KEY,
		place_name TEXT NULL
	)`

const upsertPlace = `
	INSERT INTO place_cache (coord_key, place_name)
	VALUES (?, ?)
	ON CONFLICT (coord_key) DO UPDATE SET place_name = excluded.place_name`

type placeRow struct {
	Key  string         `db:"coord_key"`
	Name sql.NullString `db:"place_name"`
}

// SQLStore keeps the cache in a place_cache table. The driver is "sqlite"
// (modernc) or "postgres" (lib/pq); both accept the same upsert.
type SQLStore struct {
	*MemoryStore
	db *sqlx.DB
}

// OpenSQLStore connects, creates the table when missing and loads every row.
func OpenSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, &CacheIOError{Op: "open", Path: driver, Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &CacheIOError{Op: "open", Path: driver, Err: err}
	}
	if driver == "sqlite" {
		// A single writer avoids SQLITE_BUSY from the pool.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, placeCacheSchema); err != nil {
		db.Close()
		return nil, &CacheIOError{Op: "open", Path: driver, Err: fmt.Errorf("failed to create schema: %w", err)}
	}

	var rows []placeRow
	if err := db.SelectContext(ctx, &rows, `SELECT coord_key, place_name FROM place_cache`); err != nil {
		db.Close()
		return nil, &CacheIOError{Op: "load", Path: driver, Err: err}
	}

	s := &SQLStore{MemoryStore: NewMemoryStore(), db: db}
	entries := make(map[string]string, len(rows))
	for _, r := range rows {
		entries[r.Key] = r.Name.String
	}
	s.load(entries)
	return s, nil
}

// Flush upserts changed entries in one transaction.
func (s *SQLStore) Flush(ctx context.Context) error {
	written := s.pending()
	if len(written) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &CacheIOError{Op: "flush", Path: s.db.DriverName(), Err: err}
	}
	query := tx.Rebind(upsertPlace)
	for key, name := range written {
		value := sql.NullString{String: name, Valid: name != ""}
		if _, err := tx.ExecContext(ctx, query, key, value); err != nil {
			tx.Rollback()
			return &CacheIOError{Op: "flush", Path: s.db.DriverName(), Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &CacheIOError{Op: "flush", Path: s.db.DriverName(), Err: err}
	}

	s.markClean(written)
	return nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
