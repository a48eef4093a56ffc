package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens (creating if needed) the embedded fallback store at path
// and applies its schema.
//
// The connection is configured with:
//   - WAL journal for reads during writes
//   - 5-second busy timeout
//   - foreign key enforcement
//   - immediate transactions, so a checkout takes the write lock up front
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// SQLite supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := newSQLStore(db, sqliteDialect{})
	if err := store.ApplySchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
