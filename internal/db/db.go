// Package db owns the SQLite connection, schema, and migrations for
// the store, inventory, transfer ledger, and repair tables.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database connection and applies the connection
// pragmas. Status transitions run short read-modify-write transactions
// against the inventory table while clients poll it, so the connection
// is tuned for concurrent readers with a busy timeout instead of
// failing on lock contention.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",  // inventory reads don't block ledger writes
		"PRAGMA busy_timeout=5000", // wait out a concurrent transition instead of erroring
		"PRAGMA foreign_keys=ON",   // inventory and users reference stores
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	return db, nil
}
