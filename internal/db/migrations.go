package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema
// creation. Each migration must be idempotent. Append new migrations at
// the end.
var migrations = []string{
	// Migration 1: backfill normalized item ids for legacy inventory rows
	// that were imported without one. The dual-match lookup still covers
	// rows written by older clients, this just shrinks the legacy surface.
	`UPDATE inventory SET item_id = category || '_' || color
	     WHERE item_id = '' AND category != '' AND color != ''`,
}

// Migrate creates the schema and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
