package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS stores (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    email      TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS inventory (
    store_id         TEXT NOT NULL REFERENCES stores(id),
    item_id          TEXT NOT NULL DEFAULT '',
    category         TEXT NOT NULL DEFAULT '',
    name             TEXT NOT NULL,
    color            TEXT NOT NULL DEFAULT '',
    size             TEXT NOT NULL DEFAULT '',
    stock_quantity   INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
    display_quantity INTEGER NOT NULL DEFAULT 0 CHECK (display_quantity >= 0),
    image            BLOB,
    image_mime       TEXT
);

CREATE INDEX IF NOT EXISTS idx_inventory_store ON inventory(store_id);

CREATE TABLE IF NOT EXISTS transfer_requests (
    id               TEXT PRIMARY KEY,
    from_store_id    TEXT NOT NULL,
    from_store_name  TEXT NOT NULL DEFAULT '',
    to_store_id      TEXT NOT NULL,
    to_store_name    TEXT NOT NULL DEFAULT '',
    item             TEXT NOT NULL,
    quantity         INTEGER NOT NULL CHECK (quantity > 0),
    status           TEXT NOT NULL DEFAULT 'requested'
        CHECK (status IN ('requested', 'approved', 'in_transit', 'completed', 'rejected')),
    requester_name   TEXT NOT NULL DEFAULT '',
    admin_name       TEXT NOT NULL DEFAULT '',
    needs_inspection INTEGER NOT NULL DEFAULT 0,
    note             TEXT NOT NULL DEFAULT '',
    email_sent       INTEGER NOT NULL DEFAULT 0,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at       DATETIME
);

CREATE INDEX IF NOT EXISTS idx_requests_from_store ON transfer_requests(from_store_id);
CREATE INDEX IF NOT EXISTS idx_requests_to_store ON transfer_requests(to_store_id);

CREATE TABLE IF NOT EXISTS repairs (
    id                TEXT PRIMARY KEY,
    store_id          TEXT NOT NULL,
    customer_name     TEXT NOT NULL DEFAULT '',
    product_id        TEXT NOT NULL DEFAULT '',
    repair_content    TEXT NOT NULL DEFAULT '',
    cost              TEXT NOT NULL DEFAULT '0',
    payment_status    TEXT NOT NULL DEFAULT '미불',
    repair_status     TEXT NOT NULL DEFAULT '수선 전',
    delivered         INTEGER NOT NULL DEFAULT 0,
    notification_sent INTEGER NOT NULL DEFAULT 0,
    sent_at           DATETIME,
    estimated_minutes INTEGER NOT NULL DEFAULT 30,
    completed_at      DATETIME,
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at        DATETIME
);

CREATE INDEX IF NOT EXISTS idx_repairs_store ON repairs(store_id);

CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user')),
    store_id      TEXT REFERENCES stores(id),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
