package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/s2s-retail/s2s/internal/model"
)

// Sentinel errors shared across the store package.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrStockConflict     = errors.New("stock conflict")
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so lookups can run
// inside or outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateStore creates a store with a fixed identifier.
func CreateStore(ctx context.Context, db *sql.DB, id, name, email string) (*model.Store, error) {
	_, err := db.ExecContext(ctx,
		`INSERT INTO stores (id, name, email) VALUES (?, ?, ?)`,
		id, name, email,
	)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}
	return GetStore(ctx, db, id)
}

// GetStore returns a store by ID, or nil if it does not exist.
func GetStore(ctx context.Context, db dbtx, id string) (*model.Store, error) {
	s := &model.Store{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM stores WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.Email, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting store: %w", err)
	}
	return s, nil
}

// ListStores returns all stores.
func ListStores(ctx context.Context, db *sql.DB) ([]model.Store, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, email, created_at FROM stores ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing stores: %w", err)
	}
	defer rows.Close()

	var stores []model.Store
	for rows.Next() {
		var s model.Store
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning store: %w", err)
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}
