package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/s2s-retail/s2s/internal/model"
	"github.com/shopspring/decimal"
)

const repairColumns = `id, store_id, customer_name, product_id, repair_content,
	        cost, payment_status, repair_status, delivered, notification_sent,
	        sent_at, estimated_minutes, completed_at, created_at, updated_at`

func scanRepair(row interface{ Scan(...any) error }) (*model.RepairTicket, error) {
	r := &model.RepairTicket{}
	var cost string
	err := row.Scan(&r.ID, &r.StoreID, &r.CustomerName, &r.ProductID, &r.RepairContent,
		&cost, &r.PaymentStatus, &r.RepairStatus, &r.Delivered, &r.NotificationSent,
		&r.SentAt, &r.EstimatedMinutes, &r.CompletedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Cost, err = decimal.NewFromString(cost)
	if err != nil {
		return nil, fmt.Errorf("parsing repair cost %q: %w", cost, err)
	}
	return r, nil
}

// CreateRepair records a new repair ticket.
func CreateRepair(ctx context.Context, db *sql.DB, r model.RepairTicket) (*model.RepairTicket, error) {
	if r.StoreID == "" || r.CustomerName == "" {
		return nil, fmt.Errorf("storeId and customerName are required")
	}
	if r.Cost.IsNegative() {
		return nil, fmt.Errorf("cost must be non-negative")
	}
	if r.ID == "" {
		r.ID = "repair-" + uuid.NewString()
	}
	if r.PaymentStatus == "" {
		r.PaymentStatus = model.PaymentUnpaid
	}
	if r.RepairStatus == "" {
		r.RepairStatus = model.RepairPending
	}
	if r.EstimatedMinutes <= 0 {
		r.EstimatedMinutes = 30
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO repairs
		     (id, store_id, customer_name, product_id, repair_content, cost,
		      payment_status, repair_status, delivered, notification_sent,
		      sent_at, estimated_minutes, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StoreID, r.CustomerName, r.ProductID, r.RepairContent, r.Cost.String(),
		r.PaymentStatus, r.RepairStatus, r.Delivered, r.NotificationSent,
		r.SentAt, r.EstimatedMinutes, r.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating repair: %w", err)
	}

	return GetRepair(ctx, db, r.ID)
}

// GetRepair returns a repair ticket by ID, or nil if absent.
func GetRepair(ctx context.Context, db *sql.DB, id string) (*model.RepairTicket, error) {
	r, err := scanRepair(db.QueryRowContext(ctx,
		`SELECT `+repairColumns+` FROM repairs WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting repair: %w", err)
	}
	return r, nil
}

// ListRepairs returns repair tickets, optionally filtered to one store.
func ListRepairs(ctx context.Context, db *sql.DB, storeID string) ([]model.RepairTicket, error) {
	query := `SELECT ` + repairColumns + ` FROM repairs`
	var args []any
	if storeID != "" {
		query += ` WHERE store_id = ?`
		args = append(args, storeID)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing repairs: %w", err)
	}
	defer rows.Close()

	var repairs []model.RepairTicket
	for rows.Next() {
		r, err := scanRepair(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning repair: %w", err)
		}
		repairs = append(repairs, *r)
	}
	return repairs, rows.Err()
}

// RepairUpdate holds the fields a PATCH may change. Nil fields are left
// untouched.
type RepairUpdate struct {
	CustomerName     *string
	ProductID        *string
	RepairContent    *string
	Cost             *decimal.Decimal
	PaymentStatus    *string
	RepairStatus     *string
	Delivered        *bool
	NotificationSent *bool
	SentAt           *time.Time
	EstimatedMinutes *int
	CompletedAt      *time.Time
}

// UpdateRepair applies a partial update to a repair ticket.
func UpdateRepair(ctx context.Context, db *sql.DB, id string, upd RepairUpdate) (*model.RepairTicket, error) {
	r, err := GetRepair(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("repair %s: %w", id, ErrNotFound)
	}

	if upd.CustomerName != nil {
		r.CustomerName = *upd.CustomerName
	}
	if upd.ProductID != nil {
		r.ProductID = *upd.ProductID
	}
	if upd.RepairContent != nil {
		r.RepairContent = *upd.RepairContent
	}
	if upd.Cost != nil {
		if upd.Cost.IsNegative() {
			return nil, fmt.Errorf("cost must be non-negative")
		}
		r.Cost = *upd.Cost
	}
	if upd.PaymentStatus != nil {
		r.PaymentStatus = *upd.PaymentStatus
	}
	if upd.RepairStatus != nil {
		r.RepairStatus = *upd.RepairStatus
	}
	if upd.Delivered != nil {
		r.Delivered = *upd.Delivered
	}
	if upd.NotificationSent != nil {
		r.NotificationSent = *upd.NotificationSent
	}
	if upd.SentAt != nil {
		r.SentAt = upd.SentAt
	}
	if upd.EstimatedMinutes != nil {
		r.EstimatedMinutes = *upd.EstimatedMinutes
	}
	if upd.CompletedAt != nil {
		r.CompletedAt = upd.CompletedAt
	}

	now := time.Now().UTC()
	_, err = db.ExecContext(ctx,
		`UPDATE repairs SET customer_name = ?, product_id = ?, repair_content = ?,
		     cost = ?, payment_status = ?, repair_status = ?, delivered = ?,
		     notification_sent = ?, sent_at = ?, estimated_minutes = ?,
		     completed_at = ?, updated_at = ?
		 WHERE id = ?`,
		r.CustomerName, r.ProductID, r.RepairContent,
		r.Cost.String(), r.PaymentStatus, r.RepairStatus, r.Delivered,
		r.NotificationSent, r.SentAt, r.EstimatedMinutes,
		r.CompletedAt, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating repair: %w", err)
	}

	return GetRepair(ctx, db, id)
}

// DeleteRepair removes a repair ticket. Unlike the transfer ledger,
// repair history is not retained after deletion.
func DeleteRepair(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM repairs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting repair: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("repair %s: %w", id, ErrNotFound)
	}
	return nil
}
