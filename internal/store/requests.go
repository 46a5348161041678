package store

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/s2s-retail/s2s/internal/model"
)

// Warning describes a reconciliation step that was skipped. The status
// write still succeeds; callers surface these to the client and to the
// metrics pipeline.
type Warning struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// Reconciliation skip reasons.
const (
	SkipMissingStore      = "missing_store"
	SkipMissingItem       = "missing_item"
	SkipInsufficientStock = "insufficient_stock"
)

// TransitionOptions tunes UpdateRequestStatus.
//
// Strict upgrades reconciliation warnings to ErrStockConflict and rolls
// the whole transition back. RandInt draws the display/warehouse split
// during outbound deduction; nil uses the process RNG. It must return a
// uniform value in [0, n).
type TransitionOptions struct {
	Strict  bool
	RandInt func(n int) int
}

// CreateRequestInput carries the fields accepted when raising a request.
type CreateRequestInput struct {
	FromStoreID     string
	ToStoreID       string
	Item            string
	Quantity        int
	RequesterName   string
	AdminName       string
	Status          string
	NeedsInspection bool
	Note            string
}

const requestColumns = `id, from_store_id, from_store_name, to_store_id, to_store_name,
	        item, quantity, status, requester_name, admin_name,
	        needs_inspection, note, email_sent, created_at, updated_at`

func scanRequest(row interface{ Scan(...any) error }) (*model.TransferRequest, error) {
	r := &model.TransferRequest{}
	err := row.Scan(&r.ID, &r.FromStoreID, &r.FromStoreName, &r.ToStoreID, &r.ToStoreName,
		&r.Item, &r.Quantity, &r.Status, &r.RequesterName, &r.AdminName,
		&r.NeedsInspection, &r.Note, &r.EmailSent, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// CreateRequest records a new transfer request. Both store IDs must
// resolve. FromStoreID is the requester/receiver, ToStoreID the store
// that holds the stock (see model.TransferRequest).
func CreateRequest(ctx context.Context, db *sql.DB, in CreateRequestInput) (*model.TransferRequest, error) {
	if in.Item == "" || in.Quantity <= 0 {
		return nil, fmt.Errorf("item and a positive quantity are required")
	}
	if in.Status == "" {
		in.Status = model.StatusRequested
	}
	if !model.ValidStatus(in.Status) {
		return nil, fmt.Errorf("unknown status %q", in.Status)
	}

	from, err := GetStore(ctx, db, in.FromStoreID)
	if err != nil {
		return nil, err
	}
	to, err := GetStore(ctx, db, in.ToStoreID)
	if err != nil {
		return nil, err
	}
	if from == nil || to == nil {
		return nil, fmt.Errorf("store: %w", ErrNotFound)
	}

	id := "req-" + uuid.NewString()
	_, err = db.ExecContext(ctx,
		`INSERT INTO transfer_requests
		     (id, from_store_id, from_store_name, to_store_id, to_store_name,
		      item, quantity, status, requester_name, admin_name, needs_inspection, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, from.ID, from.Name, to.ID, to.Name,
		in.Item, in.Quantity, in.Status, in.RequesterName, in.AdminName, in.NeedsInspection, in.Note,
	)
	if err != nil {
		return nil, fmt.Errorf("creating transfer request: %w", err)
	}

	return GetRequest(ctx, db, id)
}

// GetRequest returns a transfer request by ID, or nil if absent.
func GetRequest(ctx context.Context, db dbtx, id string) (*model.TransferRequest, error) {
	r, err := scanRequest(db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM transfer_requests WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transfer request: %w", err)
	}
	return r, nil
}

// ListRequests returns the full ledger, newest first.
func ListRequests(ctx context.Context, db *sql.DB) ([]model.TransferRequest, error) {
	return listRequestsWhere(ctx, db, ``)
}

// ListIncoming returns requests the given store raised (stock headed
// toward it).
func ListIncoming(ctx context.Context, db *sql.DB, storeID string) ([]model.TransferRequest, error) {
	return listRequestsWhere(ctx, db, `WHERE from_store_id = ?`, storeID)
}

// ListOutgoing returns requests other stores raised against the given
// store's stock (it has to ship them).
func ListOutgoing(ctx context.Context, db *sql.DB, storeID string) ([]model.TransferRequest, error) {
	return listRequestsWhere(ctx, db, `WHERE to_store_id = ?`, storeID)
}

func listRequestsWhere(ctx context.Context, db *sql.DB, where string, args ...any) ([]model.TransferRequest, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM transfer_requests `+where+` ORDER BY created_at DESC, id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing transfer requests: %w", err)
	}
	defer rows.Close()

	var requests []model.TransferRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transfer request: %w", err)
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

// MarkRequestEmailSent records the outcome of the notification attempt.
func MarkRequestEmailSent(ctx context.Context, db *sql.DB, id string, sent bool) error {
	_, err := db.ExecContext(ctx,
		`UPDATE transfer_requests SET email_sent = ? WHERE id = ?`, sent, id,
	)
	if err != nil {
		return fmt.Errorf("marking email sent: %w", err)
	}
	return nil
}

// UpdateRequestStatus moves a request to a new lifecycle status and
// applies the inventory side effects for the transition, all inside a
// single transaction:
//
//   - entering in_transit deducts the quantity from the shipping store
//     (to_store_id), split randomly between floor display and warehouse
//     stock;
//   - entering completed adds the quantity to the receiving store
//     (from_store_id), synthesizing the item from the shipper's metadata
//     when the receiver does not carry it yet.
//
// Each side effect fires at most once per request: re-asserting the
// current status is a no-op, and terminal states accept no transitions.
// Skipped reconciliation steps (missing store or item, insufficient
// stock) are returned as warnings while the status write still commits,
// unless opts.Strict is set, in which case the transition rolls back
// with ErrStockConflict.
func UpdateRequestStatus(ctx context.Context, db *sql.DB, id, newStatus string, opts TransitionOptions) (*model.TransferRequest, []Warning, error) {
	if !model.ValidStatus(newStatus) {
		return nil, nil, fmt.Errorf("unknown status %q: %w", newStatus, ErrInvalidTransition)
	}

	randInt := opts.RandInt
	if randInt == nil {
		randInt = rand.IntN
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	req, err := GetRequest(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}
	if req == nil {
		return nil, nil, fmt.Errorf("transfer request %s: %w", id, ErrNotFound)
	}

	if req.Status == newStatus {
		// Idempotent retry; nothing to do, side effects already ran.
		return req, nil, nil
	}
	if !model.CanTransition(req.Status, newStatus) {
		return nil, nil, fmt.Errorf("%s -> %s: %w", req.Status, newStatus, ErrInvalidTransition)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE transfer_requests SET status = ?, updated_at = ? WHERE id = ?`,
		newStatus, now, id,
	); err != nil {
		return nil, nil, fmt.Errorf("updating request status: %w", err)
	}

	var warnings []Warning
	switch newStatus {
	case model.StatusInTransit:
		w, err := deductFromShipper(ctx, tx, req, randInt)
		if err != nil {
			return nil, nil, err
		}
		if w != nil {
			warnings = append(warnings, *w)
		}
	case model.StatusCompleted:
		w, err := receiveAtRequester(ctx, tx, req)
		if err != nil {
			return nil, nil, err
		}
		if w != nil {
			warnings = append(warnings, *w)
		}
	}

	if opts.Strict && len(warnings) > 0 {
		return nil, warnings, fmt.Errorf("%s: %w", warnings[0].Message, ErrStockConflict)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("committing status update: %w", err)
	}

	// Refresh the stock gauge for the line the committed transition
	// touched.
	switch newStatus {
	case model.StatusInTransit:
		if line, err := findMatchingLine(ctx, db, req.ToStoreID, req.Item); err == nil && line != nil {
			recordStockLevel(&line.InventoryItem)
		}
	case model.StatusCompleted:
		if line, err := findMatchingLine(ctx, db, req.FromStoreID, req.Item); err == nil && line != nil {
			recordStockLevel(&line.InventoryItem)
		}
	}

	updated, err := GetRequest(ctx, db, id)
	if err != nil {
		return nil, nil, err
	}
	return updated, warnings, nil
}

// deductFromShipper removes the requested quantity from the shipping
// store's matching inventory line. How many units come off the floor
// versus the warehouse is not known in advance, so the split is drawn
// uniformly. The draw is bounded below by quantity-stock so the
// warehouse share never exceeds what the warehouse holds; the full
// quantity always leaves the store.
func deductFromShipper(ctx context.Context, tx *sql.Tx, req *model.TransferRequest, randInt func(int) int) (*Warning, error) {
	shipper, err := GetStore(ctx, tx, req.ToStoreID)
	if err != nil {
		return nil, err
	}
	if shipper == nil {
		return &Warning{SkipMissingStore,
			fmt.Sprintf("shipping store %s not found, stock not deducted", req.ToStoreID)}, nil
	}

	line, err := findMatchingLine(ctx, tx, req.ToStoreID, req.Item)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return &Warning{SkipMissingItem,
			fmt.Sprintf("item %s not found in store %s, stock not deducted", req.Item, req.ToStoreID)}, nil
	}

	if line.TotalOnHand() < req.Quantity {
		return &Warning{SkipInsufficientStock,
			fmt.Sprintf("insufficient stock for %s: need %d, have %d", req.Item, req.Quantity, line.TotalOnHand())}, nil
	}

	// fromDisplay ranges over [minFromDisplay, maxFromDisplay]; the
	// lower bound keeps fromStock within the warehouse quantity so the
	// deduction always removes exactly req.Quantity units.
	maxFromDisplay := min(line.DisplayQuantity, req.Quantity)
	minFromDisplay := max(0, req.Quantity-line.StockQuantity)
	fromDisplay := minFromDisplay + randInt(maxFromDisplay-minFromDisplay+1)
	fromStock := req.Quantity - fromDisplay

	// With the bounds above both results are already non-negative; the
	// clamps only matter if quantities were corrupted concurrently.
	newDisplay := max(0, line.DisplayQuantity-fromDisplay)
	newStock := max(0, line.StockQuantity-fromStock)

	if _, err := tx.ExecContext(ctx,
		`UPDATE inventory SET display_quantity = ?, stock_quantity = ? WHERE rowid = ?`,
		newDisplay, newStock, line.rowID,
	); err != nil {
		return nil, fmt.Errorf("deducting shipper stock: %w", err)
	}
	return nil, nil
}

// receiveAtRequester books the shipped quantity into the receiving
// store's warehouse stock, creating the line from the shipper's item
// metadata when the receiver does not carry the item yet.
func receiveAtRequester(ctx context.Context, tx *sql.Tx, req *model.TransferRequest) (*Warning, error) {
	receiver, err := GetStore(ctx, tx, req.FromStoreID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return &Warning{SkipMissingStore,
			fmt.Sprintf("receiving store %s not found, stock not added", req.FromStoreID)}, nil
	}

	line, err := findMatchingLine(ctx, tx, req.FromStoreID, req.Item)
	if err != nil {
		return nil, err
	}
	if line != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE inventory SET stock_quantity = stock_quantity + ? WHERE rowid = ?`,
			req.Quantity, line.rowID,
		); err != nil {
			return nil, fmt.Errorf("adding receiver stock: %w", err)
		}
		return nil, nil
	}

	// Receiver doesn't carry the item; clone metadata from the shipper.
	src, err := findMatchingLine(ctx, tx, req.ToStoreID, req.Item)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return &Warning{SkipMissingItem,
			fmt.Sprintf("item %s not found in either store, nothing created", req.Item)}, nil
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO inventory (store_id, item_id, category, name, color, size, stock_quantity, display_quantity)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		req.FromStoreID, src.ID, src.Category, src.Name, src.Color, src.Size, req.Quantity,
	); err != nil {
		return nil, fmt.Errorf("creating receiver inventory line: %w", err)
	}
	return nil, nil
}
