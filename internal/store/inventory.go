package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/s2s-retail/s2s/internal/metrics"
	"github.com/s2s-retail/s2s/internal/model"
)

// recordStockLevel refreshes the exported stock gauge for one line.
// Legacy rows without an item_id are labelled by their composite key.
func recordStockLevel(item *model.InventoryItem) {
	key := item.ID
	if key == "" {
		key = item.CompositeKey()
	}
	metrics.StockLevel.WithLabelValues(item.StoreID, key).Set(float64(item.TotalOnHand()))
}

// invItem pairs an inventory line with its rowid so that legacy rows
// (empty item_id) can still be addressed for updates.
type invItem struct {
	rowID int64
	model.InventoryItem
}

const itemColumns = `rowid, store_id, item_id, category, name, color, size,
	        stock_quantity, display_quantity, COALESCE(image_mime, '')`

func scanInvItem(row interface{ Scan(...any) error }) (*invItem, error) {
	i := &invItem{}
	err := row.Scan(&i.rowID, &i.StoreID, &i.ID, &i.Category, &i.Name, &i.Color,
		&i.Size, &i.StockQuantity, &i.DisplayQuantity, &i.ImageMime)
	if err != nil {
		return nil, err
	}
	return i, nil
}

// GetStoreInventory returns a store's inventory lines in insertion order.
func GetStoreInventory(ctx context.Context, db *sql.DB, storeID string) ([]model.InventoryItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM inventory WHERE store_id = ? ORDER BY rowid`,
		storeID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		item, err := scanInvItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning inventory item: %w", err)
		}
		items = append(items, item.InventoryItem)
	}
	return items, rows.Err()
}

// FindMatchingItem locates an inventory line inside a store by key.
// Matching policy, in priority order: exact item_id match, then the
// legacy name_color composite. The first match in insertion order wins;
// changing that order would change which of two duplicate lines gets
// adjusted during reconciliation.
func FindMatchingItem(ctx context.Context, db dbtx, storeID, key string) (*model.InventoryItem, error) {
	item, err := findMatchingLine(ctx, db, storeID, key)
	if err != nil || item == nil {
		return nil, err
	}
	return &item.InventoryItem, nil
}

func findMatchingLine(ctx context.Context, db dbtx, storeID, key string) (*invItem, error) {
	item, err := scanInvItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM inventory
		 WHERE store_id = ? AND item_id = ? AND item_id != ''
		 ORDER BY rowid LIMIT 1`,
		storeID, key,
	))
	if err == nil {
		return item, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("matching item by id: %w", err)
	}

	// Legacy fallback: name_color composite key.
	item, err = scanInvItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM inventory
		 WHERE store_id = ? AND name || '_' || color = ?
		 ORDER BY rowid LIMIT 1`,
		storeID, key,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("matching item by composite key: %w", err)
	}
	return item, nil
}

// AddInventoryItem appends a new inventory line to a store. An empty ID
// gets a generated one so new rows never depend on the legacy composite
// match.
func AddInventoryItem(ctx context.Context, db *sql.DB, storeID string, item model.InventoryItem) (*model.InventoryItem, error) {
	s, err := GetStore(ctx, db, storeID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("store %s: %w", storeID, ErrNotFound)
	}

	if item.ID == "" {
		item.ID = "item-" + uuid.NewString()
	}
	if item.StockQuantity < 0 || item.DisplayQuantity < 0 {
		return nil, fmt.Errorf("quantities must be non-negative")
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO inventory (store_id, item_id, category, name, color, size, stock_quantity, display_quantity)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		storeID, item.ID, item.Category, item.Name, item.Color, item.Size,
		item.StockQuantity, item.DisplayQuantity,
	)
	if err != nil {
		return nil, fmt.Errorf("adding inventory item: %w", err)
	}

	item.StoreID = storeID
	recordStockLevel(&item)
	return &item, nil
}

// InventoryItemUpdate holds the fields a PATCH may change. Nil fields
// are left untouched.
type InventoryItemUpdate struct {
	Name            *string
	StockQuantity   *int
	DisplayQuantity *int
}

// UpdateInventoryItem applies a partial update to an inventory line,
// addressed by item key (id or legacy composite).
func UpdateInventoryItem(ctx context.Context, db *sql.DB, storeID, key string, upd InventoryItemUpdate) (*model.InventoryItem, error) {
	s, err := GetStore(ctx, db, storeID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("store %s: %w", storeID, ErrNotFound)
	}

	line, err := findMatchingLine(ctx, db, storeID, key)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, fmt.Errorf("inventory item %s: %w", key, ErrNotFound)
	}

	if upd.Name != nil {
		line.Name = *upd.Name
	}
	if upd.StockQuantity != nil {
		if *upd.StockQuantity < 0 {
			return nil, fmt.Errorf("stockQuantity must be non-negative")
		}
		line.StockQuantity = *upd.StockQuantity
	}
	if upd.DisplayQuantity != nil {
		if *upd.DisplayQuantity < 0 {
			return nil, fmt.Errorf("displayQuantity must be non-negative")
		}
		line.DisplayQuantity = *upd.DisplayQuantity
	}

	_, err = db.ExecContext(ctx,
		`UPDATE inventory SET name = ?, stock_quantity = ?, display_quantity = ? WHERE rowid = ?`,
		line.Name, line.StockQuantity, line.DisplayQuantity, line.rowID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating inventory item: %w", err)
	}
	recordStockLevel(&line.InventoryItem)
	return &line.InventoryItem, nil
}

// SearchInventory scans every store's inventory for lines whose name or
// size contains the keyword, case-insensitively.
func SearchInventory(ctx context.Context, db *sql.DB, keyword string) ([]model.SearchResult, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT s.id, s.name, s.email,
		        inv.store_id, inv.item_id, inv.category, inv.name, inv.color, inv.size,
		        inv.stock_quantity, inv.display_quantity, COALESCE(inv.image_mime, '')
		 FROM inventory inv
		 JOIN stores s ON s.id = inv.store_id
		 ORDER BY s.id, inv.rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("searching inventory: %w", err)
	}
	defer rows.Close()

	needle := strings.ToLower(keyword)
	var results []model.SearchResult
	for rows.Next() {
		var r model.SearchResult
		err := rows.Scan(&r.StoreID, &r.StoreName, &r.StoreEmail,
			&r.Item.StoreID, &r.Item.ID, &r.Item.Category, &r.Item.Name, &r.Item.Color,
			&r.Item.Size, &r.Item.StockQuantity, &r.Item.DisplayQuantity, &r.Item.ImageMime)
		if err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		haystack := strings.ToLower(r.Item.Name + " " + r.Item.Size)
		if strings.Contains(haystack, needle) {
			results = append(results, r)
		}
	}
	return results, rows.Err()
}

// SetItemImage stores a processed photo on an inventory line.
func SetItemImage(ctx context.Context, db *sql.DB, storeID, key string, data []byte, mime string) error {
	line, err := findMatchingLine(ctx, db, storeID, key)
	if err != nil {
		return err
	}
	if line == nil {
		return fmt.Errorf("inventory item %s: %w", key, ErrNotFound)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE inventory SET image = ?, image_mime = ? WHERE rowid = ?`,
		data, mime, line.rowID,
	)
	if err != nil {
		return fmt.Errorf("saving item image: %w", err)
	}
	return nil
}

// GetItemImage returns an inventory line's photo, or nil data if none.
func GetItemImage(ctx context.Context, db *sql.DB, storeID, key string) ([]byte, string, error) {
	line, err := findMatchingLine(ctx, db, storeID, key)
	if err != nil {
		return nil, "", err
	}
	if line == nil {
		return nil, "", fmt.Errorf("inventory item %s: %w", key, ErrNotFound)
	}

	var data []byte
	var mime sql.NullString
	err = db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM inventory WHERE rowid = ?`, line.rowID,
	).Scan(&data, &mime)
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return data, mime.String, nil
}
