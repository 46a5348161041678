package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/s2s-retail/s2s/internal/db"
	"github.com/s2s-retail/s2s/internal/metrics"
	"github.com/s2s-retail/s2s/internal/model"
)

func newStoreWithItems(t *testing.T) *sql.DB {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateStore(ctx, database, "store-a", "A", "a@example.com")
	AddInventoryItem(ctx, database, "store-a", model.InventoryItem{
		ID: "TOP_WHITE", Category: "TOP", Name: "셔츠", Color: "WHITE",
		Size: "L", StockQuantity: 10, DisplayQuantity: 2,
	})
	return database
}

func TestFindMatchingItemByID(t *testing.T) {
	database := newStoreWithItems(t)
	ctx := context.Background()

	item, err := FindMatchingItem(ctx, database, "store-a", "TOP_WHITE")
	if err != nil {
		t.Fatalf("FindMatchingItem: %v", err)
	}
	if item == nil || item.Name != "셔츠" {
		t.Errorf("expected 셔츠, got %+v", item)
	}
}

func TestFindMatchingItemCompositeFallback(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateStore(ctx, database, "store-a", "A", "a@example.com")

	// Legacy row: no item_id, addressable only by name_color.
	_, err := database.ExecContext(ctx,
		`INSERT INTO inventory (store_id, item_id, name, color, size, stock_quantity, display_quantity)
		 VALUES ('store-a', '', '빈티지 자켓', 'BLUE', 'M', 3, 1)`)
	if err != nil {
		t.Fatalf("inserting legacy row: %v", err)
	}

	item, err := FindMatchingItem(ctx, database, "store-a", "빈티지 자켓_BLUE")
	if err != nil {
		t.Fatalf("FindMatchingItem: %v", err)
	}
	if item == nil || item.StockQuantity != 3 {
		t.Errorf("expected legacy row via composite key, got %+v", item)
	}
}

func TestFindMatchingItemPrefersID(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateStore(ctx, database, "store-a", "A", "a@example.com")

	// A row whose composite key collides with another row's item_id.
	AddInventoryItem(ctx, database, "store-a", model.InventoryItem{
		ID: "decoy", Category: "TOP", Name: "TOP", Color: "WHITE", StockQuantity: 1,
	})
	AddInventoryItem(ctx, database, "store-a", model.InventoryItem{
		ID: "TOP_WHITE", Category: "TOP", Name: "셔츠", Color: "WHITE", StockQuantity: 7,
	})

	item, err := FindMatchingItem(ctx, database, "store-a", "TOP_WHITE")
	if err != nil {
		t.Fatalf("FindMatchingItem: %v", err)
	}
	if item == nil || item.ID != "TOP_WHITE" || item.StockQuantity != 7 {
		t.Errorf("expected exact id match to win over composite, got %+v", item)
	}
}

func TestAddInventoryItemGeneratesID(t *testing.T) {
	database := newStoreWithItems(t)
	ctx := context.Background()

	item, err := AddInventoryItem(ctx, database, "store-a", model.InventoryItem{Name: "모자"})
	if err != nil {
		t.Fatalf("AddInventoryItem: %v", err)
	}
	if item.ID == "" {
		t.Error("expected generated id for item without one")
	}
}

func TestAddInventoryItemUnknownStore(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := AddInventoryItem(context.Background(), database, "store-missing", model.InventoryItem{Name: "X"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateInventoryItemPartial(t *testing.T) {
	database := newStoreWithItems(t)
	ctx := context.Background()

	newStock := 4
	item, err := UpdateInventoryItem(ctx, database, "store-a", "TOP_WHITE",
		InventoryItemUpdate{StockQuantity: &newStock})
	if err != nil {
		t.Fatalf("UpdateInventoryItem: %v", err)
	}
	if item.StockQuantity != 4 {
		t.Errorf("expected stock 4, got %d", item.StockQuantity)
	}
	if item.DisplayQuantity != 2 || item.Name != "셔츠" {
		t.Errorf("untouched fields changed: %+v", item)
	}
}

func TestUpdateInventoryItemRejectsNegative(t *testing.T) {
	database := newStoreWithItems(t)

	bad := -1
	_, err := UpdateInventoryItem(context.Background(), database, "store-a", "TOP_WHITE",
		InventoryItemUpdate{StockQuantity: &bad})
	if err == nil {
		t.Error("expected error for negative stock")
	}
}

func TestUpdateInventoryItemNotFound(t *testing.T) {
	database := newStoreWithItems(t)

	name := "x"
	_, err := UpdateInventoryItem(context.Background(), database, "store-a", "NOPE",
		InventoryItemUpdate{Name: &name})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchInventory(t *testing.T) {
	database := newStoreWithItems(t)
	ctx := context.Background()

	CreateStore(ctx, database, "store-b", "B", "b@example.com")
	AddInventoryItem(ctx, database, "store-b", model.InventoryItem{
		ID: "TOP_BLACK", Category: "TOP", Name: "셔츠", Color: "BLACK",
		Size: "M", StockQuantity: 1,
	})

	results, err := SearchInventory(ctx, database, "셔츠")
	if err != nil {
		t.Fatalf("SearchInventory: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected hits in both stores, got %d", len(results))
	}

	// Keyword also matches against size.
	results, err = SearchInventory(ctx, database, "셔츠 m")
	if err != nil {
		t.Fatalf("SearchInventory: %v", err)
	}
	if len(results) != 1 || results[0].StoreID != "store-b" {
		t.Errorf("expected only the size-M hit, got %v", results)
	}

	if results, _ := SearchInventory(ctx, database, "없는상품"); len(results) != 0 {
		t.Errorf("expected no hits, got %v", results)
	}
}

func TestStockLevelGaugeTracksWrites(t *testing.T) {
	database := newStoreWithItems(t)
	ctx := context.Background()

	gauge := metrics.StockLevel.WithLabelValues("store-a", "TOP_WHITE")
	if got := testutil.ToFloat64(gauge); got != 12 {
		t.Fatalf("expected gauge 12 after add, got %v", got)
	}

	newStock := 4
	if _, err := UpdateInventoryItem(ctx, database, "store-a", "TOP_WHITE",
		InventoryItemUpdate{StockQuantity: &newStock}); err != nil {
		t.Fatalf("UpdateInventoryItem: %v", err)
	}
	if got := testutil.ToFloat64(gauge); got != 6 {
		t.Errorf("expected gauge 6 after update, got %v", got)
	}
}

func TestItemImageRoundTrip(t *testing.T) {
	database := newStoreWithItems(t)
	ctx := context.Background()

	if err := SetItemImage(ctx, database, "store-a", "TOP_WHITE", []byte{0xFF, 0xD8}, "image/jpeg"); err != nil {
		t.Fatalf("SetItemImage: %v", err)
	}

	data, mime, err := GetItemImage(ctx, database, "store-a", "TOP_WHITE")
	if err != nil {
		t.Fatalf("GetItemImage: %v", err)
	}
	if len(data) != 2 || mime != "image/jpeg" {
		t.Errorf("unexpected image data: %d bytes, mime %q", len(data), mime)
	}
}
