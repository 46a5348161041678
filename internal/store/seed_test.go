package store

import (
	"context"
	"testing"

	"github.com/s2s-retail/s2s/internal/db"
)

func TestSeedDemoDataIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := SeedDemoData(ctx, database); err != nil {
		t.Fatalf("SeedDemoData: %v", err)
	}

	stores, err := ListStores(ctx, database)
	if err != nil {
		t.Fatalf("ListStores: %v", err)
	}
	if len(stores) != len(seedStores) {
		t.Fatalf("expected %d stores, got %d", len(seedStores), len(stores))
	}

	items, _ := GetStoreInventory(ctx, database, "store-gangnam")
	firstCount := len(items)
	if firstCount == 0 {
		t.Fatal("expected seeded inventory for store-gangnam")
	}

	// Running the seed again must not duplicate anything.
	if err := SeedDemoData(ctx, database); err != nil {
		t.Fatalf("second SeedDemoData: %v", err)
	}
	stores, _ = ListStores(ctx, database)
	if len(stores) != len(seedStores) {
		t.Errorf("stores duplicated on reseed: %d", len(stores))
	}
	items, _ = GetStoreInventory(ctx, database, "store-gangnam")
	if len(items) != firstCount {
		t.Errorf("inventory duplicated on reseed: %d vs %d", len(items), firstCount)
	}
}
