package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/s2s-retail/s2s/internal/model"
)

// seedStores are the chain's branches, created at init time. Stores are
// never deleted at runtime.
var seedStores = []model.Store{
	{ID: "store-nowon", Name: "노원점", Email: "nowon@s2s-retail.kr"},
	{ID: "store-gangnam", Name: "강남점", Email: "gangnam@s2s-retail.kr"},
	{ID: "store-hongdae", Name: "홍대점", Email: "hongdae@s2s-retail.kr"},
	{ID: "store-jamsil", Name: "잠실점", Email: "jamsil@s2s-retail.kr"},
	{ID: "store-busan", Name: "부산점", Email: "busan@s2s-retail.kr"},
	{ID: "store-daegu", Name: "대구점", Email: "daegu@s2s-retail.kr"},
}

// seedItems is a small starting inventory so a fresh install is usable
// right away.
var seedItems = map[string][]model.InventoryItem{
	"store-gangnam": {
		{ID: "OUTERWEAR_BROWN", Category: "OUTERWEAR", Name: "울 코트", Color: "BROWN", Size: "M", StockQuantity: 5, DisplayQuantity: 3},
		{ID: "TOP_WHITE", Category: "TOP", Name: "옥스포드 셔츠", Color: "WHITE", Size: "L", StockQuantity: 12, DisplayQuantity: 4},
		{ID: "ACC_BLACK", Category: "ACC", Name: "가죽 벨트", Color: "BLACK", Size: "FREE", StockQuantity: 20, DisplayQuantity: 2},
	},
	"store-hongdae": {
		{ID: "OUTERWEAR_BROWN", Category: "OUTERWEAR", Name: "울 코트", Color: "BROWN", Size: "M", StockQuantity: 2, DisplayQuantity: 1},
		{ID: "BOTTOM_NAVY", Category: "BOTTOM", Name: "치노 팬츠", Color: "NAVY", Size: "30", StockQuantity: 8, DisplayQuantity: 3},
	},
	"store-nowon": {
		{ID: "TOP_WHITE", Category: "TOP", Name: "옥스포드 셔츠", Color: "WHITE", Size: "L", StockQuantity: 6, DisplayQuantity: 2},
	},
}

// SeedDemoData inserts the branch stores and their starting inventory.
// It is idempotent: stores that already exist are left alone.
func SeedDemoData(ctx context.Context, db *sql.DB) error {
	for _, s := range seedStores {
		_, err := db.ExecContext(ctx,
			`INSERT OR IGNORE INTO stores (id, name, email) VALUES (?, ?, ?)`,
			s.ID, s.Name, s.Email,
		)
		if err != nil {
			return fmt.Errorf("seeding store %s: %w", s.ID, err)
		}
	}

	for storeID, items := range seedItems {
		for _, item := range items {
			var count int
			err := db.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM inventory WHERE store_id = ? AND item_id = ?`,
				storeID, item.ID,
			).Scan(&count)
			if err != nil {
				return fmt.Errorf("checking seed item: %w", err)
			}
			if count > 0 {
				continue
			}
			if _, err := AddInventoryItem(ctx, db, storeID, item); err != nil {
				return fmt.Errorf("seeding inventory for %s: %w", storeID, err)
			}
		}
	}

	return nil
}
