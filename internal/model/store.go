package model

import "time"

// Store represents a retail store that holds inventory.
type Store struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// InventoryItem is one inventory line inside a store. Quantities are
// split between warehouse stock and units on the sales floor.
//
// ID conventionally has the form {CATEGORY}_{COLOR} but legacy rows may
// carry an empty ID, in which case the item is addressed by its
// name_color composite key instead.
type InventoryItem struct {
	StoreID         string `json:"-"`
	ID              string `json:"id"`
	Category        string `json:"category,omitempty"`
	Name            string `json:"name"`
	Color           string `json:"color,omitempty"`
	Size            string `json:"size,omitempty"`
	StockQuantity   int    `json:"stockQuantity"`
	DisplayQuantity int    `json:"displayQuantity"`
	ImageMime       string `json:"imageMime,omitempty"`
}

// CompositeKey is the legacy name_color identifier used when ID is absent.
func (i *InventoryItem) CompositeKey() string {
	return i.Name + "_" + i.Color
}

// TotalOnHand is the combined warehouse and floor quantity.
func (i *InventoryItem) TotalOnHand() int {
	return i.StockQuantity + i.DisplayQuantity
}

// SearchResult is one inventory hit from a cross-store keyword search.
type SearchResult struct {
	StoreID    string        `json:"storeId"`
	StoreName  string        `json:"storeName"`
	StoreEmail string        `json:"storeEmail"`
	Item       InventoryItem `json:"item"`
}
