package model

import "time"

// GroceryItem is a single row in the grocery_items inventory table.
// The ID is assigned by whoever creates the item (form, CSV import, or
// random generation) — the database never auto-generates it.
type GroceryItem struct {
	ID           int64      `json:"id"`
	Description  string     `json:"description"`
	LastSold     *time.Time `json:"last_sold"`
	ShelfLife    string     `json:"shelf_life"`
	Department   string     `json:"department"`
	Price        string     `json:"price"`
	Unit         string     `json:"unit"`
	XFor         int        `json:"x_for"`
	Cost         string     `json:"cost"`
	Quantity     int        `json:"quantity"`
	ReorderPoint int        `json:"reorder_point"`
	DateAdded    time.Time  `json:"date_added"`
}

// OutOfStock reports whether the item has no units on hand.
func (g GroceryItem) OutOfStock() bool {
	return g.Quantity == 0
}

// LowStock reports whether the item is at or below its reorder point
// without being fully out of stock.
func (g GroceryItem) LowStock() bool {
	return g.Quantity > 0 && g.Quantity <= g.ReorderPoint
}
