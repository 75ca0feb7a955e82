package inventory

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/dukerupert/backstock/internal/model"
)

// corpusEntry is one template the random generator draws from. Prices and
// costs are cents so the generated currency strings stay well-formed.
type corpusEntry struct {
	description string
	department  string
	unit        string
	shelfLife   string
	minCents    int
	maxCents    int
	margin      float64
}

var corpus = []corpusEntry{
	{"Whole Milk", "Dairy", "gal", "7d", 299, 499, 0.6},
	{"Greek Yogurt", "Dairy", "ea", "14d", 99, 189, 0.55},
	{"Cheddar Cheese", "Dairy", "lb", "30d", 449, 799, 0.5},
	{"Large Eggs", "Dairy", "doz", "21d", 249, 459, 0.65},
	{"Sourdough Bread", "Bakery", "loaf", "5d", 349, 599, 0.45},
	{"Bagels", "Bakery", "pk", "7d", 299, 449, 0.5},
	{"Croissants", "Bakery", "pk", "3d", 399, 649, 0.4},
	{"Bananas", "Produce", "lb", "5d", 49, 79, 0.55},
	{"Fuji Apples", "Produce", "lb", "14d", 129, 249, 0.5},
	{"Romaine Lettuce", "Produce", "ea", "7d", 179, 299, 0.5},
	{"Roma Tomatoes", "Produce", "lb", "7d", 99, 199, 0.45},
	{"Baby Carrots", "Produce", "bag", "14d", 149, 229, 0.55},
	{"Avocados", "Produce", "ea", "5d", 99, 199, 0.4},
	{"Chicken Breast", "Meat", "lb", "3d", 299, 549, 0.55},
	{"Ground Beef", "Meat", "lb", "3d", 399, 699, 0.5},
	{"Atlantic Salmon", "Seafood", "lb", "2d", 899, 1399, 0.45},
	{"Frozen Peas", "Frozen", "bag", "365d", 129, 229, 0.6},
	{"Vanilla Ice Cream", "Frozen", "qt", "180d", 349, 599, 0.5},
	{"Frozen Pizza", "Frozen", "ea", "270d", 449, 799, 0.45},
	{"Spaghetti", "Pantry", "box", "720d", 99, 199, 0.6},
	{"Marinara Sauce", "Pantry", "jar", "540d", 199, 349, 0.55},
	{"Basmati Rice", "Pantry", "bag", "720d", 399, 799, 0.6},
	{"Black Beans", "Pantry", "can", "720d", 79, 149, 0.65},
	{"Olive Oil", "Pantry", "btl", "540d", 699, 1299, 0.5},
	{"Orange Juice", "Beverages", "ctn", "14d", 299, 499, 0.55},
	{"Sparkling Water", "Beverages", "pk", "365d", 349, 599, 0.6},
	{"Cold Brew Coffee", "Beverages", "btl", "60d", 399, 649, 0.5},
	{"Tortilla Chips", "Snacks", "bag", "90d", 249, 429, 0.55},
	{"Trail Mix", "Snacks", "bag", "180d", 399, 699, 0.5},
	{"Granola Bars", "Snacks", "box", "180d", 299, 549, 0.55},
	{"Paper Towels", "Household", "pk", "999d", 599, 1199, 0.5},
	{"Dish Soap", "Household", "btl", "999d", 249, 449, 0.55},
	{"Laundry Detergent", "Household", "btl", "999d", 899, 1599, 0.5},
}

// RandomItems generates n synthetic grocery items drawn from the fixed
// corpus. Ids are left unset; the store assigns them at insert time so
// they cannot race a concurrent import.
func RandomItems(n int) []model.GroceryItem {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	items := make([]model.GroceryItem, 0, n)
	for i := 0; i < n; i++ {
		entry := corpus[rand.IntN(len(corpus))]

		priceCents := entry.minCents + rand.IntN(entry.maxCents-entry.minCents+1)
		costCents := int(float64(priceCents) * entry.margin)
		quantity := rand.IntN(40)
		reorder := 5 + rand.IntN(10)

		xFor := 1
		if rand.IntN(10) == 0 {
			xFor = 2 + rand.IntN(2) // the occasional "2 for" / "3 for" deal
		}

		var lastSold *time.Time
		if rand.IntN(4) != 0 {
			t := today.AddDate(0, 0, -rand.IntN(30))
			lastSold = &t
		}

		items = append(items, model.GroceryItem{
			Description:  entry.description,
			LastSold:     lastSold,
			ShelfLife:    entry.shelfLife,
			Department:   entry.department,
			Price:        formatCents(priceCents),
			Unit:         entry.unit,
			XFor:         xFor,
			Cost:         formatCents(costCents),
			Quantity:     quantity,
			ReorderPoint: reorder,
			DateAdded:    today,
		})
	}
	return items
}

func formatCents(cents int) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
