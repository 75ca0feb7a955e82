// Package report computes inventory summary metrics from an in-memory
// snapshot of the grocery items table.
//
// Build takes the items as an explicit argument on purpose: handlers read
// the snapshot through their own store handle and pass it in, so the
// aggregation never depends on ambient request or database state.
package report

import (
	"strconv"
	"strings"

	"github.com/dukerupert/backstock/internal/model"
)

// Data is the report payload shared by the HTML analytics page and the
// JSON data endpoint.
type Data struct {
	TotalItems      int                `json:"total_items"`
	TotalValue      float64            `json:"total_value"`
	TotalCost       float64            `json:"total_cost"`
	OutOfStockCount int                `json:"out_of_stock_count"`
	LowStockCount   int                `json:"low_stock_count"`
	InStockCount    int                `json:"in_stock_count"`
	DeptCounts      map[string]int     `json:"dept_counts"`
	DeptValues      map[string]float64 `json:"dept_values"`
}

// Build aggregates the given items. It returns nil when there are no
// items; callers render that as the explicit "no data" state instead of
// an empty report.
func Build(items []model.GroceryItem) *Data {
	if len(items) == 0 {
		return nil
	}

	d := &Data{
		TotalItems: len(items),
		DeptCounts: make(map[string]int),
		DeptValues: make(map[string]float64),
	}

	for _, item := range items {
		price := parseCurrency(item.Price)
		cost := parseCurrency(item.Cost)
		qty := float64(item.Quantity)

		d.TotalValue += price * qty
		d.TotalCost += cost * qty

		switch {
		case item.OutOfStock():
			d.OutOfStockCount++
		case item.LowStock():
			d.LowStockCount++
		default:
			d.InStockCount++
		}

		dept := item.Department
		if dept == "" {
			dept = "Uncategorized"
		}
		d.DeptCounts[dept]++
		d.DeptValues[dept] += price * qty
	}

	return d
}

// parseCurrency reads string-encoded currency values like "$3.99" or
// "3.99". Values that do not parse contribute zero rather than failing
// the whole report.
func parseCurrency(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
