package inventory

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/backstock/internal/model"
)

const dateLayout = "2006-01-02"

// ParseCSV reads grocery items from CSV data. The header row names the
// entity fields (id, description, last_sold, shelf_life, department,
// price, unit, x_for, cost, quantity, reorder_point, date_added) in any
// order; id and description are required, everything else defaults.
func ParseCSV(r io.Reader) ([]model.GroceryItem, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["id"]; !ok {
		return nil, fmt.Errorf("csv header missing id column")
	}
	if _, ok := cols["description"]; !ok {
		return nil, fmt.Errorf("csv header missing description column")
	}

	var items []model.GroceryItem
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", line, err)
		}

		item, err := itemFromRecord(cols, record)
		if err != nil {
			return nil, fmt.Errorf("csv row %d: %w", line, err)
		}
		items = append(items, item)
	}

	return items, nil
}

func itemFromRecord(cols map[string]int, record []string) (model.GroceryItem, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	id, err := strconv.ParseInt(field("id"), 10, 64)
	if err != nil {
		return model.GroceryItem{}, fmt.Errorf("invalid id %q", field("id"))
	}

	description := field("description")
	if description == "" {
		return model.GroceryItem{}, fmt.Errorf("description is required")
	}

	item := model.GroceryItem{
		ID:          id,
		Description: description,
		ShelfLife:   field("shelf_life"),
		Department:  field("department"),
		Price:       field("price"),
		Unit:        field("unit"),
		XFor:        1,
		Cost:        field("cost"),
	}

	if v := field("x_for"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return model.GroceryItem{}, fmt.Errorf("invalid x_for %q", v)
		}
		item.XFor = n
	}
	if v := field("quantity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return model.GroceryItem{}, fmt.Errorf("invalid quantity %q", v)
		}
		item.Quantity = n
	}
	if v := field("reorder_point"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return model.GroceryItem{}, fmt.Errorf("invalid reorder_point %q", v)
		}
		item.ReorderPoint = n
	}
	if v := field("last_sold"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return model.GroceryItem{}, fmt.Errorf("invalid last_sold %q", v)
		}
		item.LastSold = &t
	}

	item.DateAdded = time.Now().UTC().Truncate(24 * time.Hour)
	if v := field("date_added"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return model.GroceryItem{}, fmt.Errorf("invalid date_added %q", v)
		}
		item.DateAdded = t
	}

	return item, nil
}
