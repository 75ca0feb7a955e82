package store

import (
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/backstock/internal/database"
	"github.com/dukerupert/backstock/internal/model"
)

func setupTestDB(t *testing.T) *GroceryStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewGroceryStore(db)
}

func testItem(id int64) model.GroceryItem {
	return model.GroceryItem{
		ID:           id,
		Description:  "Whole Milk",
		ShelfLife:    "7d",
		Department:   "Dairy",
		Price:        "$3.99",
		Unit:         "gal",
		XFor:         1,
		Cost:         "$2.40",
		Quantity:     12,
		ReorderPoint: 5,
		DateAdded:    time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestItemCRUD(t *testing.T) {
	s := setupTestDB(t)

	// Create
	item := testItem(1)
	if err := s.Create(item); err != nil {
		t.Fatalf("create item: %v", err)
	}

	// Read
	got, err := s.GetByID(1)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got == nil {
		t.Fatal("expected item, got nil")
	}
	if got.Description != "Whole Milk" {
		t.Errorf("description = %q, want %q", got.Description, "Whole Milk")
	}
	if got.Department != "Dairy" {
		t.Errorf("department = %q, want %q", got.Department, "Dairy")
	}
	if got.Quantity != 12 {
		t.Errorf("quantity = %d, want 12", got.Quantity)
	}
	if got.LastSold != nil {
		t.Errorf("last_sold = %v, want nil", got.LastSold)
	}

	// Update
	got.Quantity = 0
	got.Price = "$4.49"
	lastSold := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	got.LastSold = &lastSold
	updated, err := s.Update(*got)
	if err != nil {
		t.Fatalf("update item: %v", err)
	}
	if updated.Quantity != 0 {
		t.Errorf("updated quantity = %d, want 0", updated.Quantity)
	}
	if updated.Price != "$4.49" {
		t.Errorf("updated price = %q, want %q", updated.Price, "$4.49")
	}
	if updated.LastSold == nil || !updated.LastSold.Equal(lastSold) {
		t.Errorf("updated last_sold = %v, want %v", updated.LastSold, lastSold)
	}

	// Delete
	if err := s.Delete(1); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	got, err = s.GetByID(1)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after delete, got %+v", got)
	}
}

func TestGetByIDMissing(t *testing.T) {
	s := setupTestDB(t)

	got, err := s.GetByID(999)
	if err != nil {
		t.Fatalf("get missing item: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing item, got %+v", got)
	}
}

func TestCreateDuplicateID(t *testing.T) {
	s := setupTestDB(t)

	if err := s.Create(testItem(1)); err != nil {
		t.Fatalf("create item: %v", err)
	}
	if err := s.Create(testItem(1)); err == nil {
		t.Error("expected error inserting duplicate id, got nil")
	}
}

func TestListOrdering(t *testing.T) {
	s := setupTestDB(t)

	for _, id := range []int64{3, 1, 2} {
		if err := s.Create(testItem(id)); err != nil {
			t.Fatalf("create item %d: %v", id, err)
		}
	}

	items, err := s.List()
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, want := range []int64{1, 2, 3} {
		if items[i].ID != want {
			t.Errorf("items[%d].ID = %d, want %d", i, items[i].ID, want)
		}
	}
}

func TestCreateBatchRollback(t *testing.T) {
	s := setupTestDB(t)

	if err := s.Create(testItem(1)); err != nil {
		t.Fatalf("create item: %v", err)
	}

	// Batch containing a duplicate id must roll back entirely.
	batch := []model.GroceryItem{testItem(2), testItem(3), testItem(1)}
	if err := s.CreateBatch(batch); err == nil {
		t.Fatal("expected batch with duplicate id to fail")
	}

	count, err := s.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("count after failed batch = %d, want 1", count)
	}
}

func TestCreateBatchSuccess(t *testing.T) {
	s := setupTestDB(t)

	batch := []model.GroceryItem{testItem(10), testItem(11), testItem(12)}
	if err := s.CreateBatch(batch); err != nil {
		t.Fatalf("create batch: %v", err)
	}

	count, err := s.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestCreateGeneratedAssignsSequentialIDs(t *testing.T) {
	s := setupTestDB(t)

	if err := s.Create(testItem(7)); err != nil {
		t.Fatalf("create item: %v", err)
	}

	gen := make([]model.GroceryItem, 3)
	for i := range gen {
		gen[i] = testItem(0)
	}
	if err := s.CreateGenerated(gen); err != nil {
		t.Fatalf("create generated: %v", err)
	}

	items, err := s.List()
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(items))
	}
	for i, want := range []int64{7, 8, 9, 10} {
		if items[i].ID != want {
			t.Errorf("items[%d].ID = %d, want %d", i, items[i].ID, want)
		}
	}
}

func TestCreateGeneratedEmptyTableStartsAtOne(t *testing.T) {
	s := setupTestDB(t)

	if err := s.CreateGenerated([]model.GroceryItem{testItem(0), testItem(0)}); err != nil {
		t.Fatalf("create generated: %v", err)
	}

	items, err := s.List()
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 2 || items[0].ID != 1 || items[1].ID != 2 {
		t.Fatalf("expected ids 1,2, got %+v", items)
	}
}

func TestCreateGeneratedBatchesNeverCollide(t *testing.T) {
	s := setupTestDB(t)

	// Each batch reads the next free id inside its own transaction, so
	// back-to-back batches extend the sequence instead of overlapping.
	for i := 0; i < 2; i++ {
		if err := s.CreateGenerated([]model.GroceryItem{testItem(0), testItem(0), testItem(0)}); err != nil {
			t.Fatalf("create generated batch %d: %v", i, err)
		}
	}

	items, err := s.List()
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 6 {
		t.Fatalf("expected 6 items, got %d", len(items))
	}
	for i, item := range items {
		if item.ID != int64(i+1) {
			t.Errorf("items[%d].ID = %d, want %d", i, item.ID, i+1)
		}
	}
}

func TestSearchSubstring(t *testing.T) {
	s := setupTestDB(t)

	milk := testItem(1)
	bread := testItem(2)
	bread.Description = "Sourdough Bread"
	bread.Department = "Bakery"
	for _, item := range []model.GroceryItem{milk, bread} {
		if err := s.Create(item); err != nil {
			t.Fatalf("create item %d: %v", item.ID, err)
		}
	}

	items, err := s.Search("description", "Milk")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 1 || items[0].ID != 1 {
		t.Fatalf("search by description returned %d items, want item 1", len(items))
	}

	// Substring match, not exact.
	items, err = s.Search("department", "air")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 1 || items[0].Department != "Dairy" {
		t.Fatalf("substring department search returned %d items", len(items))
	}
}

func TestSearchExactIntColumn(t *testing.T) {
	s := setupTestDB(t)

	item := testItem(1)
	item.Quantity = 12
	if err := s.Create(item); err != nil {
		t.Fatalf("create item: %v", err)
	}

	items, err := s.Search("quantity", "12")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("exact quantity search returned %d items, want 1", len(items))
	}

	// "1" is not a substring match on an integer column.
	items, err = s.Search("quantity", "1")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("quantity=1 search returned %d items, want 0", len(items))
	}
}

func TestSearchUnknownColumn(t *testing.T) {
	s := setupTestDB(t)

	if err := s.Create(testItem(1)); err != nil {
		t.Fatalf("create item: %v", err)
	}

	items, err := s.Search("date_added", "2026")
	if err != nil {
		t.Fatalf("search unknown column: %v", err)
	}
	if items != nil {
		t.Errorf("unknown column should return nil, got %d items", len(items))
	}
}

func TestSearchInjectionAttempt(t *testing.T) {
	s := setupTestDB(t)

	if err := s.Create(testItem(1)); err != nil {
		t.Fatalf("create item: %v", err)
	}

	// A hostile column name never reaches SQL.
	items, err := s.Search("description; DROP TABLE grocery_items;--", "x")
	if err != nil {
		t.Fatalf("search with hostile column: %v", err)
	}
	if items != nil {
		t.Errorf("hostile column should return nil, got %d items", len(items))
	}

	// A hostile value is a bound parameter, matching nothing.
	items, err = s.Search("description", "'; DROP TABLE grocery_items;--")
	if err != nil {
		t.Fatalf("search with hostile value: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("hostile value matched %d items, want 0", len(items))
	}

	// Table is intact.
	count, err := s.Count()
	if err != nil {
		t.Fatalf("count after injection attempts: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestSearchAllowListCoversFormColumns(t *testing.T) {
	// Every column the search form offers must be allow-listed.
	for _, col := range []string{"id", "description", "shelf_life", "department", "price", "unit", "x_for", "cost", "quantity", "reorder_point"} {
		if _, ok := searchColumns[col]; !ok {
			t.Errorf("column %q missing from allow-list", col)
		}
	}
	for col := range searchColumns {
		if strings.ContainsAny(col, " ;'\"") {
			t.Errorf("allow-listed column %q contains unsafe characters", col)
		}
	}
}
