package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/backstock/internal/model"
)

type GroceryStore struct {
	db *sql.DB
}

func NewGroceryStore(db *sql.DB) *GroceryStore {
	return &GroceryStore{db: db}
}

func scanItem(scanner interface{ Scan(...any) error }) (*model.GroceryItem, error) {
	var item model.GroceryItem
	var lastSold sql.NullTime

	err := scanner.Scan(
		&item.ID, &item.Description, &lastSold, &item.ShelfLife, &item.Department,
		&item.Price, &item.Unit, &item.XFor, &item.Cost,
		&item.Quantity, &item.ReorderPoint, &item.DateAdded,
	)
	if err != nil {
		return nil, err
	}

	if lastSold.Valid {
		item.LastSold = &lastSold.Time
	}
	return &item, nil
}

const itemCols = `id, description, last_sold, shelf_life, department, price, unit, x_for, cost, quantity, reorder_point, date_added`

// searchColumns is the allow-list for Search. Keys are the user-facing
// column names; the value records whether the column takes a substring
// match. Anything not listed here is rejected before touching SQL.
var searchColumns = map[string]bool{
	"id":            false,
	"description":   true,
	"shelf_life":    true,
	"department":    true,
	"price":         true,
	"unit":          true,
	"x_for":         false,
	"cost":          true,
	"quantity":      false,
	"reorder_point": false,
}

func (s *GroceryStore) GetByID(id int64) (*model.GroceryItem, error) {
	row := s.db.QueryRow(`SELECT `+itemCols+` FROM grocery_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

func (s *GroceryStore) List() ([]model.GroceryItem, error) {
	rows, err := s.db.Query(`SELECT ` + itemCols + ` FROM grocery_items ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// Create inserts an item with its caller-assigned id. Inserting a
// duplicate id fails on the primary key constraint.
func (s *GroceryStore) Create(item model.GroceryItem) error {
	_, err := s.db.Exec(
		`INSERT INTO grocery_items (`+itemCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Description, nullTime(item.LastSold), item.ShelfLife, item.Department,
		item.Price, item.Unit, item.XFor, item.Cost,
		item.Quantity, item.ReorderPoint, item.DateAdded,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// CreateBatch inserts all items in a single transaction. Any failure
// (including a duplicate id) rolls the whole batch back.
func (s *GroceryStore) CreateBatch(items []model.GroceryItem) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO grocery_items (` + itemCols + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		_, err := stmt.Exec(
			item.ID, item.Description, nullTime(item.LastSold), item.ShelfLife, item.Department,
			item.Price, item.Unit, item.XFor, item.Cost,
			item.Quantity, item.ReorderPoint, item.DateAdded,
		)
		if err != nil {
			return fmt.Errorf("insert item %d: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func (s *GroceryStore) Update(item model.GroceryItem) (*model.GroceryItem, error) {
	_, err := s.db.Exec(
		`UPDATE grocery_items SET description = ?, last_sold = ?, shelf_life = ?, department = ?,
		 price = ?, unit = ?, x_for = ?, cost = ?, quantity = ?, reorder_point = ? WHERE id = ?`,
		item.Description, nullTime(item.LastSold), item.ShelfLife, item.Department,
		item.Price, item.Unit, item.XFor, item.Cost,
		item.Quantity, item.ReorderPoint, item.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return s.GetByID(item.ID)
}

func (s *GroceryStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM grocery_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// Search matches value against a single allow-listed column. Text columns
// use a substring match, integer columns an exact match, always through
// bound parameters. An unrecognized column yields an empty result rather
// than an error — and never reaches the query layer.
func (s *GroceryStore) Search(column, value string) ([]model.GroceryItem, error) {
	substring, ok := searchColumns[column]
	if !ok {
		return nil, nil
	}

	var (
		rows *sql.Rows
		err  error
	)
	if substring {
		rows, err = s.db.Query(
			`SELECT `+itemCols+` FROM grocery_items WHERE `+column+` LIKE ? ORDER BY id ASC`,
			"%"+value+"%",
		)
	} else {
		rows, err = s.db.Query(
			`SELECT `+itemCols+` FROM grocery_items WHERE `+column+` = ? ORDER BY id ASC`,
			value,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// CreateGenerated inserts generated items, assigning each row the next
// free id inside the transaction itself: every insert takes MAX(id)+1 at
// the moment it runs, so concurrent batches serialize on the write lock
// instead of reserving the same id range up front.
func (s *GroceryStore) CreateGenerated(items []model.GroceryItem) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin generated batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO grocery_items (` + itemCols + `)
		SELECT COALESCE(MAX(id), 0) + 1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ? FROM grocery_items`)
	if err != nil {
		return fmt.Errorf("prepare generated insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		_, err := stmt.Exec(
			item.Description, nullTime(item.LastSold), item.ShelfLife, item.Department,
			item.Price, item.Unit, item.XFor, item.Cost,
			item.Quantity, item.ReorderPoint, item.DateAdded,
		)
		if err != nil {
			return fmt.Errorf("insert generated item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit generated batch: %w", err)
	}
	return nil
}

func (s *GroceryStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM grocery_items`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

func collectItems(rows *sql.Rows) ([]model.GroceryItem, error) {
	var items []model.GroceryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
