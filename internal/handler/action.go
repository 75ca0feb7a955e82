package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/backstock/internal/model"
)

// ActionKind tags the form action a POST / submission requests. The raw
// form is inspected exactly once, here at the boundary; handlers switch
// exhaustively on the kind instead of probing form fields.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionAdd
	ActionEdit
	ActionDelete
	ActionSearch
	ActionAddRandom
	ActionCSVImport
)

// Action is the parsed, tagged form submission. Exactly the fields for
// its Kind are populated.
type Action struct {
	Kind ActionKind

	// ActionAdd / ActionEdit
	Item    model.GroceryItem
	ItemErr error

	// ActionDelete
	DeleteID    int64
	DeleteIDErr error

	// ActionSearch
	SearchColumn string
	SearchTerm   string

	// ActionAddRandom — raw so the clamp owns normalization
	RandomCountRaw string
}

const dateLayout = "2006-01-02"

// submit button field -> action kind, checked in a fixed order so a
// malformed submission carrying two buttons still resolves predictably.
var submitFields = []struct {
	field string
	kind  ActionKind
}{
	{"send-add", ActionAdd},
	{"send-edit", ActionEdit},
	{"send-delete", ActionDelete},
	{"send-search", ActionSearch},
	{"add-random", ActionAddRandom},
	{"csv-submit", ActionCSVImport},
}

// ParseAction reads the (already parsed) form on r and builds the tagged
// action. Unknown submissions come back as ActionNone.
func ParseAction(r *http.Request) Action {
	kind := ActionNone
	for _, sf := range submitFields {
		if r.Form.Has(sf.field) {
			kind = sf.kind
			break
		}
	}

	a := Action{Kind: kind}
	switch kind {
	case ActionAdd:
		a.Item, a.ItemErr = itemFromForm(r, "add")
	case ActionEdit:
		a.Item, a.ItemErr = itemFromForm(r, "edit")
	case ActionDelete:
		a.DeleteID, a.DeleteIDErr = strconv.ParseInt(strings.TrimSpace(r.FormValue("id-delete")), 10, 64)
	case ActionSearch:
		a.SearchColumn = strings.TrimSpace(r.FormValue("column"))
		a.SearchTerm = strings.TrimSpace(r.FormValue("item"))
	case ActionAddRandom:
		a.RandomCountRaw = r.FormValue("random-item-count")
	}
	return a
}

// itemFromForm reads the `<field>-<action>` convention fields for the
// add and edit forms.
func itemFromForm(r *http.Request, action string) (model.GroceryItem, error) {
	get := func(field string) string {
		return strings.TrimSpace(r.FormValue(field + "-" + action))
	}

	id, err := strconv.ParseInt(get("id"), 10, 64)
	if err != nil {
		return model.GroceryItem{}, fmt.Errorf("invalid id")
	}

	description := get("description")
	if description == "" {
		return model.GroceryItem{}, fmt.Errorf("description is required")
	}

	item := model.GroceryItem{
		ID:          id,
		Description: description,
		ShelfLife:   get("shelf-life"),
		Department:  get("department"),
		Price:       get("price"),
		Unit:        get("unit"),
		XFor:        1,
		Cost:        get("cost"),
		DateAdded:   time.Now().UTC().Truncate(24 * time.Hour),
	}

	if v := get("xfor"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return model.GroceryItem{}, fmt.Errorf("invalid x_for")
		}
		item.XFor = n
	}
	if v := get("quantity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return model.GroceryItem{}, fmt.Errorf("invalid quantity")
		}
		item.Quantity = n
	}
	if v := get("reorder-point"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return model.GroceryItem{}, fmt.Errorf("invalid reorder point")
		}
		item.ReorderPoint = n
	}
	if v := get("last-sold"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return model.GroceryItem{}, fmt.Errorf("invalid last sold date")
		}
		item.LastSold = &t
	}

	return item, nil
}
