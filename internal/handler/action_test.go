package handler

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func parseTestForm(t *testing.T, form url.Values) Action {
	t.Helper()
	req := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if err := req.ParseForm(); err != nil {
		t.Fatalf("parse form: %v", err)
	}
	return ParseAction(req)
}

func TestParseActionAdd(t *testing.T) {
	a := parseTestForm(t, url.Values{
		"send-add":        {""},
		"id-add":          {"7"},
		"description-add": {"Whole Milk"},
		"department-add":  {"Dairy"},
		"price-add":       {"$3.99"},
		"quantity-add":    {"12"},
		"last-sold-add":   {"2026-08-20"},
	})

	if a.Kind != ActionAdd {
		t.Fatalf("kind = %d, want ActionAdd", a.Kind)
	}
	if a.ItemErr != nil {
		t.Fatalf("item err: %v", a.ItemErr)
	}
	if a.Item.ID != 7 || a.Item.Description != "Whole Milk" {
		t.Errorf("item = %+v", a.Item)
	}
	if a.Item.XFor != 1 {
		t.Errorf("x_for default = %d, want 1", a.Item.XFor)
	}
	want := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	if a.Item.LastSold == nil || !a.Item.LastSold.Equal(want) {
		t.Errorf("last_sold = %v, want %v", a.Item.LastSold, want)
	}
}

func TestParseActionEditUsesEditFields(t *testing.T) {
	a := parseTestForm(t, url.Values{
		"send-edit":        {""},
		"id-edit":          {"3"},
		"description-edit": {"Bagels"},
		// Stray add fields must not bleed into an edit.
		"id-add":          {"99"},
		"description-add": {"Wrong"},
	})

	if a.Kind != ActionEdit {
		t.Fatalf("kind = %d, want ActionEdit", a.Kind)
	}
	if a.ItemErr != nil {
		t.Fatalf("item err: %v", a.ItemErr)
	}
	if a.Item.ID != 3 || a.Item.Description != "Bagels" {
		t.Errorf("item = %+v", a.Item)
	}
}

func TestParseActionAddValidation(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{"missing id", url.Values{"send-add": {""}, "description-add": {"Milk"}}},
		{"missing description", url.Values{"send-add": {""}, "id-add": {"1"}}},
		{"bad quantity", url.Values{"send-add": {""}, "id-add": {"1"}, "description-add": {"Milk"}, "quantity-add": {"-1"}}},
		{"bad x_for", url.Values{"send-add": {""}, "id-add": {"1"}, "description-add": {"Milk"}, "xfor-add": {"0"}}},
		{"bad date", url.Values{"send-add": {""}, "id-add": {"1"}, "description-add": {"Milk"}, "last-sold-add": {"not-a-date"}}},
	}
	for _, tt := range tests {
		a := parseTestForm(t, tt.form)
		if a.Kind != ActionAdd {
			t.Errorf("%s: kind = %d, want ActionAdd", tt.name, a.Kind)
		}
		if a.ItemErr == nil {
			t.Errorf("%s: expected item error", tt.name)
		}
	}
}

func TestParseActionDelete(t *testing.T) {
	a := parseTestForm(t, url.Values{"send-delete": {""}, "id-delete": {" 12 "}})
	if a.Kind != ActionDelete {
		t.Fatalf("kind = %d, want ActionDelete", a.Kind)
	}
	if a.DeleteIDErr != nil {
		t.Fatalf("delete id err: %v", a.DeleteIDErr)
	}
	if a.DeleteID != 12 {
		t.Errorf("delete id = %d, want 12", a.DeleteID)
	}

	a = parseTestForm(t, url.Values{"send-delete": {""}, "id-delete": {"abc"}})
	if a.DeleteIDErr == nil {
		t.Error("expected error for non-numeric delete id")
	}
}

func TestParseActionSearch(t *testing.T) {
	a := parseTestForm(t, url.Values{"send-search": {""}, "column": {"department"}, "item": {" Dairy "}})
	if a.Kind != ActionSearch {
		t.Fatalf("kind = %d, want ActionSearch", a.Kind)
	}
	if a.SearchColumn != "department" || a.SearchTerm != "Dairy" {
		t.Errorf("search = %q/%q", a.SearchColumn, a.SearchTerm)
	}
}

func TestParseActionAddRandomRaw(t *testing.T) {
	// The raw value passes through untouched; the clamp owns normalization.
	a := parseTestForm(t, url.Values{"add-random": {""}, "random-item-count": {"100"}})
	if a.Kind != ActionAddRandom {
		t.Fatalf("kind = %d, want ActionAddRandom", a.Kind)
	}
	if a.RandomCountRaw != "100" {
		t.Errorf("raw count = %q, want %q", a.RandomCountRaw, "100")
	}
}

func TestParseActionUnknown(t *testing.T) {
	a := parseTestForm(t, url.Values{"bogus-button": {""}})
	if a.Kind != ActionNone {
		t.Errorf("kind = %d, want ActionNone", a.Kind)
	}
}

func TestParseActionMultipleButtonsFixedOrder(t *testing.T) {
	a := parseTestForm(t, url.Values{
		"send-delete":     {""},
		"send-add":        {""},
		"id-add":          {"1"},
		"description-add": {"Milk"},
		"id-delete":       {"1"},
	})
	if a.Kind != ActionAdd {
		t.Errorf("kind = %d, want ActionAdd (first in dispatch order)", a.Kind)
	}
}
