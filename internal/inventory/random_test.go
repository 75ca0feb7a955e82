package inventory

import (
	"regexp"
	"testing"
)

var currencyRe = regexp.MustCompile(`^\$\d+\.\d{2}$`)

func TestRandomItemsCount(t *testing.T) {
	for _, n := range []int{1, 5, 50} {
		items := RandomItems(n)
		if len(items) != n {
			t.Errorf("RandomItems(%d) returned %d items", n, len(items))
		}
	}
}

func TestRandomItemsFields(t *testing.T) {
	for _, item := range RandomItems(50) {
		if item.ID != 0 {
			t.Errorf("id = %d, want 0 until the store assigns one", item.ID)
		}
		if item.Description == "" {
			t.Fatal("description must not be empty")
		}
		if item.Department == "" {
			t.Fatal("department must not be empty")
		}
		if !currencyRe.MatchString(item.Price) {
			t.Errorf("price %q is not well-formed currency", item.Price)
		}
		if !currencyRe.MatchString(item.Cost) {
			t.Errorf("cost %q is not well-formed currency", item.Cost)
		}
		if item.XFor < 1 {
			t.Errorf("x_for = %d, want >= 1", item.XFor)
		}
		if item.Quantity < 0 {
			t.Errorf("quantity = %d, want >= 0", item.Quantity)
		}
		if item.ReorderPoint < 5 {
			t.Errorf("reorder_point = %d, want >= 5", item.ReorderPoint)
		}
		if item.DateAdded.IsZero() {
			t.Error("date_added must be set")
		}
	}
}

func TestFormatCents(t *testing.T) {
	tests := []struct {
		cents int
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{99, "$0.99"},
		{100, "$1.00"},
		{349, "$3.49"},
		{1399, "$13.99"},
	}
	for _, tt := range tests {
		if got := formatCents(tt.cents); got != tt.want {
			t.Errorf("formatCents(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}
