package inventory

import "testing"

func TestClampCount(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"5", 5},
		{"1", 1},
		{"50", 50},
		{"100", 50},
		{"51", 50},
		{"0", 1},
		{"-5", 1},
		{"abc", 5},
		{"", 5},
		{"  10  ", 10},
		{"3.5", 5},
		{"1e3", 5},
	}

	for _, tt := range tests {
		if got := ClampCount(tt.raw); got != tt.want {
			t.Errorf("ClampCount(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}
