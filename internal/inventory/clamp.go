package inventory

import (
	"strconv"
	"strings"
)

const (
	// MinRandomCount and MaxRandomCount bound the random-item-count form
	// field; DefaultRandomCount is substituted when the field is missing
	// or not a number.
	MinRandomCount     = 1
	MaxRandomCount     = 50
	DefaultRandomCount = 5
)

// ClampCount normalizes a raw random-item-count form value to an integer
// in [MinRandomCount, MaxRandomCount]. Missing or non-numeric input
// degrades to DefaultRandomCount; it never fails.
func ClampCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return DefaultRandomCount
	}
	if n < MinRandomCount {
		return MinRandomCount
	}
	if n > MaxRandomCount {
		return MaxRandomCount
	}
	return n
}
