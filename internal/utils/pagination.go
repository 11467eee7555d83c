// Package utils provides small, generic helper functions shared across
// layers. Nothing in here knows about debtors, messages, or HTTP.
package utils

import "strconv"

// AtoiDefault parses s as an int and falls back to def when s is empty
// or not a valid integer. Used for query parameters such as page and
// page_size, where a garbage value should degrade to the default rather
// than fail the request.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampInt bounds n to the inclusive range [lo, hi].
func ClampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
