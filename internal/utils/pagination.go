// Package utils provides small, generic helpers for parsing and bounding
// list parameters. They are independent of domain logic.
package utils

import "strconv"

// AtoiDefault converts s with strconv.Atoi, returning def when s is empty
// or not an integer.
//
//	n := utils.AtoiDefault("42", 0) // 42
//	n = utils.AtoiDefault("", 10)   // 10
//	n = utils.AtoiDefault("x", 5)   // 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampInt bounds n to [lo, hi].
func ClampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// LimitOrDefault maps a requested list size to an effective one: def when
// n is not positive, max when n exceeds it.
func LimitOrDefault(n, def, max int) int {
	if n <= 0 {
		return def
	}
	return min(n, max)
}
