package core

import "strings"

// AllCategories is the filter sentinel that selects every transaction.
const AllCategories = "all"

// MatchesCategory reports whether a transaction in category passes filter.
// An empty filter behaves like AllCategories.
func MatchesCategory(filter, category string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" || filter == AllCategories {
		return true
	}
	return filter == category
}

// NormalizeFilter maps the empty filter onto AllCategories.
func NormalizeFilter(filter string) string {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return AllCategories
	}
	return filter
}
