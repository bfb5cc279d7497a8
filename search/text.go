package search

import "strings"

// normalizeQuery collapses runs of whitespace and trims the query before
// it reaches the embedder. Returns "" for blank input.
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
