package ai

import "strings"

// Role prefixes understood by retrieval-tuned embedding models of the E5
// family. Query text and stored passage text must be marked differently
// or ranking quality silently degrades.
const (
	QueryPrefix   = "query: "
	PassagePrefix = "passage: "
)

// StripRolePrefix removes a leading role prefix from text, if present.
func StripRolePrefix(text string) string {
	switch {
	case strings.HasPrefix(text, QueryPrefix):
		return strings.TrimPrefix(text, QueryPrefix)
	case strings.HasPrefix(text, PassagePrefix):
		return strings.TrimPrefix(text, PassagePrefix)
	}
	return text
}

// ApplyRolePrefix marks text with the given role prefix, replacing any role
// prefix already present so re-embedding stored text cannot stack prefixes.
func ApplyRolePrefix(prefix, text string) string {
	return prefix + StripRolePrefix(text)
}
