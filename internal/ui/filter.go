package ui

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Filter returns the items whose text fuzzy-matches query, best match
// first. A leading "!" negates the query and keeps the original order.
func Filter[T any](items []T, query string, text func(T) string) []T {
	query = strings.TrimSpace(query)
	if query == "" {
		return items
	}

	source := make([]string, len(items))
	for i, item := range items {
		source[i] = text(item)
	}

	if negated, ok := strings.CutPrefix(query, "!"); ok {
		if negated == "" {
			return items
		}
		matched := make(map[int]bool)
		for _, m := range fuzzy.Find(negated, source) {
			matched[m.Index] = true
		}
		out := make([]T, 0, len(items)-len(matched))
		for i, item := range items {
			if !matched[i] {
				out = append(out, item)
			}
		}
		return out
	}

	matches := fuzzy.Find(query, source)
	out := make([]T, len(matches))
	for i, m := range matches {
		out[i] = items[m.Index]
	}
	return out
}
