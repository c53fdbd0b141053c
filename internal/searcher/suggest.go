package searcher

import (
	"strings"
	"unicode/utf8"
)

// MaxSuggestions caps the number of autocomplete strings
const MaxSuggestions = 10

// Suggest returns autocomplete strings for q: titles starting with q, then
// tags containing q, then technology names containing q. Matching is
// case-insensitive and duplicates keep their first spelling.
func (idx *Index) Suggest(q string) []string {
	trimmed := strings.TrimSpace(q)
	if utf8.RuneCountInString(trimmed) < MinQueryLength {
		return []string{}
	}
	lq := strings.ToLower(trimmed)

	out := make([]string, 0, MaxSuggestions)
	seen := make(map[string]struct{})
	add := func(s string) bool {
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		out = append(out, s)
		return len(out) >= MaxSuggestions
	}

	for i := range idx.records {
		if title := idx.records[i].Title; strings.HasPrefix(strings.ToLower(title), lq) {
			if add(title) {
				return out
			}
		}
	}
	for i := range idx.records {
		for _, tag := range idx.records[i].Tags {
			if strings.Contains(strings.ToLower(tag), lq) {
				if add(tag) {
					return out
				}
			}
		}
	}
	for i := range idx.records {
		for _, tech := range idx.records[i].Technologies {
			if strings.Contains(strings.ToLower(tech.Name), lq) {
				if add(tech.Name) {
					return out
				}
			}
		}
	}
	return out
}
