package searcher

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/portfolio-search/pkg/types"
)

const (
	// MinQueryLength is the shortest accepted query, in runes after trimming
	MinQueryLength = 2
	// MaxQueryLength is the longest accepted query, in runes after trimming
	MaxQueryLength = 100
	// MaxSpecialRatio is the highest accepted share of non-alphanumeric runes
	MaxSpecialRatio = 0.5
)

// ValidateQuery rejects malformed queries before any search or cache access.
// The returned error is a *types.ValidationError.
func ValidateQuery(q string) error {
	trimmed := strings.TrimSpace(q)
	n := utf8.RuneCountInString(trimmed)

	switch {
	case n == 0:
		return &types.ValidationError{Query: q, Reason: types.ReasonEmpty}
	case n < MinQueryLength:
		return &types.ValidationError{Query: q, Reason: types.ReasonTooShort}
	case n > MaxQueryLength:
		return &types.ValidationError{Query: q, Reason: types.ReasonTooLong}
	}

	var counted, special int
	for _, r := range trimmed {
		if unicode.IsSpace(r) {
			continue
		}
		counted++
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			special++
		}
	}
	if counted > 0 && float64(special)/float64(counted) > MaxSpecialRatio {
		return &types.ValidationError{Query: q, Reason: types.ReasonSpecialChars}
	}
	return nil
}

// normalizeQuery lowercases q and collapses inner whitespace
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
