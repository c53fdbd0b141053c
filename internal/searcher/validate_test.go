package searcher

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/portfolio-search/pkg/types"
)

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		reason string
	}{
		{"empty", "", types.ReasonEmpty},
		{"whitespace", "   \t", types.ReasonEmpty},
		{"single rune", "a", types.ReasonTooShort},
		{"single rune padded", "  a  ", types.ReasonTooShort},
		{"too long", strings.Repeat("a", MaxQueryLength+1), types.ReasonTooLong},
		{"mostly symbols", "!!!a", types.ReasonSpecialChars},
		{"cpp", "c++", types.ReasonSpecialChars},
		{"two runes", "go", ""},
		{"max length", strings.Repeat("a", MaxQueryLength), ""},
		{"dotted", "node.js", ""},
		{"spaces ignored", "a b", ""},
		{"half symbols", "c#", ""},
		{"unicode", "café", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.query)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrInvalidQuery))

			var verr *types.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.reason, verr.Reason)
			assert.Equal(t, tt.query, verr.Query)
		})
	}
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "payment systems", normalizeQuery("  Payment \t SYSTEMS "))
	assert.Equal(t, "", normalizeQuery("   "))
}
