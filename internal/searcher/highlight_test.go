package searcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/portfolio-search/pkg/types"
)

func TestHighlight(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		spans []Span
		want  []types.Segment
	}{
		{
			name:  "prefix",
			text:  "Payment Gateway",
			spans: []Span{{0, 7}},
			want:  []types.Segment{{Text: "Payment", Matched: true}, {Text: " Gateway"}},
		},
		{
			name:  "no spans",
			text:  "Payment Gateway",
			spans: nil,
			want:  []types.Segment{{Text: "Payment Gateway"}},
		},
		{
			name:  "overlapping and unsorted",
			text:  "abcdefgh",
			spans: []Span{{4, 6}, {1, 3}, {2, 5}},
			want:  []types.Segment{{Text: "a"}, {Text: "bcdef", Matched: true}, {Text: "gh"}},
		},
		{
			name:  "adjacent merge",
			text:  "abcd",
			spans: []Span{{0, 1}, {1, 2}, {3, 4}},
			want:  []types.Segment{{Text: "ab", Matched: true}, {Text: "c"}, {Text: "d", Matched: true}},
		},
		{
			name:  "clipped",
			text:  "abc",
			spans: []Span{{-2, 1}, {2, 10}, {5, 7}},
			want:  []types.Segment{{Text: "a", Matched: true}, {Text: "b"}, {Text: "c", Matched: true}},
		},
		{
			name:  "only empty spans",
			text:  "abc",
			spans: []Span{{1, 1}, {3, 2}},
			want:  []types.Segment{{Text: "abc"}},
		},
		{
			name:  "multibyte",
			text:  "Café Latte",
			spans: []Span{{3, 4}},
			want:  []types.Segment{{Text: "Caf"}, {Text: "é", Matched: true}, {Text: " Latte"}},
		},
		{
			name:  "whole text",
			text:  "Go",
			spans: []Span{{0, 2}},
			want:  []types.Segment{{Text: "Go", Matched: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Highlight(tt.text, tt.spans)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.text, types.PlainText(got))
		})
	}
}

func TestMergeSpansEmpty(t *testing.T) {
	assert.Nil(t, mergeSpans(nil, 10))
	assert.Nil(t, mergeSpans([]Span{{0, 3}}, 0))
}
