package searcher

import (
	"sort"

	"github.com/dshills/portfolio-search/pkg/types"
)

// Span is a matched rune range [Start, End) within a field's text
type Span struct {
	Start int
	End   int
}

// mergeSpans sorts spans, clips them to [0, n), and merges overlapping or
// adjacent ranges
func mergeSpans(spans []Span, n int) []Span {
	clipped := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 {
			s.Start = 0
		}
		if s.End > n {
			s.End = n
		}
		if s.Start < s.End {
			clipped = append(clipped, s)
		}
	}
	if len(clipped) == 0 {
		return nil
	}

	sort.Slice(clipped, func(i, j int) bool {
		if clipped[i].Start != clipped[j].Start {
			return clipped[i].Start < clipped[j].Start
		}
		return clipped[i].End < clipped[j].End
	})

	merged := []Span{clipped[0]}
	for _, s := range clipped[1:] {
		last := &merged[len(merged)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// Highlight splits text into segments, marking the rune ranges in spans.
// Concatenating the segment texts always yields text. With no usable spans
// the result is a single unmarked segment.
func Highlight(text string, spans []Span) []types.Segment {
	runes := []rune(text)
	merged := mergeSpans(spans, len(runes))
	if len(merged) == 0 {
		return []types.Segment{{Text: text}}
	}

	segments := make([]types.Segment, 0, 2*len(merged)+1)
	pos := 0
	for _, s := range merged {
		if s.Start > pos {
			segments = append(segments, types.Segment{Text: string(runes[pos:s.Start])})
		}
		segments = append(segments, types.Segment{Text: string(runes[s.Start:s.End]), Matched: true})
		pos = s.End
	}
	if pos < len(runes) {
		segments = append(segments, types.Segment{Text: string(runes[pos:])})
	}
	return segments
}
