package types

import "strings"

// Field names a highlightable record field
type Field string

const (
	FieldTitle        Field = "title"
	FieldDescription  Field = "description"
	FieldTags         Field = "tags"
	FieldTechnologies Field = "technologies"
)

// Segment is one piece of a highlighted field. Concatenating the Text of all
// segments of a field yields the original field text.
type Segment struct {
	Text    string `json:"text"`
	Matched bool   `json:"matched,omitempty"`
}

// SearchResult represents a single search result with relevance information
type SearchResult struct {
	Record SearchableRecord `json:"record"`

	// Scoring
	Relevance float64 `json:"relevance"` // Weighted field score in [0, 1]
	Rank      int     `json:"rank"`      // Position in result set (1-based)

	// Highlights holds one segment list per matched value. Multi-valued
	// fields (tags, technologies) carry one entry per matched item.
	Highlights map[Field][][]Segment `json:"highlights,omitempty"`
}

// RenderSegments joins segments, wrapping matched ones in open/close markers
func RenderSegments(segments []Segment, open, close string) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Matched {
			b.WriteString(open)
			b.WriteString(s.Text)
			b.WriteString(close)
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

// PlainText joins segments without markers
func PlainText(segments []Segment) string {
	return RenderSegments(segments, "", "")
}
