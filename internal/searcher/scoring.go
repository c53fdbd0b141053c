package searcher

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
)

// Field score bands. Each matching strategy scores inside its own band so a
// stronger kind of match always outranks a weaker one on the same field.
const (
	scoreExact          = 1.0
	scoreSubstringBase  = 0.7 // plus up to 0.2 for coverage, minus up to 0.1 for position
	scoreTokenMax       = 0.6
	scoreSubsequenceMax = 0.4

	// minCompactness rejects subsequence matches scattered across a field
	minCompactness = 0.5
	// maxEdits caps the per-token edit distance
	maxEdits = 2
)

// Weights sets how much each field group contributes to relevance
type Weights struct {
	Title       float64
	Description float64
	Tags        float64
	Other       float64 // technologies, category, client, role
}

// DefaultWeights returns the default field weights
func DefaultWeights() Weights {
	return Weights{Title: 0.4, Description: 0.3, Tags: 0.2, Other: 0.1}
}

func (w Weights) valid() bool {
	if w.Title < 0 || w.Description < 0 || w.Tags < 0 || w.Other < 0 {
		return false
	}
	return w.Title+w.Description+w.Tags+w.Other > 0
}

// word is the rune range of one alphanumeric run
type word struct {
	start, end int
}

// text is a field value prepared for matching. lower is rune-aligned with
// raw so match offsets map straight back onto the original text.
type text struct {
	raw   string
	lower []rune
	norm  string
	words []word
}

func newText(s string) text {
	lower := []rune(s)
	for i, r := range lower {
		lower[i] = unicode.ToLower(r)
	}
	t := text{raw: s, lower: lower, norm: strings.Join(strings.Fields(string(lower)), " ")}

	start := -1
	for i, r := range lower {
		alnum := unicode.IsLetter(r) || unicode.IsDigit(r)
		switch {
		case alnum && start < 0:
			start = i
		case !alnum && start >= 0:
			t.words = append(t.words, word{start, i})
			start = -1
		}
	}
	if start >= 0 {
		t.words = append(t.words, word{start, len(lower)})
	}
	return t
}

// query is a normalized search string
type query struct {
	norm    string
	runes   []rune
	tokens  [][]rune
	compact string // norm without spaces, for subsequence matching
}

func newQuery(q string) query {
	norm := normalizeQuery(q)
	out := query{norm: norm, runes: []rune(norm), compact: strings.ReplaceAll(norm, " ", "")}
	for _, tok := range strings.FieldsFunc(norm, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		out.tokens = append(out.tokens, []rune(tok))
	}
	return out
}

// fieldMatch is the score of one field value and the spans that produced it
type fieldMatch struct {
	score float64
	exact bool
	spans []Span
}

// matchText scores one field value against q, trying each strategy from
// strongest to weakest
func matchText(t *text, q *query) fieldMatch {
	if len(t.lower) == 0 || len(q.runes) == 0 {
		return fieldMatch{}
	}

	if t.norm == q.norm {
		return fieldMatch{score: scoreExact, exact: true, spans: []Span{{0, len(t.lower)}}}
	}

	if i := indexRunes(t.lower, q.runes, 0); i >= 0 {
		n := float64(len(t.lower))
		coverage := float64(len(q.runes)) / n
		score := scoreSubstringBase + 0.2*coverage - 0.1*float64(i)/n
		var spans []Span
		for j := i; j >= 0; j = indexRunes(t.lower, q.runes, j+len(q.runes)) {
			spans = append(spans, Span{j, j + len(q.runes)})
		}
		return fieldMatch{score: score, spans: spans}
	}

	if m := matchTokens(t, q); m.score > 0 {
		return m
	}
	return matchSubsequence(t, q)
}

// matchTokens matches each query token against the field's words, either as
// a substring or within a small edit distance
func matchTokens(t *text, q *query) fieldMatch {
	if len(q.tokens) == 0 || len(t.words) == 0 {
		return fieldMatch{}
	}

	var spans []Span
	matched := 0
	for _, tok := range q.tokens {
		limit := len(tok) / 4
		if limit > maxEdits {
			limit = maxEdits
		}
		for _, w := range t.words {
			wr := t.lower[w.start:w.end]
			if k := indexRunes(wr, tok, 0); k >= 0 {
				spans = append(spans, Span{w.start + k, w.start + k + len(tok)})
				matched++
				break
			}
			if len(tok) >= 3 && limit > 0 && withinEditDistance(tok, wr, limit) {
				spans = append(spans, Span{w.start, w.end})
				matched++
				break
			}
		}
	}
	if matched == 0 {
		return fieldMatch{}
	}
	return fieldMatch{score: scoreTokenMax * float64(matched) / float64(len(q.tokens)), spans: spans}
}

// wordSource exposes a field's words to fuzzy.FindFrom
type wordSource struct {
	t *text
}

func (s wordSource) String(i int) string {
	w := s.t.words[i]
	return string([]rune(s.t.raw)[w.start:w.end])
}

func (s wordSource) Len() int { return len(s.t.words) }

// matchSubsequence finds the query's runes in order, first across the whole
// field and then within single words, keeping the most compact match
func matchSubsequence(t *text, q *query) fieldMatch {
	n := utf8.RuneCountInString(q.compact)
	if n < 2 {
		return fieldMatch{}
	}

	best := fieldMatch{}
	bestCompactness := 0.0
	consider := func(raw string, m fuzzy.Match, offset int) {
		idx := runeIndexes(raw, m.MatchedIndexes)
		if len(idx) == 0 {
			return
		}
		width := idx[len(idx)-1] - idx[0] + 1
		compactness := float64(n) / float64(width)
		if compactness <= bestCompactness {
			return
		}
		spans := make([]Span, len(idx))
		for i, r := range idx {
			spans[i] = Span{offset + r, offset + r + 1}
		}
		bestCompactness = compactness
		best = fieldMatch{score: scoreSubsequenceMax * compactness, spans: spans}
	}

	for _, m := range fuzzy.Find(q.compact, []string{t.raw}) {
		consider(t.raw, m, 0)
	}
	if bestCompactness < 1 {
		for _, m := range fuzzy.FindFrom(q.compact, wordSource{t}) {
			consider(m.Str, m, t.words[m.Index].start)
		}
	}

	if bestCompactness < minCompactness {
		return fieldMatch{}
	}
	return best
}

// runeIndexes converts byte offsets within s to rune offsets
func runeIndexes(s string, byteIdx []int) []int {
	if len(byteIdx) == 0 {
		return nil
	}
	want := make(map[int]struct{}, len(byteIdx))
	for _, b := range byteIdx {
		want[b] = struct{}{}
	}
	out := make([]int, 0, len(byteIdx))
	ri := 0
	for bi := range s {
		if _, ok := want[bi]; ok {
			out = append(out, ri)
		}
		ri++
	}
	return out
}

// indexRunes returns the first index >= from where needle occurs in hay
func indexRunes(hay, needle []rune, from int) int {
	if len(needle) == 0 {
		return -1
	}
	for i := from; i+len(needle) <= len(hay); i++ {
		match := true
		for j, r := range needle {
			if hay[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// withinEditDistance reports whether the optimal string alignment distance
// between a and b is at most limit. An adjacent transposition counts as one
// edit.
func withinEditDistance(a, b []rune, limit int) bool {
	diff := len(a) - len(b)
	if diff < 0 {
		diff = -diff
	}
	if diff > limit {
		return false
	}

	prevPrev := make([]int, len(b)+1)
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		rowMin := cur[0]
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				cur[j] = min(cur[j], prevPrev[j-2]+1)
			}
			if cur[j] < rowMin {
				rowMin = cur[j]
			}
		}
		if rowMin > limit {
			return false
		}
		prevPrev, prev, cur = prev, cur, prevPrev
	}
	return prev[len(b)] <= limit
}
