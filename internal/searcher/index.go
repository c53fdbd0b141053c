package searcher

import (
	"sort"
	"strings"
	"time"

	"github.com/dshills/portfolio-search/pkg/types"
)

// DefaultLimit is the result cap when Options.Limit is not positive
const DefaultLimit = 20

// Filter narrows records by exact attribute match. Zero fields are ignored.
type Filter struct {
	Type     types.RecordType
	Category string
	Platform string
	Featured *bool
	Tags     []string // record must carry every tag (case-insensitive)
}

// Empty reports whether no criteria are set
func (f Filter) Empty() bool {
	return f.Type == "" && f.Category == "" && f.Platform == "" && f.Featured == nil && len(f.Tags) == 0
}

// Match reports whether rec satisfies every set criterion
func (f Filter) Match(rec *types.SearchableRecord) bool {
	if f.Type != "" && rec.Type != f.Type {
		return false
	}
	if f.Category != "" && rec.Category != f.Category {
		return false
	}
	if f.Platform != "" && rec.Metadata.Platform != f.Platform {
		return false
	}
	if f.Featured != nil && rec.Metadata.Featured != *f.Featured {
		return false
	}
	for _, want := range f.Tags {
		found := false
		for _, tag := range rec.Tags {
			if strings.EqualFold(tag, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Options controls a query
type Options struct {
	Limit int
	Filter
}

// document holds one record's fields prepared for matching
type document struct {
	title       text
	description text
	tags        []text
	techs       []text
	category    text
	client      text
	role        text
}

func newDocument(rec *types.SearchableRecord) document {
	d := document{
		title:       newText(rec.Title),
		description: newText(rec.Description),
		category:    newText(rec.Category),
		client:      newText(rec.Metadata.Client),
		role:        newText(rec.Metadata.Role),
	}
	d.tags = make([]text, len(rec.Tags))
	for i, tag := range rec.Tags {
		d.tags[i] = newText(tag)
	}
	d.techs = make([]text, len(rec.Technologies))
	for i, tech := range rec.Technologies {
		d.techs[i] = newText(tech.Name)
	}
	return d
}

// Index is an immutable snapshot of the searchable records. It is safe for
// concurrent use; a refresh builds a new Index rather than mutating one.
type Index struct {
	records []types.SearchableRecord
	docs    []document
	weights Weights
	builtAt time.Time
}

// BuildIndex creates an index over a copy of records. Invalid weights fall
// back to DefaultWeights.
func BuildIndex(records []types.SearchableRecord, weights Weights) *Index {
	if !weights.valid() {
		weights = DefaultWeights()
	}
	idx := &Index{
		records: make([]types.SearchableRecord, len(records)),
		docs:    make([]document, len(records)),
		weights: weights,
		builtAt: time.Now(),
	}
	for i := range records {
		idx.records[i] = records[i].Clone()
		idx.docs[i] = newDocument(&idx.records[i])
	}
	return idx
}

// Len returns the number of indexed records
func (idx *Index) Len() int { return len(idx.records) }

// BuiltAt returns when the index was built
func (idx *Index) BuiltAt() time.Time { return idx.builtAt }

// Query scores every record passing opts' filter against q and returns the
// matches ranked by relevance. Records that match no field are excluded.
// An empty query returns no results.
func (idx *Index) Query(q string, opts Options) []types.SearchResult {
	qq := newQuery(q)
	if qq.norm == "" {
		return []types.SearchResult{}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	results := make([]types.SearchResult, 0)
	for i := range idx.records {
		rec := &idx.records[i]
		if !opts.Filter.Match(rec) {
			continue
		}
		res, ok := idx.score(i, &qq)
		if !ok {
			continue
		}
		results = append(results, res)
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		if a.Relevance != b.Relevance {
			return a.Relevance > b.Relevance
		}
		at, bt := strings.ToLower(a.Record.Title), strings.ToLower(b.Record.Title)
		if at != bt {
			return at < bt
		}
		return a.Record.ID < b.Record.ID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

// score computes the weighted relevance and highlights of record i
func (idx *Index) score(i int, q *query) (types.SearchResult, bool) {
	d := &idx.docs[i]
	w := idx.weights

	title := matchText(&d.title, q)
	desc := matchText(&d.description, q)
	tags, tagMatches := matchList(d.tags, q)
	techs, techMatches := matchList(d.techs, q)

	other := techs
	for _, t := range []*text{&d.category, &d.client, &d.role} {
		if m := matchText(t, q); m.score > other {
			other = m.score
		}
	}

	if title.score == 0 && desc.score == 0 && tags == 0 && other == 0 {
		return types.SearchResult{}, false
	}

	relevance := w.Title*title.score + w.Description*desc.score + w.Tags*tags + w.Other*other
	if title.exact {
		relevance = 1
	}
	relevance = clamp(relevance, 0, 1)
	if relevance == 0 {
		// matched only fields weighted to zero
		return types.SearchResult{}, false
	}

	res := types.SearchResult{
		Record:     idx.records[i].Clone(),
		Relevance:  relevance,
		Highlights: make(map[types.Field][][]types.Segment),
	}
	if title.score > 0 {
		res.Highlights[types.FieldTitle] = [][]types.Segment{Highlight(d.title.raw, title.spans)}
	}
	if desc.score > 0 {
		res.Highlights[types.FieldDescription] = [][]types.Segment{Highlight(d.description.raw, desc.spans)}
	}
	for _, j := range tagMatches.order {
		res.Highlights[types.FieldTags] = append(res.Highlights[types.FieldTags],
			Highlight(d.tags[j].raw, tagMatches.byItem[j].spans))
	}
	for _, j := range techMatches.order {
		res.Highlights[types.FieldTechnologies] = append(res.Highlights[types.FieldTechnologies],
			Highlight(d.techs[j].raw, techMatches.byItem[j].spans))
	}
	return res, true
}

// listMatches records which items of a multi-valued field matched
type listMatches struct {
	order  []int
	byItem map[int]fieldMatch
}

// matchList scores every item and returns the best score plus the matches
func matchList(items []text, q *query) (float64, listMatches) {
	best := 0.0
	out := listMatches{byItem: make(map[int]fieldMatch)}
	for i := range items {
		m := matchText(&items[i], q)
		if m.score <= 0 {
			continue
		}
		out.order = append(out.order, i)
		out.byItem[i] = m
		if m.score > best {
			best = m.score
		}
	}
	return best, out
}

// Filter returns the records matching f in index order, without scoring
func (idx *Index) Filter(f Filter) []types.SearchableRecord {
	out := make([]types.SearchableRecord, 0)
	for i := range idx.records {
		if f.Match(&idx.records[i]) {
			out = append(out, idx.records[i].Clone())
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
