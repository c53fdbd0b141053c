// Package searcher implements fuzzy search, filtering and autocomplete over
// the aggregated portfolio records.
//
// # Basic Usage
//
//	agg := content.NewAggregator(sources, cm, content.DefaultConfig())
//	s := searcher.New(agg, cm)
//
//	results, err := s.Search(ctx, "payment systems", searcher.Options{Limit: 10})
//	if err != nil {
//	    var verr *types.ValidationError
//	    if errors.As(err, &verr) {
//	        // malformed query, nothing was loaded
//	    }
//	    return err
//	}
//
//	for _, r := range results {
//	    fmt.Printf("[%d] %.2f %s\n", r.Rank, r.Relevance, r.Record.Title)
//	}
//
// # Query Validation
//
// Queries are trimmed and checked before anything else runs:
//   - Fewer than 2 runes: rejected (SearchOrEmpty and Suggest return empty)
//   - More than 100 runes: rejected
//   - More than half of the non-space runes are neither letters nor digits: rejected
//
// # Matching
//
// Each field is scored by the strongest strategy that matches, each in its
// own band:
//
//	exact (normalized equality)    1.0
//	substring                      0.6 - 0.9, longer coverage and earlier position score higher
//	token (substring or typo)      up to 0.6, by share of query tokens matched
//	subsequence (compact only)     up to 0.4, by compactness
//
// Field scores are combined with Weights (default title 0.4, description 0.3,
// tags 0.2, other 0.1). Tags and technologies take their best item. "Other"
// is the best of technologies, category, client and role. An exact title
// match always scores 1.0.
//
// Results are ordered by relevance, then title, then ID, so equal inputs
// produce identical output.
//
// # Filtering
//
// Filters are applied before ranking and the limit:
//
//	results, _ := s.Search(ctx, "cost", searcher.Options{
//	    Filter: searcher.Filter{Platform: "Medium", Featured: &yes},
//	})
//
// Filter alone lists matching records without scoring.
//
// # Highlights
//
// Every matched field carries segments whose concatenation is the original
// text:
//
//	types.RenderSegments(r.Highlights[types.FieldTitle][0], "<mark>", "</mark>")
//
// # Caching
//
// The built Index is stored in the cache under IndexKey and shared by all
// queries. Concurrent misses trigger a single build. Invalidate drops the
// index and all source content so the next query refetches each source once.
package searcher
