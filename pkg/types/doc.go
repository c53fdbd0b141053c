// Package types provides shared type definitions for the portfolio search core.
//
// This package defines the domain types used across the aggregator, cache,
// search index, and query pipeline: the normalized record shape, search
// results with highlight segments, and the error taxonomy.
//
// # Core Types
//
// SearchableRecord is the uniform unit every content source is normalized into:
//
//	record := types.SearchableRecord{
//	    ID:          "payments",
//	    Type:        types.RecordWriting,
//	    Title:       "Building Scalable Payment Systems",
//	    Description: "Lessons from processing card payments at scale",
//	    Tags:        []string{"payments", "architecture"},
//	    Metadata:    types.Metadata{Platform: "Medium", Featured: true},
//	}
//
// The Type field is the discriminant of the record variant. Scoring and
// normalization code switch over AllRecordTypes exhaustively.
//
// # Validation
//
// Records are validated at the aggregation boundary:
//
//	if err := record.Validate(); err != nil {
//	    var rve *types.RecordValidationError
//	    errors.As(err, &rve) // dropped with a warning, never fatal
//	}
//
// # Search Results
//
// SearchResult wraps a record with its per-query relevance and highlights:
//
//	result := types.SearchResult{
//	    Record:    record,
//	    Relevance: 0.74,
//	    Rank:      1,
//	    Highlights: map[types.Field][][]types.Segment{
//	        types.FieldTitle: {{{Text: "Building Scalable "}, {Text: "Payment", Matched: true}, {Text: " Systems"}}},
//	    },
//	}
//
// Relevance is normalized to the [0, 1] range. Relevance and highlights are
// computed per query and never persisted.
//
// # Errors
//
// ValidationError, ContentLoadError, and RecordValidationError carry the
// three error classes of the search core. Each unwraps to a sentinel
// (ErrInvalidQuery, ErrContentLoad, ErrInvalidRecord) so callers can
// classify with errors.Is.
package types
