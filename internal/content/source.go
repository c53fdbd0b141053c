package content

import (
	"context"
)

// Source is one independent content collection (projects, writing, ...).
// Load returns records in the source's own shape; the Aggregator is the only
// place they are normalized.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]RawContent, error)
}

// SourceFunc adapts a function to the Source interface
type SourceFunc struct {
	SourceName string
	Fn         func(ctx context.Context) ([]RawContent, error)
}

func (s SourceFunc) Name() string { return s.SourceName }

func (s SourceFunc) Load(ctx context.Context) ([]RawContent, error) {
	return s.Fn(ctx)
}

// StaticSource serves a fixed, in-memory record set
type StaticSource struct {
	name    string
	records []RawContent
}

// NewStaticSource creates a source that always returns records
func NewStaticSource(name string, records ...RawContent) *StaticSource {
	return &StaticSource{name: name, records: records}
}

func (s *StaticSource) Name() string { return s.name }

func (s *StaticSource) Load(ctx context.Context) ([]RawContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]RawContent, len(s.records))
	copy(out, s.records)
	return out, nil
}
