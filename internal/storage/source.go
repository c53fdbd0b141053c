package storage

import (
	"context"

	"github.com/dshills/portfolio-search/internal/content"
	"github.com/dshills/portfolio-search/pkg/types"
)

// TableSource exposes one content table as a content.Source
type TableSource struct {
	name  string
	kind  types.RecordType
	store Storage
}

// NewTableSource creates a source listing kind rows from store
func NewTableSource(name string, kind types.RecordType, store Storage) *TableSource {
	return &TableSource{name: name, kind: kind, store: store}
}

// TableSources returns one source per record type, named after its table
func TableSources(store Storage) []content.Source {
	kinds := types.AllRecordTypes()
	out := make([]content.Source, 0, len(kinds))
	for _, kind := range kinds {
		table, _, err := tableFor(kind)
		if err != nil {
			continue
		}
		out = append(out, NewTableSource(table, kind, store))
	}
	return out
}

func (s *TableSource) Name() string { return s.name }

func (s *TableSource) Load(ctx context.Context) ([]content.RawContent, error) {
	return s.store.List(ctx, s.kind)
}
