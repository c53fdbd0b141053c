package storage

import (
	"context"
	"time"

	"github.com/dshills/portfolio-search/internal/content"
	"github.com/dshills/portfolio-search/pkg/types"
)

// Storage defines the interface for persisting portfolio content
type Storage interface {
	// Content operations
	Upsert(ctx context.Context, item content.RawContent) error
	List(ctx context.Context, kind types.RecordType) ([]content.RawContent, error)
	Delete(ctx context.Context, kind types.RecordType, key string) error

	// Sync bookkeeping
	RecordSync(ctx context.Context, source string, records int) error

	// Status operations
	GetStatus(ctx context.Context) (*Status, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// SyncRecord describes the last import from one source
type SyncRecord struct {
	Source   string
	Records  int
	SyncedAt time.Time
}

// Status contains statistics about the content store
type Status struct {
	SchemaVersion string
	BuildMode     string
	Counts        map[types.RecordType]int
	Syncs         []SyncRecord
	SizeMB        float64
}

// Total returns the number of stored records across all kinds
func (s *Status) Total() int {
	n := 0
	for _, c := range s.Counts {
		n += c
	}
	return n
}
