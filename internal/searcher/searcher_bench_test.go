package searcher

import (
	"fmt"
	"testing"

	"github.com/dshills/portfolio-search/pkg/types"
)

func benchRecords(n int) []types.SearchableRecord {
	words := []string{"payment", "gateway", "ledger", "kubernetes", "observability", "platform", "migration", "latency"}
	kinds := types.AllRecordTypes()
	records := make([]types.SearchableRecord, n)
	for i := range records {
		w1, w2 := words[i%len(words)], words[(i/len(words))%len(words)]
		records[i] = types.SearchableRecord{
			ID:           fmt.Sprintf("r%04d", i),
			Type:         kinds[i%len(kinds)],
			Title:        fmt.Sprintf("%s %s service %d", w1, w2, i),
			Description:  fmt.Sprintf("Notes on %s and %s in production systems.", w2, w1),
			Tags:         []string{w1, w2},
			Technologies: []types.Technology{{Name: "Go"}, {Name: "PostgreSQL"}},
		}
	}
	return records
}

func BenchmarkBuildIndex(b *testing.B) {
	records := benchRecords(500)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BuildIndex(records, DefaultWeights())
	}
}

func BenchmarkQuery(b *testing.B) {
	idx := BuildIndex(benchRecords(500), DefaultWeights())
	queries := []string{"payment", "kubernets", "pymnt", "observability platform", "go"}

	for _, q := range queries {
		b.Run(q, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				idx.Query(q, Options{})
			}
		})
	}
}

func BenchmarkSuggest(b *testing.B) {
	idx := BuildIndex(benchRecords(500), DefaultWeights())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.Suggest("pay")
	}
}
