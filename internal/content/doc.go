// Package content aggregates portfolio content from independent sources into
// one uniform record set for the search index.
//
// # Sources
//
// A Source loads records in its own shape (RawContent): *Project, *Writing,
// *Experience, *Skill, or *Profile. Provided sources:
//
//   - FileSource: a directory of YAML, JSON, or Markdown-with-front-matter files
//   - FeedSource: an RSS/Atom feed of articles (gofeed, HTML stripped with bluemonday)
//   - StaticSource: a fixed in-memory set
//   - storage.TableSource (package storage): rows of the SQLite content store
//
// # Aggregation
//
//	agg := content.NewAggregator(content.DefaultConfig(), []content.Source{
//	    content.NewFileSource("projects", types.RecordProject, os.DirFS(dir), "projects"),
//	    content.NewFeedSource("medium", "https://medium.com/feed/@me", content.WithPlatform("Medium")),
//	})
//	out, err := agg.Load(ctx)
//
// Sources load in parallel, each under its own timeout and retry budget.
// With PolicyFailFast (the default) any source failure fails the whole
// aggregation with a *types.ContentLoadError and no partial record set is
// returned. PolicyPartial keeps the sources that succeeded and lists the
// others in Aggregate.Degraded.
//
// # Normalization
//
// Normalize is the single place raw shapes become types.SearchableRecord.
// A record that fails validation (missing id or title) is dropped with a
// warning and counted in Aggregate.Dropped; it never fails the batch.
// Duplicate type/id pairs keep the first occurrence.
package content
