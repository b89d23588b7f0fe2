// Package searcher implements keyword search over index snapshots.
//
// The searcher provides two search modes:
//   - Keyword: weighted term matching over the in-memory catalog (default)
//   - Store: substring match in the SQLite store, then scored the same way
//
// # Basic Usage
//
//	s := searcher.NewSearcher(catalogService, store, "zh-Hans")
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    Query:    "install guide",
//	    Limit:    10,
//	    Category: "docs",
//	})
//
//	for _, r := range resp.Results {
//	    fmt.Printf("[%d] %s (score: %.1f)\n", r.Rank, r.File.Path, r.Score)
//	}
//
// # Scoring
//
// The query is split on whitespace into distinct lower-case terms. Each term
// found as a substring of a field adds that field's weight:
//
//	name    3.0
//	title   2.0
//	path    1.5
//	digest  1.0
//
// Files scoring zero are dropped. Equal scores are ordered by collated path,
// so results are stable for a given snapshot.
//
// # Category Filter
//
// SearchRequest.Category restricts results to a category and everything
// below it. An unknown category is an error wrapping types.ErrNotFound.
//
// # Caching
//
// With UseCache set, responses are kept in an LRU cache (1000 entries) keyed
// by a SHA-256 of the normalized request and the snapshot's generatedAt.
// Entries expire after CacheTTL (default 5 minutes). InvalidateCache purges
// everything, which the server does after a rebuild.
//
// # Thread Safety
//
// Searcher is safe for concurrent use.
package searcher
