package types

// SearchResult is a single ranked file match
type SearchResult struct {
	Rank  int      `json:"rank"`  // Position in result set (1-based)
	Score float64  `json:"score"` // Weighted term hits
	File  FileMeta `json:"file"`
}
