package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/mirrorindex/internal/catalog"
	"github.com/dshills/mirrorindex/internal/collation"
	"github.com/dshills/mirrorindex/internal/storage"
	"github.com/dshills/mirrorindex/pkg/types"
)

// SearchMode defines how search is performed
type SearchMode string

const (
	SearchModeKeyword SearchMode = "keyword" // Weighted term matching over the in-memory catalog
	SearchModeStore   SearchMode = "store"   // Substring match in the SQLite store, re-scored
)

const (
	DefaultLimit    = 10
	MaxLimit        = 100
	DefaultCacheTTL = 5 * time.Minute
	cacheSize       = 1000
)

// Field weights for keyword scoring
const (
	WeightName   = 3.0
	WeightTitle  = 2.0
	WeightPath   = 1.5
	WeightDigest = 1.0
)

var (
	// ErrEmptyQuery is returned for a query without terms
	ErrEmptyQuery = errors.New("query cannot be empty")
	// ErrNoStore is returned for store searches when no store is configured
	ErrNoStore = errors.New("store search requires a database")
)

// CatalogProvider returns the catalog of the current snapshot
type CatalogProvider interface {
	Catalog(ctx context.Context) (*catalog.Catalog, error)
}

// SearchRequest contains parameters for a search operation
type SearchRequest struct {
	Query    string
	Limit    int
	Mode     SearchMode
	Category string // Restricts results to this category's subtree
	UseCache bool   // Whether to use query cache
	CacheTTL time.Duration
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results      []types.SearchResult
	TotalResults int // Matches before the limit was applied
	SearchMode   SearchMode
	Duration     time.Duration
	CacheHit     bool
	GeneratedAt  string
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher runs keyword searches over index snapshots
type Searcher struct {
	catalogs CatalogProvider
	store    storage.Storage
	locale   string
	now      func() time.Time
	cache    *lru.Cache[[32]byte, *cacheEntry]
	cacheMu  sync.RWMutex
}

// NewSearcher creates a new Searcher instance. store may be nil, in which case
// only SearchModeKeyword is available.
func NewSearcher(catalogs CatalogProvider, store storage.Storage, locale string) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](cacheSize)
	if err != nil {
		// This should never happen with valid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		catalogs: catalogs,
		store:    store,
		locale:   locale,
		now:      time.Now,
		cache:    cache,
	}
}

// Search performs a search based on the request parameters
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	terms, err := validateRequest(&req)
	if err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	cat, err := s.catalogs.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	generatedAt := cat.Status().GeneratedAt
	key := computeQueryHash(req, terms, generatedAt)

	if req.UseCache {
		if cached := s.checkCache(key); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	var candidates []types.FileMeta
	switch req.Mode {
	case SearchModeKeyword:
		candidates, err = keywordCandidates(cat, req.Category)
	case SearchModeStore:
		candidates, err = s.storeCandidates(ctx, cat, req)
	default:
		return nil, fmt.Errorf("unsupported search mode: %s", req.Mode)
	}
	if err != nil {
		return nil, err
	}

	ranked := rank(candidates, terms, collation.New(s.locale))
	response := &SearchResponse{
		Results:      limitResults(ranked, req.Limit),
		TotalResults: len(ranked),
		SearchMode:   req.Mode,
		GeneratedAt:  generatedAt,
	}
	response.Duration = time.Since(startTime)

	if req.UseCache {
		s.storeInCache(key, response, req.CacheTTL)
	}

	return response, nil
}

// keywordCandidates returns the files a keyword search scores
func keywordCandidates(cat *catalog.Catalog, category string) ([]types.FileMeta, error) {
	if category == "" {
		return cat.Files(), nil
	}
	files, err := cat.FilesUnder(category)
	if err != nil {
		return nil, fmt.Errorf("category %q: %w", category, err)
	}
	return files, nil
}

// storeCandidates asks the store for every substring match of the whole query
// inside the requested category subtree, keeping only files the catalog knows
func (s *Searcher) storeCandidates(ctx context.Context, cat *catalog.Catalog, req SearchRequest) ([]types.FileMeta, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	if req.Category != "" {
		if _, err := cat.GetCategory(req.Category); err != nil {
			return nil, fmt.Errorf("category %q: %w", req.Category, err)
		}
	}
	files, err := s.store.SearchFiles(ctx, req.Query, req.Category, -1)
	if err != nil {
		return nil, fmt.Errorf("store search failed: %w", err)
	}

	out := files[:0]
	for _, f := range files {
		if _, ok := cat.Ordinal(f.ID); ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// scoredFile represents a file with its relevance score
type scoredFile struct {
	file  types.FileMeta
	score float64
}

// rank scores every candidate and returns the matches by descending score,
// ties broken by collated path
func rank(files []types.FileMeta, terms []string, cmp *collation.Comparer) []scoredFile {
	scored := make([]scoredFile, 0)
	for _, f := range files {
		if score := Score(&f, terms); score > 0 {
			scored = append(scored, scoredFile{file: f, score: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return cmp.Less(scored[i].file.Path, scored[j].file.Path)
	})
	return scored
}

// Score sums the field weights of every term found in f. Terms must already
// be lower case.
func Score(f *types.FileMeta, terms []string) float64 {
	fields := [...]struct {
		text   string
		weight float64
	}{
		{strings.ToLower(f.Name), WeightName},
		{strings.ToLower(f.Title), WeightTitle},
		{strings.ToLower(f.Path), WeightPath},
		{strings.ToLower(f.Digest), WeightDigest},
	}

	var score float64
	for _, term := range terms {
		for _, field := range fields {
			if field.text != "" && strings.Contains(field.text, term) {
				score += field.weight
			}
		}
	}
	return score
}

// Terms splits a query into distinct lower-case terms in input order
func Terms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, t := range strings.Fields(strings.ToLower(query)) {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}
	return terms
}

func limitResults(scored []scoredFile, limit int) []types.SearchResult {
	if limit > len(scored) {
		limit = len(scored)
	}
	results := make([]types.SearchResult, 0, limit)
	for i := 0; i < limit; i++ {
		results = append(results, types.SearchResult{
			Rank:  i + 1,
			Score: scored[i].score,
			File:  scored[i].file,
		})
	}
	return results
}

// validateRequest ensures search request is valid and returns its terms
func validateRequest(req *SearchRequest) ([]string, error) {
	terms := Terms(req.Query)
	if len(terms) == 0 {
		return nil, ErrEmptyQuery
	}

	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}

	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}

	if req.Mode == "" {
		req.Mode = SearchModeKeyword
	}

	if req.CacheTTL == 0 {
		req.CacheTTL = DefaultCacheTTL
	}

	req.Category = strings.Trim(req.Category, "/")

	return terms, nil
}

// checkCache looks up cached search results
func (s *Searcher) checkCache(key [32]byte) *SearchResponse {
	s.cacheMu.RLock()
	entry, found := s.cache.Get(key)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}

	if s.now().After(entry.expiresAt) {
		s.cacheMu.RUnlock()

		// Remove expired entry - need write lock
		s.cacheMu.Lock()
		s.cache.Remove(key)
		s.cacheMu.Unlock()
		return nil
	}

	response := copySearchResponse(entry.response)
	s.cacheMu.RUnlock()

	return response
}

// storeInCache saves search results to cache
func (s *Searcher) storeInCache(key [32]byte, response *SearchResponse, ttl time.Duration) {
	entry := &cacheEntry{
		response:  copySearchResponse(response),
		expiresAt: s.now().Add(ttl),
	}

	s.cacheMu.Lock()
	s.cache.Add(key, entry)
	s.cacheMu.Unlock()
}

// copySearchResponse creates a copy whose Results slice is not shared
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}
	dst := *src
	dst.Results = make([]types.SearchResult, len(src.Results))
	copy(dst.Results, src.Results)
	return &dst
}

// computeQueryHash computes a unique hash for a normalized search request.
// The snapshot's generatedAt is part of the key so a rebuild never serves
// stale results.
func computeQueryHash(req SearchRequest, terms []string, generatedAt string) [32]byte {
	var data strings.Builder
	data.WriteString(strings.Join(terms, " "))
	data.WriteString("|")
	data.WriteString(string(req.Mode))
	data.WriteString("|")
	data.WriteString(req.Category)
	data.WriteString("|")
	data.WriteString(fmt.Sprintf("%d", req.Limit))
	data.WriteString("|")
	data.WriteString(generatedAt)

	return sha256.Sum256([]byte(data.String()))
}

// InvalidateCache drops every cached response
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// CacheLen reports the number of cached responses
func (s *Searcher) CacheLen() int {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.cache.Len()
}
