package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/mirrorindex/internal/catalog"
	"github.com/dshills/mirrorindex/internal/config"
	"github.com/dshills/mirrorindex/internal/indexer"
	"github.com/dshills/mirrorindex/internal/loader"
	"github.com/dshills/mirrorindex/internal/logging"
	"github.com/dshills/mirrorindex/internal/searcher"
	"github.com/dshills/mirrorindex/internal/storage"
	"github.com/dshills/mirrorindex/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeNotFound           = -32001 // Unknown file or category id
	ErrorCodeIndexingInProgress = -32002 // Another build is already running
	ErrorCodeNotIndexed         = -32003 // No index files found
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
)

// handleListCategories handles the list_categories tool invocation
func (s *Server) handleListCategories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	cat, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	categories := cat.ListCategories()
	if parent, ok := args["parent"].(string); ok {
		parent = strings.Trim(parent, "/")
		if parent != "" {
			if _, err := cat.GetCategory(parent); err != nil {
				return nil, notFound("category", parent)
			}
		}
		categories = cat.Children(parent)
	}
	if categories == nil {
		categories = []types.CategoryNode{}
	}

	response := map[string]interface{}{
		"generatedAt": cat.Status().GeneratedAt,
		"total":       len(categories),
		"categories":  categories,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetCategory handles the get_category tool invocation
func (s *Server) handleGetCategory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	id, err := requiredString(args, "id")
	if err != nil {
		return nil, err
	}
	id = strings.Trim(id, "/")

	cat, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	node, err := cat.GetCategory(id)
	if err != nil {
		return nil, notFound("category", id)
	}

	var files []types.FileMeta
	if getBoolDefault(args, "recursive", false) {
		files, err = cat.FilesUnder(id)
	} else {
		files, err = cat.FilesByCategory(id)
	}
	if err != nil {
		return nil, internalError("failed to list files", err)
	}

	children := cat.Children(id)
	if children == nil {
		children = []types.CategoryNode{}
	}

	response := map[string]interface{}{
		"category":      node,
		"subcategories": children,
		"files":         files,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetFile handles the get_file tool invocation
func (s *Server) handleGetFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	id, err := requiredString(args, "id")
	if err != nil {
		return nil, err
	}

	limit := getIntDefault(args, "related_limit", 5)
	if limit < 0 || limit > catalog.MaxRelated {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("related_limit must be between 0 and %d", catalog.MaxRelated), map[string]interface{}{
			"param": "related_limit",
			"value": limit,
		})
	}

	cat, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	file, err := cat.GetFile(id)
	if err != nil {
		return nil, notFound("file", id)
	}

	related := []types.FileMeta{}
	if limit > 0 {
		if related, err = cat.Related(id, limit); err != nil {
			return nil, internalError("failed to list related files", err)
		}
	}

	response := map[string]interface{}{
		"file":    file,
		"related": related,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchFiles handles the search_files tool invocation
func (s *Server) handleSearchFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", searcher.DefaultLimit)
	if limit < 1 || limit > searcher.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	searchMode := getStringDefault(args, "search_mode", string(searcher.SearchModeKeyword))
	if searchMode != string(searcher.SearchModeKeyword) && searchMode != string(searcher.SearchModeStore) {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid search_mode", map[string]interface{}{
			"param":   "search_mode",
			"value":   searchMode,
			"allowed": []string{string(searcher.SearchModeKeyword), string(searcher.SearchModeStore)},
		})
	}
	if searchMode == string(searcher.SearchModeStore) && s.storage == nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "store search requires a database", map[string]interface{}{
			"param": "search_mode",
			"value": searchMode,
		})
	}

	resp, err := s.searcher.Search(ctx, searcher.SearchRequest{
		Query:    query,
		Limit:    limit,
		Mode:     searcher.SearchMode(searchMode),
		Category: getStringDefault(args, "category", ""),
		UseCache: true,
	})
	if err != nil {
		return nil, s.toolError(err, "search failed")
	}

	response := map[string]interface{}{
		"generatedAt":   resp.GeneratedAt,
		"total_results": resp.TotalResults,
		"search_mode":   resp.SearchMode,
		"cache_hit":     resp.CacheHit,
		"duration_ms":   resp.Duration.Milliseconds(),
		"results":       resp.Results,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetIndexStatus handles the get_index_status tool invocation
func (s *Server) handleGetIndexStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	response := map[string]interface{}{
		"building": s.indexer.Building(),
		"root":     s.cfg.Root,
		"out":      s.cfg.OutDir(),
	}

	if last, ok := s.indexer.LastBuild(); ok {
		response["last_build"] = buildSummary(last)
	}

	if s.storage != nil {
		build, err := s.storage.LatestBuild(ctx)
		switch {
		case err == nil:
			response["database"] = map[string]interface{}{
				"build_id":     build.ID,
				"root":         build.RootPath,
				"generated_at": build.GeneratedAt,
				"total_files":  build.Stats.TotalFiles,
			}
		case !errors.Is(err, storage.ErrNotFound):
			return nil, internalError("failed to read database status", err)
		}
	}

	cat, err := s.catalogs.Catalog(ctx)
	switch {
	case err == nil:
		status := cat.Status()
		response["indexed"] = true
		response["snapshot"] = status
		response["total_size"] = logging.Bytes(status.TotalBytes)
	case errors.Is(err, loader.ErrNotFound):
		response["indexed"] = false
		response["message"] = "No index found. Use rebuild_index to build one."
	default:
		return nil, internalError("failed to load index", err)
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRebuildIndex handles the rebuild_index tool invocation
func (s *Server) handleRebuildIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	opts := indexer.OptionsFromConfig(s.cfg)
	opts.IncludeEmpty = getBoolDefault(args, "include_empty", opts.IncludeEmpty)
	if formats, ok := args["formats"].(string); ok && formats != "" {
		opts.Formats = config.ParseFormats(formats)
	}

	stats, err := s.indexer.Build(ctx, opts)
	if err != nil {
		return nil, s.toolError(err, "indexing failed")
	}

	// The next lookup must see the new files
	s.loader.Invalidate()
	s.searcher.InvalidateCache()

	response := buildSummary(stats)
	response["rebuilt"] = true
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// catalog loads the current catalog, mapping a missing index to ErrorCodeNotIndexed
func (s *Server) catalog(ctx context.Context) (*catalog.Catalog, error) {
	cat, err := s.catalogs.Catalog(ctx)
	if err != nil {
		return nil, s.toolError(err, "failed to load index")
	}
	return cat, nil
}

// toolError maps domain errors onto MCP error codes
func (s *Server) toolError(err error, message string) error {
	switch {
	case errors.Is(err, loader.ErrNotFound):
		return newMCPError(ErrorCodeNotIndexed, "index not built", map[string]interface{}{
			"out":    s.cfg.OutDir(),
			"reason": "no index file found; use rebuild_index",
		})
	case errors.Is(err, types.ErrIndexingInProgress):
		return newMCPError(ErrorCodeIndexingInProgress, "a build is already in progress", nil)
	case errors.Is(err, types.ErrNotFound):
		return newMCPError(ErrorCodeNotFound, err.Error(), nil)
	case errors.Is(err, types.ErrInvalidRoot), errors.Is(err, types.ErrUnknownFormat), errors.Is(err, searcher.ErrEmptyQuery):
		return newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
	}
	s.logger.Error("mcp:error", logging.Fields{"message": message, "error": err})
	return internalError(message, err)
}

func buildSummary(stats *indexer.Statistics) map[string]interface{} {
	return map[string]interface{}{
		"build_id":         stats.BuildID,
		"root":             stats.Root,
		"files":            stats.Files,
		"categories":       stats.Categories,
		"ignored":          stats.Ignored,
		"skipped":          stats.Skipped,
		"preview_failures": stats.PreviewFailures,
		"written":          stats.Written,
		"removed":          stats.Removed,
		"duration_ms":      stats.Duration.Milliseconds(),
	}
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func notFound(kind, id string) error {
	return newMCPError(ErrorCodeNotFound, kind+" not found", map[string]interface{}{
		"id": id,
	})
}

func internalError(message string, err error) error {
	return newMCPError(ErrorCodeInternalError, message, map[string]interface{}{
		"error": err.Error(),
	})
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// arguments extracts the argument map; a request without arguments yields an empty map
func arguments(request mcp.CallToolRequest) (map[string]interface{}, error) {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}, nil
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	return args, nil
}

// requiredString extracts a non-empty string parameter
func requiredString(args map[string]interface{}, key string) (string, error) {
	val, ok := args[key].(string)
	if !ok || val == "" {
		return "", newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	return val, nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
