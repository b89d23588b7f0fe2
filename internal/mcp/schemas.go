package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// listCategoriesTool returns the tool definition for list_categories
func listCategoriesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_categories",
		Description: "List the categories of the current index with direct and subtree file counts",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"parent": map[string]interface{}{
					"type":        "string",
					"description": "Only list direct children of this category id (empty string for top-level categories)",
				},
			},
		},
	}
}

// getCategoryTool returns the tool definition for get_category
func getCategoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_category",
		Description: "Get one category with its subcategories and the files directly inside it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Category id, the '/'-joined directory path relative to the root",
				},
				"recursive": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, include files of every subcategory",
					"default":     false,
				},
			},
			Required: []string{"id"},
		},
	}
}

// getFileTool returns the tool definition for get_file
func getFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_file",
		Description: "Get the metadata of one indexed file and other files in its category",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "File id, the '/'-joined path relative to the root",
				},
				"related_limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of related files (0-10)",
					"default":     5,
					"minimum":     0,
					"maximum":     10,
				},
			},
			Required: []string{"id"},
		},
	}
}

// searchFilesTool returns the tool definition for search_files
func searchFilesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_files",
		Description: "Search indexed files by keywords in name, title, path and digest",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search keywords, separated by whitespace",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Restrict results to this category and its subcategories",
				},
				"search_mode": map[string]interface{}{
					"type":        "string",
					"description": "Search strategy: keyword (in-memory scoring) or store (database substring match)",
					"enum":        []string{"keyword", "store"},
					"default":     "keyword",
				},
			},
			Required: []string{"query"},
		},
	}
}

// getIndexStatusTool returns the tool definition for get_index_status
func getIndexStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_index_status",
		Description: "Report the loaded index snapshot, the last build and whether a build is running",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// rebuildIndexTool returns the tool definition for rebuild_index
func rebuildIndexTool() mcp.Tool {
	return mcp.Tool{
		Name:        "rebuild_index",
		Description: "Scan the configured root again and rewrite the index files",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"include_empty": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, keep categories without files",
					"default":     false,
				},
				"formats": map[string]interface{}{
					"type":        "string",
					"description": "Comma-separated artifacts to keep: index, categories",
					"default":     "index,categories",
				},
			},
		},
	}
}
