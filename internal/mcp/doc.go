// Package mcp implements the Model Context Protocol (MCP) server for mirrorindex.
//
// The server exposes the most recent index snapshot to MCP clients:
//   - list_categories: categories with direct and subtree file counts
//   - get_category: one category, its subcategories and its files
//   - get_file: one file and other files in the same category
//   - search_files: keyword search over names, titles, paths and digests
//   - get_index_status: loaded snapshot, last build, database state
//   - rebuild_index: run the indexer again over the configured root
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// stdout carries protocol messages only; logs go to stderr or the log file.
//
// # Basic Usage
//
// The server is started via the serve command:
//
//	mirrorindex serve --root ./mirror --out web/public
//
// Snapshots are read back from the output directory (or loader.candidates)
// and cached for loader.cache_max_age. A successful rebuild_index drops the
// cache so the next call sees the new files.
//
// # Tool: search_files
//
//	Request:
//	{
//	  "name": "search_files",
//	  "arguments": {
//	    "query": "install guide",
//	    "limit": 5,
//	    "category": "docs"
//	  }
//	}
//
//	Response:
//	{
//	  "generatedAt": "2024-05-01T10:00:00.000Z",
//	  "total_results": 2,
//	  "search_mode": "keyword",
//	  "results": [
//	    {"rank": 1, "score": 7.5, "file": {"id": "docs/install.md", ...}}
//	  ]
//	}
//
// search_mode "store" queries the SQLite database instead and is only
// available when a database is configured.
//
// # Tool: rebuild_index
//
//	Request:
//	{
//	  "name": "rebuild_index",
//	  "arguments": {"include_empty": false, "formats": "index,categories"}
//	}
//
//	Response:
//	{
//	  "rebuilt": true,
//	  "build_id": "6f1c...",
//	  "files": 1284,
//	  "categories": 97,
//	  "ignored": 12,
//	  "duration_ms": 184
//	}
//
// # Error Codes
//
// Errors are returned as *MCPError:
//
//	-32602  invalid parameters
//	-32603  internal error
//	-32001  unknown file or category id
//	-32002  a build is already in progress
//	-32003  no index has been written yet
//	-32004  empty search query
package mcp
