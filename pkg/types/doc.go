// Package types provides the shared data model of mirrorindex.
//
// A build produces one Manifest: the ordered FileMeta list, the ordered
// CategoryNode list and a Stats block. The manifest is written as two JSON
// documents and read back by the loader, catalog and storage packages.
//
// # Files
//
// FileMeta.ID equals FileMeta.Path, a POSIX path relative to the scan root.
// CategoryID is the path with its last segment removed, or "" for files that
// sit directly under the root:
//
//	meta := types.FileMeta{
//	    ID:         "docs/guide/intro.md",
//	    Path:       "docs/guide/intro.md",
//	    CategoryID: "docs/guide",
//	}
//
// Ext and Mime are pointers so that they serialize as JSON null when absent.
//
// # Categories
//
// CategoryNode counts are direct: FileCount only counts files whose
// CategoryID equals the node path, ChildrenCount only counts immediate
// subcategories. TotalFiles carries subtree totals once aggregated.
//
// # Timestamps
//
// All timestamps use FormatTimestamp (UTC, millisecond precision).
package types
