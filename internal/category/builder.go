package category

import (
	"sort"
	"strings"

	"github.com/dshills/mirrorindex/internal/collation"
	"github.com/dshills/mirrorindex/pkg/types"
)

// Options configures the category builder
type Options struct {
	IncludeEmpty bool   // Keep nodes without files or children
	Locale       string // Collation locale (default: collation.DefaultLocale)
}

// Build derives the category forest implied by files.
//
// Every prefix of a file's category id becomes a node. FileCount is only
// incremented on the deepest prefix and ChildrenCount counts direct
// subcategories; neither is aggregated into ancestors.
func Build(files []types.FileMeta, opts Options) []types.CategoryNode {
	nodes := make(map[string]*types.CategoryNode)

	for i := range files {
		segments := fileSegments(&files[i])
		if len(segments) == 0 {
			continue
		}

		var parentID *string
		for depth := range segments {
			id := strings.Join(segments[:depth+1], "/")
			node, ok := nodes[id]
			if !ok {
				node = &types.CategoryNode{
					ID:       id,
					Name:     segments[depth],
					Path:     id,
					ParentID: parentID,
					Depth:    depth,
				}
				nodes[id] = node
			}
			if depth == len(segments)-1 {
				node.FileCount++
			}
			parentID = &node.ID
		}
	}

	for _, node := range nodes {
		if node.ParentID == nil {
			continue
		}
		if parent, ok := nodes[*node.ParentID]; ok {
			parent.ChildrenCount++
		}
	}

	out := make([]types.CategoryNode, 0, len(nodes))
	for _, node := range nodes {
		if !opts.IncludeEmpty && node.FileCount == 0 && node.ChildrenCount == 0 {
			continue
		}
		cp := *node
		if node.ParentID != nil {
			parent := *node.ParentID
			cp.ParentID = &parent
		}
		out = append(out, cp)
	}

	Sort(out, opts.Locale)
	return out
}

// Sort orders nodes by depth, then by collated path
func Sort(nodes []types.CategoryNode, locale string) {
	if locale == "" {
		locale = collation.DefaultLocale
	}
	cmp := collation.New(locale)
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Depth != nodes[j].Depth {
			return nodes[i].Depth < nodes[j].Depth
		}
		return cmp.Less(nodes[i].Path, nodes[j].Path)
	})
}

// fileSegments prefers the file's category id and falls back to its path
// without the last segment. Root files yield no segments.
func fileSegments(f *types.FileMeta) []string {
	if f.CategoryID != "" {
		return types.Segments(f.CategoryID)
	}
	return types.Segments(types.ParentPath(f.Path))
}
