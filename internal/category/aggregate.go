package category

import (
	"sort"

	"github.com/dshills/mirrorindex/pkg/types"
)

// Aggregate fills TotalFiles with the number of files in each subtree.
//
// Nodes are visited by decreasing depth so every child is final before its
// parent. Ancestors referenced by a ParentID but missing from nodes, as
// happens when category snapshots are merged, are synthesized with zero
// direct files. ChildrenCount is recomputed from the final node set. The
// input slice is not modified.
func Aggregate(nodes []types.CategoryNode, locale string) []types.CategoryNode {
	byID := make(map[string]*types.CategoryNode, len(nodes))
	for i := range nodes {
		cp := nodes[i]
		if existing, ok := byID[cp.ID]; ok {
			// Duplicate ids from merged snapshots: direct counts add up
			existing.FileCount += cp.FileCount
			continue
		}
		byID[cp.ID] = &cp
	}

	// Synthesize missing ancestors up to the root
	for _, id := range sortedKeys(byID) {
		node := byID[id]
		for node.ParentID != nil {
			parentID := *node.ParentID
			if _, ok := byID[parentID]; ok {
				break
			}
			parent := &types.CategoryNode{
				ID:       parentID,
				Name:     lastSegment(parentID),
				Path:     parentID,
				ParentID: types.StringPtr(types.ParentPath(parentID)),
				Depth:    len(types.Segments(parentID)) - 1,
			}
			byID[parentID] = parent
			node = parent
		}
	}

	ordered := make([]*types.CategoryNode, 0, len(byID))
	for _, node := range byID {
		node.ChildrenCount = 0
		node.TotalFiles = node.FileCount
		ordered = append(ordered, node)
	}
	for _, node := range ordered {
		if node.ParentID == nil {
			continue
		}
		if parent, ok := byID[*node.ParentID]; ok {
			parent.ChildrenCount++
		}
	}

	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Depth != ordered[j].Depth {
			return ordered[i].Depth > ordered[j].Depth
		}
		return ordered[i].ID < ordered[j].ID
	})
	for _, node := range ordered {
		if node.ParentID == nil {
			continue
		}
		if parent, ok := byID[*node.ParentID]; ok {
			parent.TotalFiles += node.TotalFiles
		}
	}

	out := make([]types.CategoryNode, 0, len(ordered))
	for _, node := range ordered {
		out = append(out, *node)
	}
	Sort(out, locale)
	return out
}

func sortedKeys(m map[string]*types.CategoryNode) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func lastSegment(p string) string {
	segs := types.Segments(p)
	if len(segs) == 0 {
		return p
	}
	return segs[len(segs)-1]
}
