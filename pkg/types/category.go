package types

// CategoryNode is a synthetic grouping derived from a path prefix.
// FileCount and ChildrenCount are direct counts. TotalFiles is only set by
// the subtree aggregation pass.
type CategoryNode struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Path          string  `json:"path"`
	ParentID      *string `json:"parentId"`
	Depth         int     `json:"depth"`
	ChildrenCount int     `json:"childrenCount"`
	FileCount     int     `json:"fileCount"`
	TotalFiles    int     `json:"totalFiles,omitempty"`
}

// IsRoot reports whether the node has no parent
func (c *CategoryNode) IsRoot() bool {
	return c.ParentID == nil
}

// Parent returns the parent id or "" for top-level nodes
func (c *CategoryNode) Parent() string {
	return Deref(c.ParentID)
}

// Validate checks the identity invariants of a category node
func (c *CategoryNode) Validate() error {
	if c.ID == "" {
		return ErrEmptyID
	}
	if c.ID != c.Path {
		return ErrIDPathMismatch
	}
	if c.Depth != len(Segments(c.Path))-1 {
		return ErrInvalidDepth
	}
	if c.Parent() != ParentPath(c.Path) {
		return ErrCategoryMismatch
	}
	return nil
}
