package catalog

import (
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/tidwall/btree"

	"github.com/dshills/mirrorindex/internal/category"
	"github.com/dshills/mirrorindex/pkg/types"
)

const (
	// MaxRelated caps Related results
	MaxRelated = 10
)

// ErrNotFound is returned for unknown file or category ids
var ErrNotFound = types.ErrNotFound

// Status summarises the loaded snapshot
type Status struct {
	GeneratedAt      string `json:"generatedAt"`
	TotalFiles       int    `json:"totalFiles"`
	TotalCategories  int    `json:"totalCategories"`
	IgnoredPaths     int    `json:"ignoredPaths"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
	TotalBytes       int64  `json:"totalBytes"`
}

type fileRef struct {
	id      string
	ordinal uint32
}

type categoryRef struct {
	id      string
	ordinal int
}

// Catalog is an immutable in-memory view of one manifest.
// All methods are safe for concurrent use.
type Catalog struct {
	manifest   *types.Manifest
	files      []types.FileMeta
	categories []types.CategoryNode

	fileIndex     *btree.BTreeG[fileRef]
	categoryIndex *btree.BTreeG[categoryRef]
	members       map[string]*roaring.Bitmap
	totalBytes    int64
}

// New indexes m. Category totals are recomputed with category.Aggregate and
// categories referenced only by files are added.
func New(m *types.Manifest, locale string) *Catalog {
	c := &Catalog{
		manifest:      m,
		files:         m.Files,
		fileIndex:     btree.NewBTreeG(func(a, b fileRef) bool { return a.id < b.id }),
		categoryIndex: btree.NewBTreeG(func(a, b categoryRef) bool { return a.id < b.id }),
		members:       make(map[string]*roaring.Bitmap),
	}

	for i := range c.files {
		f := &c.files[i]
		c.fileIndex.Set(fileRef{id: f.ID, ordinal: uint32(i)})
		bm, ok := c.members[f.CategoryID]
		if !ok {
			bm = roaring.New()
			c.members[f.CategoryID] = bm
		}
		bm.Add(uint32(i))
		c.totalBytes += f.Size
	}

	c.categories = category.Aggregate(withFileCategories(m.Categories, c.members), locale)
	for i := range c.categories {
		c.categoryIndex.Set(categoryRef{id: c.categories[i].ID, ordinal: i})
	}
	return c
}

// withFileCategories appends leaf nodes for file categories the list lacks
func withFileCategories(nodes []types.CategoryNode, members map[string]*roaring.Bitmap) []types.CategoryNode {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}
	out := append([]types.CategoryNode(nil), nodes...)
	for id, bm := range members {
		if id == "" || known[id] {
			continue
		}
		segments := types.Segments(id)
		node := types.CategoryNode{
			ID:        id,
			Name:      segments[len(segments)-1],
			Path:      id,
			Depth:     len(segments) - 1,
			FileCount: int(bm.GetCardinality()),
		}
		if parent := types.ParentPath(id); parent != "" {
			node.ParentID = &parent
		}
		out = append(out, node)
	}
	return out
}

// Manifest returns the manifest the catalog was built from
func (c *Catalog) Manifest() *types.Manifest {
	return c.manifest
}

// Files returns all files in manifest order
func (c *Catalog) Files() []types.FileMeta {
	return c.files
}

// ListCategories returns all categories with TotalFiles filled in
func (c *Catalog) ListCategories() []types.CategoryNode {
	return c.categories
}

// GetCategory returns one category by id
func (c *Catalog) GetCategory(id string) (*types.CategoryNode, error) {
	ref, ok := c.categoryIndex.Get(categoryRef{id: id})
	if !ok {
		return nil, ErrNotFound
	}
	node := c.categories[ref.ordinal]
	return &node, nil
}

// Children returns the direct subcategories of id ("" for top-level ones)
func (c *Catalog) Children(id string) []types.CategoryNode {
	var out []types.CategoryNode
	for _, n := range c.categories {
		if n.Parent() == id {
			out = append(out, n)
		}
	}
	return out
}

// FilesByCategory returns the files directly inside a category in manifest
// order. The empty id selects root-level files.
func (c *Catalog) FilesByCategory(id string) ([]types.FileMeta, error) {
	if id != "" && !c.hasCategory(id) {
		return nil, ErrNotFound
	}
	return c.collect(c.members[id]), nil
}

// FilesUnder returns every file in the category's subtree in manifest order.
// The empty id selects all files.
func (c *Catalog) FilesUnder(id string) ([]types.FileMeta, error) {
	if id == "" {
		return c.files, nil
	}
	bm, err := c.Subtree(id)
	if err != nil {
		return nil, err
	}
	return c.collect(bm), nil
}

// Subtree returns the ordinals of every file under id
func (c *Catalog) Subtree(id string) (*roaring.Bitmap, error) {
	if !c.hasCategory(id) {
		return nil, ErrNotFound
	}

	bitmaps := []*roaring.Bitmap{}
	if bm, ok := c.members[id]; ok {
		bitmaps = append(bitmaps, bm)
	}
	prefix := id + "/"
	c.categoryIndex.Ascend(categoryRef{id: prefix}, func(ref categoryRef) bool {
		if !strings.HasPrefix(ref.id, prefix) {
			return false
		}
		if bm, ok := c.members[ref.id]; ok {
			bitmaps = append(bitmaps, bm)
		}
		return true
	})
	return roaring.FastOr(bitmaps...), nil
}

// GetFile returns one file by id
func (c *Catalog) GetFile(id string) (*types.FileMeta, error) {
	ref, ok := c.fileIndex.Get(fileRef{id: id})
	if !ok {
		return nil, ErrNotFound
	}
	f := c.files[ref.ordinal]
	return &f, nil
}

// Ordinal returns the manifest position of a file
func (c *Catalog) Ordinal(id string) (uint32, bool) {
	ref, ok := c.fileIndex.Get(fileRef{id: id})
	return ref.ordinal, ok
}

// Related returns other files in the same category, in manifest order.
// limit is clamped to MaxRelated.
func (c *Catalog) Related(id string, limit int) ([]types.FileMeta, error) {
	ref, ok := c.fileIndex.Get(fileRef{id: id})
	if !ok {
		return nil, ErrNotFound
	}
	if limit <= 0 || limit > MaxRelated {
		limit = MaxRelated
	}

	out := []types.FileMeta{}
	it := c.members[c.files[ref.ordinal].CategoryID].Iterator()
	for it.HasNext() && len(out) < limit {
		ord := it.Next()
		if ord == ref.ordinal {
			continue
		}
		out = append(out, c.files[ord])
	}
	return out, nil
}

// Status reports snapshot totals
func (c *Catalog) Status() Status {
	return Status{
		GeneratedAt:      c.manifest.GeneratedAt,
		TotalFiles:       len(c.files),
		TotalCategories:  len(c.categories),
		IgnoredPaths:     c.manifest.Stats.IgnoredPaths,
		ProcessingTimeMs: c.manifest.Stats.ProcessingTimeMs,
		TotalBytes:       c.totalBytes,
	}
}

func (c *Catalog) hasCategory(id string) bool {
	_, ok := c.categoryIndex.Get(categoryRef{id: id})
	return ok
}

func (c *Catalog) collect(bm *roaring.Bitmap) []types.FileMeta {
	out := []types.FileMeta{}
	if bm == nil {
		return out
	}
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, c.files[it.Next()])
	}
	return out
}
