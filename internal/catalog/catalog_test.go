package catalog

import (
	"context"
	"errors"
	pathpkg "path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/mirrorindex/internal/category"
	"github.com/dshills/mirrorindex/pkg/types"
)

func file(path, cat string, size int64) types.FileMeta {
	return types.FileMeta{ID: path, Name: pathpkg.Base(path), Path: path, CategoryID: cat, Size: size}
}

func testManifest() *types.Manifest {
	files := []types.FileMeta{
		file("readme.md", "", 10),
		file("docs/a.txt", "docs", 1),
		file("docs/b.txt", "docs", 2),
		file("docs/c.txt", "docs", 3),
		file("docs/api/x.md", "docs/api", 4),
		file("docs/api/v2/y.md", "docs/api/v2", 5),
		file("media/z.png", "media", 6),
	}
	return &types.Manifest{
		GeneratedAt: "2024-05-01T10:00:00.000Z",
		Files:       files,
		Categories:  category.Build(files, category.Options{}),
		Stats:       types.Stats{TotalFiles: len(files), IgnoredPaths: 2, ProcessingTimeMs: 9},
	}
}

func ids(files []types.FileMeta) []string {
	out := []string{}
	for _, f := range files {
		out = append(out, f.ID)
	}
	return out
}

func TestGetFile(t *testing.T) {
	c := New(testManifest(), "")

	f, err := c.GetFile("docs/api/x.md")
	require.NoError(t, err)
	assert.Equal(t, "docs/api", f.CategoryID)

	_, err = c.GetFile("docs/missing")
	assert.ErrorIs(t, err, ErrNotFound)

	ord, ok := c.Ordinal("media/z.png")
	assert.True(t, ok)
	assert.Equal(t, uint32(6), ord)
}

func TestCategoriesAggregated(t *testing.T) {
	c := New(testManifest(), "")

	docs, err := c.GetCategory("docs")
	require.NoError(t, err)
	assert.Equal(t, 3, docs.FileCount)
	assert.Equal(t, 5, docs.TotalFiles)
	assert.Equal(t, 1, docs.ChildrenCount)

	v2, err := c.GetCategory("docs/api/v2")
	require.NoError(t, err)
	assert.Equal(t, 1, v2.TotalFiles)

	_, err = c.GetCategory("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Len(t, c.ListCategories(), 4)
	assert.Equal(t, []string{"docs/api"}, categoryIDs(c.Children("docs")))
	assert.Equal(t, []string{"docs", "media"}, categoryIDs(c.Children("")))
}

func categoryIDs(nodes []types.CategoryNode) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestFilesByCategory(t *testing.T) {
	c := New(testManifest(), "")

	docs, err := c.FilesByCategory("docs")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.txt", "docs/b.txt", "docs/c.txt"}, ids(docs))

	root, err := c.FilesByCategory("")
	require.NoError(t, err)
	assert.Equal(t, []string{"readme.md"}, ids(root))

	_, err = c.FilesByCategory("unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFilesUnder(t *testing.T) {
	c := New(testManifest(), "")

	docs, err := c.FilesUnder("docs")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.txt", "docs/b.txt", "docs/c.txt", "docs/api/x.md", "docs/api/v2/y.md"}, ids(docs))

	api, err := c.FilesUnder("docs/api")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/api/x.md", "docs/api/v2/y.md"}, ids(api))

	all, err := c.FilesUnder("")
	require.NoError(t, err)
	assert.Len(t, all, 7)

	_, err = c.FilesUnder("doc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFilesUnderDoesNotMatchSiblingPrefix(t *testing.T) {
	files := []types.FileMeta{
		file("docs/a.txt", "docs", 1),
		file("docs-old/b.txt", "docs-old", 1),
	}
	c := New(&types.Manifest{Files: files, Categories: category.Build(files, category.Options{})}, "")

	got, err := c.FilesUnder("docs")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.txt"}, ids(got))
}

func TestRelated(t *testing.T) {
	c := New(testManifest(), "")

	related, err := c.Related("docs/b.txt", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.txt", "docs/c.txt"}, ids(related))

	one, err := c.Related("docs/b.txt", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.txt"}, ids(one))

	alone, err := c.Related("media/z.png", 5)
	require.NoError(t, err)
	assert.Empty(t, alone)

	_, err = c.Related("missing", 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRelatedClampsLimit(t *testing.T) {
	var files []types.FileMeta
	for i := 0; i < 15; i++ {
		files = append(files, file("docs/"+string(rune('a'+i))+".txt", "docs", 1))
	}
	c := New(&types.Manifest{Files: files}, "")

	related, err := c.Related("docs/a.txt", 100)
	require.NoError(t, err)
	assert.Len(t, related, MaxRelated)
	assert.NotContains(t, ids(related), "docs/a.txt")
}

func TestMissingFileCategoriesAreSynthesized(t *testing.T) {
	files := []types.FileMeta{file("a/b/c.txt", "a/b", 1)}
	c := New(&types.Manifest{Files: files}, "")

	ab, err := c.GetCategory("a/b")
	require.NoError(t, err)
	assert.Equal(t, 1, ab.FileCount)

	a, err := c.GetCategory("a")
	require.NoError(t, err)
	assert.Equal(t, 1, a.TotalFiles)
	assert.Equal(t, 1, a.ChildrenCount)
}

func TestStatus(t *testing.T) {
	c := New(testManifest(), "")
	st := c.Status()
	assert.Equal(t, "2024-05-01T10:00:00.000Z", st.GeneratedAt)
	assert.Equal(t, 7, st.TotalFiles)
	assert.Equal(t, 4, st.TotalCategories)
	assert.Equal(t, 2, st.IgnoredPaths)
	assert.Equal(t, int64(9), st.ProcessingTimeMs)
	assert.Equal(t, int64(31), st.TotalBytes)
}

func TestServiceRebuildsOnChange(t *testing.T) {
	current := testManifest()
	calls := 0
	svc := NewService(SourceFunc(func(context.Context) (*types.Manifest, error) {
		calls++
		return current, nil
	}), "", nil)
	ctx := context.Background()

	first, err := svc.Catalog(ctx)
	require.NoError(t, err)
	second, err := svc.Catalog(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)

	// A copy with identical stats is the same snapshot
	cp := *current
	current = &cp
	third, err := svc.Catalog(ctx)
	require.NoError(t, err)
	assert.Same(t, first, third)

	next := testManifest()
	next.GeneratedAt = "2024-05-02T10:00:00.000Z"
	current = next
	fourth, err := svc.Catalog(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, fourth)
	assert.Equal(t, 4, calls)
}

func TestServiceSourceError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(SourceFunc(func(context.Context) (*types.Manifest, error) {
		return nil, boom
	}), "", nil)

	_, err := svc.Catalog(context.Background())
	assert.ErrorIs(t, err, boom)
}
