package writer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/mirrorindex/pkg/types"
)

func testManifest() *types.Manifest {
	parent := "A"
	return &types.Manifest{
		GeneratedAt: "2024-01-02T03:04:05.006Z",
		Files: []types.FileMeta{
			{ID: "A/x.txt", Name: "x.txt", Path: "A/x.txt", CategoryID: "A", Ext: types.StringPtr("txt"), Mime: types.StringPtr("text/plain"), Size: 11, ModifiedAt: "2024-01-01T00:00:00.000Z", Title: "Hello", Digest: "Hello world"},
			{ID: "A/B/<b>.bin", Name: "<b>.bin", Path: "A/B/<b>.bin", CategoryID: "A/B", Size: 0, ModifiedAt: "2024-01-01T00:00:00.000Z"},
		},
		Categories: []types.CategoryNode{
			{ID: "A", Name: "A", Path: "A", Depth: 0, ChildrenCount: 1, FileCount: 1},
			{ID: "A/B", Name: "B", Path: "A/B", ParentID: &parent, Depth: 1, FileCount: 1},
		},
		Stats: types.Stats{TotalFiles: 2, TotalCategories: 2, IgnoredPaths: 3, ProcessingTimeMs: 42},
	}
}

func TestWriteRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "web", "public")
	m := testManifest()

	res, err := Write(m, Options{OutDir: dir, Pretty: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "index.json"), res.IndexPath)
	assert.Equal(t, filepath.Join(dir, "categories.json"), res.CategoriesPath)
	assert.Same(t, m, res.Manifest)
	assert.Positive(t, res.Bytes)

	indexData, err := os.ReadFile(res.IndexPath)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(indexData, &raw))
	assert.NotContains(t, raw, "categories")
	assert.Contains(t, raw, "generatedAt")
	assert.Contains(t, raw, "files")
	assert.Contains(t, raw, "stats")

	var index types.Manifest
	require.NoError(t, json.Unmarshal(indexData, &index))
	assert.Equal(t, m.WithoutCategories(), &index)

	catData, err := os.ReadFile(res.CategoriesPath)
	require.NoError(t, err)
	var cats []types.CategoryNode
	require.NoError(t, json.Unmarshal(catData, &cats))
	assert.Equal(t, m.Categories, cats)

	// The manifest itself still carries categories
	assert.Len(t, m.Categories, 2)
}

func TestWriteFormatting(t *testing.T) {
	m := testManifest()

	t.Run("pretty", func(t *testing.T) {
		res, err := Write(m, Options{OutDir: t.TempDir(), Pretty: true})
		require.NoError(t, err)
		data, err := os.ReadFile(res.CategoriesPath)
		require.NoError(t, err)

		s := string(data)
		assert.True(t, strings.HasPrefix(s, "[\n  {\n    \"id\": \"A\","))
		assert.True(t, strings.HasSuffix(s, "]\n"))
		assert.Contains(t, s, "\"parentId\": null")
	})

	t.Run("compact", func(t *testing.T) {
		res, err := Write(m, Options{OutDir: t.TempDir(), IndexFile: "i.json", CategoriesFile: "c.json"})
		require.NoError(t, err)
		assert.Equal(t, "i.json", filepath.Base(res.IndexPath))

		data, err := os.ReadFile(res.IndexPath)
		require.NoError(t, err)
		s := string(data)
		assert.Equal(t, 1, strings.Count(s, "\n"))
		assert.True(t, strings.HasSuffix(s, "}\n"))
		// HTML is not escaped and absent extensions are null
		assert.Contains(t, s, `"id":"A/B/<b>.bin"`)
		assert.Contains(t, s, `"ext":null,"mime":null`)
		assert.NotContains(t, s, "previewUrl")
	})
}

func TestWriteEmptyCategories(t *testing.T) {
	m := &types.Manifest{GeneratedAt: "2024-01-02T03:04:05.006Z", Files: []types.FileMeta{}}
	res, err := Write(m, Options{OutDir: t.TempDir()})
	require.NoError(t, err)

	data, err := os.ReadFile(res.CategoriesPath)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestWriteOutDirIsFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := Write(testManifest(), Options{OutDir: filepath.Join(blocker, "out")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create output directory")
}

func TestWriteCleansUpTempFiles(t *testing.T) {
	dir := t.TempDir()
	// A non-empty directory where categories.json should go makes the rename fail
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "categories.json", "keep"), 0755))

	_, err := Write(testManifest(), Options{OutDir: dir})
	require.Error(t, err)

	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.json")
	require.NoError(t, os.WriteFile(path, []byte("[]\n"), 0644))

	require.NoError(t, Remove(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Removing twice is fine
	require.NoError(t, Remove(path))
}
