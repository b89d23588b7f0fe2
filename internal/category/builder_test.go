package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/mirrorindex/pkg/types"
)

func file(path string) types.FileMeta {
	return types.FileMeta{ID: path, Path: path, CategoryID: types.ParentPath(path)}
}

func ids(nodes []types.CategoryNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func byID(nodes []types.CategoryNode) map[string]types.CategoryNode {
	out := make(map[string]types.CategoryNode, len(nodes))
	for _, n := range nodes {
		out[n.ID] = n
	}
	return out
}

func TestBuildScenario(t *testing.T) {
	nodes := Build([]types.FileMeta{file("A/x.txt"), file("A/B/y.md")}, Options{})
	require.Len(t, nodes, 2)

	a := nodes[0]
	assert.Equal(t, "A", a.ID)
	assert.Equal(t, "A", a.Name)
	assert.Equal(t, "A", a.Path)
	assert.Nil(t, a.ParentID)
	assert.Equal(t, 0, a.Depth)
	assert.Equal(t, 1, a.FileCount)
	assert.Equal(t, 1, a.ChildrenCount)

	b := nodes[1]
	assert.Equal(t, "A/B", b.ID)
	assert.Equal(t, "B", b.Name)
	require.NotNil(t, b.ParentID)
	assert.Equal(t, "A", *b.ParentID)
	assert.Equal(t, 1, b.Depth)
	assert.Equal(t, 1, b.FileCount)
	assert.Equal(t, 0, b.ChildrenCount)
}

func TestBuildDirectCountsOnly(t *testing.T) {
	files := []types.FileMeta{
		file("a/b/c/1.txt"),
		file("a/b/c/2.txt"),
		file("a/b/d/3.txt"),
		file("a/4.txt"),
		file("root.txt"),
	}
	nodes := byID(Build(files, Options{}))

	require.Len(t, nodes, 4)
	assert.Equal(t, 1, nodes["a"].FileCount)
	assert.Equal(t, 1, nodes["a"].ChildrenCount)
	assert.Equal(t, 0, nodes["a/b"].FileCount)
	assert.Equal(t, 2, nodes["a/b"].ChildrenCount)
	assert.Equal(t, 2, nodes["a/b/c"].FileCount)
	assert.Equal(t, 1, nodes["a/b/d"].FileCount)

	// Properties: every file category exists and counts match exactly
	for _, f := range files {
		if f.CategoryID == "" {
			continue
		}
		_, ok := nodes[f.CategoryID]
		assert.True(t, ok, "missing category %s", f.CategoryID)
	}
	for id, n := range nodes {
		direct, children := 0, 0
		for _, f := range files {
			if f.CategoryID == id {
				direct++
			}
		}
		for _, other := range nodes {
			if other.Parent() == id && other.ParentID != nil {
				children++
			}
		}
		assert.Equal(t, direct, n.FileCount, id)
		assert.Equal(t, children, n.ChildrenCount, id)
		assert.NoError(t, (&n).Validate())
	}
}

func TestBuildFallsBackToPath(t *testing.T) {
	files := []types.FileMeta{
		{ID: "x/y/z.txt", Path: "x/y/z.txt"},
		{ID: "top.txt", Path: "top.txt"},
	}
	nodes := Build(files, Options{})
	assert.Equal(t, []string{"x", "x/y"}, ids(nodes))
}

func TestBuildEmptyFiltering(t *testing.T) {
	// Interior nodes always have children, so only an empty input is empty
	assert.Empty(t, Build(nil, Options{}))
	assert.Empty(t, Build(nil, Options{IncludeEmpty: true}))

	nodes := Build([]types.FileMeta{file("a/b/c.txt")}, Options{})
	assert.Equal(t, []string{"a", "a/b"}, ids(nodes))
}

func TestBuildOrdering(t *testing.T) {
	files := []types.FileMeta{
		file("zeta/1.txt"),
		file("Beta/2.txt"),
		file("alpha/3.txt"),
		file("alpha/Zed/4.txt"),
		file("alpha/beta/5.txt"),
		file("éclair/6.txt"),
	}
	nodes := Build(files, Options{})

	assert.Equal(t, []string{
		"alpha", "Beta", "éclair", "zeta",
		"alpha/beta", "alpha/Zed",
	}, ids(nodes))

	for i := 1; i < len(nodes); i++ {
		assert.LessOrEqual(t, nodes[i-1].Depth, nodes[i].Depth)
	}
}

func TestBuildDeterministic(t *testing.T) {
	files := []types.FileMeta{file("b/1"), file("a/2"), file("a/c/3"), file("d/e/f/4")}
	reversed := make([]types.FileMeta, len(files))
	for i := range files {
		reversed[len(files)-1-i] = files[i]
	}
	assert.Equal(t, Build(files, Options{}), Build(reversed, Options{}))
}
