package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/mirrorindex/pkg/types"
)

func createTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func scenarioRoot(t *testing.T) string {
	root := t.TempDir()
	createTestFile(t, root, "A/x.txt", "Hello\nworld")
	createTestFile(t, root, "A/B/y.md", "# Title\nBody text")
	return root
}

func TestBuildCommand(t *testing.T) {
	root := scenarioRoot(t)

	_, err := execute(t, "--root", root, "--out", "public")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "public", "index.json"))
	require.NoError(t, err)
	var m types.Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Len(t, m.Files, 2)
	assert.Nil(t, m.Categories)
	assert.Contains(t, string(data), "\n  \"files\"")

	var cats []types.CategoryNode
	data, err = os.ReadFile(filepath.Join(root, "public", "categories.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &cats))
	assert.Len(t, cats, 2)
}

func TestBuildCommandFlags(t *testing.T) {
	root := scenarioRoot(t)
	out := t.TempDir()

	_, err := execute(t, "--root", root, "--out", out, "--formats", "index", "--pretty", "--no-pretty", "--index-file", "files.json")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "files.json"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "\n"), "compact output is one line")

	_, err = os.Stat(filepath.Join(out, "categories.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestBuildCommandConfigFile(t *testing.T) {
	root := scenarioRoot(t)
	createTestFile(t, root, "skip/me.txt", "x")
	out := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "mirrorindex.yaml")
	cfg := "root: " + root + "\nout: " + out + "\nignore: [skip]\npretty: false\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	_, err := execute(t, "--config", cfgPath)
	require.NoError(t, err)

	var m types.Manifest
	data, err := os.ReadFile(filepath.Join(out, "index.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Len(t, m.Files, 2)
	assert.Equal(t, 1, m.Stats.IgnoredPaths)
}

func TestBuildCommandWithDatabase(t *testing.T) {
	root := scenarioRoot(t)
	db := filepath.Join(t.TempDir(), "index.db")

	_, err := execute(t, "--root", root, "--db", db)
	require.NoError(t, err)

	info, err := os.Stat(db)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestBuildCommandInvalidRoot(t *testing.T) {
	_, err := execute(t, "--root", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestBuildCommandInvalidFormat(t *testing.T) {
	root := scenarioRoot(t)
	_, err := execute(t, "--root", root, "--formats", "index,xml")
	assert.Error(t, err)
}

func TestHelpDoesNotBuild(t *testing.T) {
	root := scenarioRoot(t)

	out, err := execute(t, "--root", root, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "--no-pretty")

	_, err = os.Stat(filepath.Join(root, "web"))
	assert.True(t, os.IsNotExist(err))
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "mirrorindex dev")
	assert.Contains(t, out, "SQLite Driver:")
}

func TestAggregateCommand(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.json")
	second := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(first, []byte(`[{"id":"a","name":"a","path":"a","parentId":null,"depth":0,"childrenCount":0,"fileCount":2}]`), 0644))
	require.NoError(t, os.WriteFile(second, []byte(`[{"id":"a/b","name":"b","path":"a/b","parentId":"a","depth":1,"childrenCount":0,"fileCount":3}]`), 0644))

	out, err := execute(t, "aggregate", first, second)
	require.NoError(t, err)

	var nodes []types.CategoryNode
	require.NoError(t, json.Unmarshal([]byte(out), &nodes))
	require.Len(t, nodes, 2)
	assert.Equal(t, "a", nodes[0].ID)
	assert.Equal(t, 5, nodes[0].TotalFiles)
	assert.Equal(t, 1, nodes[0].ChildrenCount)

	target := filepath.Join(dir, "out.json")
	_, err = execute(t, "aggregate", first, "-o", target, "--compact")
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
}

func TestAggregateCommandMissingFile(t *testing.T) {
	_, err := execute(t, "aggregate", filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
