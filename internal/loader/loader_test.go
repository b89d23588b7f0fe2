package loader

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/mirrorindex/pkg/types"
)

const indexJSON = `{
  "generatedAt": "2024-05-01T10:00:00.000Z",
  "files": [
    {"id": "docs/a.txt", "name": "a.txt", "path": "docs/a.txt", "categoryId": "docs", "ext": "txt", "mime": "text/plain", "size": 3, "modifiedAt": "2024-05-01T09:00:00.000Z"},
    {"id": "docs/api/b.md", "name": "b.md", "path": "docs/api/b.md", "categoryId": "docs/api", "ext": "md", "mime": "text/markdown", "size": 4, "modifiedAt": "2024-05-01T09:00:00.000Z"}
  ],
  "stats": {"totalFiles": 2, "totalCategories": 2, "ignoredPaths": 0, "processingTimeMs": 5}
}
`

const categoriesJSON = `[
  {"id": "docs", "name": "docs", "path": "docs", "parentId": null, "depth": 0, "childrenCount": 1, "fileCount": 1}
]
`

type fixture struct {
	dirs  map[string]billy.Filesystem
	opens atomic.Int32
	clock time.Time
}

func newFixture() *fixture {
	return &fixture{
		dirs:  map[string]billy.Filesystem{},
		clock: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) dir(t *testing.T, name string, files map[string]string) {
	fs := memfs.New()
	for p, content := range files {
		require.NoError(t, util.WriteFile(fs, p, []byte(content), 0644))
	}
	f.dirs[name] = fs
}

func (f *fixture) loader(opts Options) *Loader {
	l := New(opts, nil)
	l.open = func(dir string) billy.Filesystem {
		f.opens.Add(1)
		if fs, ok := f.dirs[dir]; ok {
			return fs
		}
		return memfs.New()
	}
	l.now = func() time.Time { return f.clock }
	return l
}

func TestLoadFirstCandidateWins(t *testing.T) {
	f := newFixture()
	f.dir(t, "empty", nil)
	f.dir(t, "public", map[string]string{"index.json": indexJSON, "categories.json": categoriesJSON})
	f.dir(t, "dist", map[string]string{"index.json": `{"generatedAt":"other","files":[]}`})

	l := f.loader(Options{Candidates: []string{"empty", "public", "dist"}})
	snap, err := l.Load(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, "public", snap.Dir)
	assert.Equal(t, SourceCategoriesFile, snap.CategoriesSource)
	assert.Equal(t, "2024-05-01T10:00:00.000Z", snap.Manifest.GeneratedAt)
	assert.Len(t, snap.Manifest.Files, 2)
	require.Len(t, snap.Manifest.Categories, 1)
	assert.Equal(t, "docs", snap.Manifest.Categories[0].ID)
}

func TestLoadNotFound(t *testing.T) {
	f := newFixture()
	l := f.loader(Options{Candidates: []string{"a", "b"}})

	_, err := l.Load(context.Background(), false)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestLoadInvalidJSON(t *testing.T) {
	f := newFixture()
	f.dir(t, "public", map[string]string{"index.json": "{"})
	l := f.loader(Options{Candidates: []string{"public"}})

	_, err := l.Load(context.Background(), false)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestLoadCategoriesFromManifest(t *testing.T) {
	f := newFixture()
	withCats := `{"generatedAt":"x","files":[],"categories":[{"id":"a","name":"a","path":"a","parentId":null,"depth":0,"childrenCount":0,"fileCount":0}],"stats":{}}`
	f.dir(t, "public", map[string]string{"index.json": withCats})
	l := f.loader(Options{Candidates: []string{"public"}})

	snap, err := l.Load(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, SourceManifest, snap.CategoriesSource)
	require.Len(t, snap.Manifest.Categories, 1)
	assert.Equal(t, "a", snap.Manifest.Categories[0].ID)
}

func TestLoadRebuildsCategories(t *testing.T) {
	f := newFixture()
	f.dir(t, "public", map[string]string{"index.json": indexJSON})
	l := f.loader(Options{Candidates: []string{"public"}})

	snap, err := l.Load(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, SourceRebuilt, snap.CategoriesSource)

	var ids []string
	for _, c := range snap.Manifest.Categories {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"docs", "docs/api"}, ids)
}

func TestLoadCachesUntilMaxAge(t *testing.T) {
	f := newFixture()
	f.dir(t, "public", map[string]string{"index.json": indexJSON})
	l := f.loader(Options{Candidates: []string{"public"}, MaxAge: time.Minute})
	ctx := context.Background()

	first, err := l.Load(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.opens.Load())

	f.clock = f.clock.Add(30 * time.Second)
	second, err := l.Load(ctx, false)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), f.opens.Load())

	f.clock = f.clock.Add(31 * time.Second)
	third, err := l.Load(ctx, false)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, int32(2), f.opens.Load())
}

func TestLoadForce(t *testing.T) {
	f := newFixture()
	f.dir(t, "public", map[string]string{"index.json": indexJSON})
	l := f.loader(Options{Candidates: []string{"public"}})
	ctx := context.Background()

	first, err := l.Load(ctx, false)
	require.NoError(t, err)
	forced, err := l.Load(ctx, true)
	require.NoError(t, err)
	assert.NotSame(t, first, forced)
	assert.Equal(t, int32(2), f.opens.Load())
}

func TestInvalidate(t *testing.T) {
	f := newFixture()
	f.dir(t, "public", map[string]string{"index.json": indexJSON})
	l := f.loader(Options{Candidates: []string{"public"}})
	ctx := context.Background()

	_, err := l.Load(ctx, false)
	require.NoError(t, err)
	l.Invalidate()
	_, err = l.Load(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.opens.Load())
}

func TestLoadConcurrent(t *testing.T) {
	f := newFixture()
	f.dir(t, "public", map[string]string{"index.json": indexJSON})
	l := f.loader(Options{Candidates: []string{"public"}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := l.Load(context.Background(), true)
			if assert.NoError(t, err) {
				assert.Len(t, snap.Manifest.Files, 2)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, f.opens.Load(), int32(8))
}

func TestLoadCancelled(t *testing.T) {
	f := newFixture()
	l := f.loader(Options{Candidates: []string{"public"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Load(ctx, true)
	assert.Error(t, err)
}

func TestManifest(t *testing.T) {
	f := newFixture()
	f.dir(t, "public", map[string]string{"index.json": indexJSON, "categories.json": categoriesJSON})
	l := f.loader(Options{Candidates: []string{"public"}})

	m, err := l.Manifest(context.Background())
	require.NoError(t, err)
	assert.Len(t, m.Categories, 1)
}
