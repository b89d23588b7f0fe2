package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/sync/singleflight"

	"github.com/dshills/mirrorindex/internal/category"
	"github.com/dshills/mirrorindex/internal/logging"
	"github.com/dshills/mirrorindex/pkg/types"
)

const (
	DefaultIndexFile      = "index.json"
	DefaultCategoriesFile = "categories.json"
	DefaultMaxAge         = 30 * time.Second
)

// ErrNotFound is returned when no candidate directory holds an index file
var ErrNotFound = fmt.Errorf("index %w", types.ErrNotFound)

// Where the categories of a snapshot came from
const (
	SourceCategoriesFile = "categories-file"
	SourceManifest       = "manifest"
	SourceRebuilt        = "rebuilt"
)

// Options configures a Loader
type Options struct {
	Candidates     []string      // Directories searched in order; the first with an index wins
	IndexFile      string        // default: index.json
	CategoriesFile string        // default: categories.json
	MaxAge         time.Duration // default: 30s
	Locale         string        // Used when categories are rebuilt from files
}

// Snapshot is one loaded manifest. The manifest always carries its categories.
type Snapshot struct {
	Manifest         *types.Manifest
	Dir              string
	CategoriesSource string
	LoadedAt         time.Time
}

// Loader reads written manifests back from disk and caches the result.
// It is safe for concurrent use; concurrent refreshes share one read.
type Loader struct {
	opts   Options
	logger *logging.Logger
	open   func(dir string) billy.Filesystem
	now    func() time.Time

	group singleflight.Group

	mu     sync.RWMutex
	cached *Snapshot
}

// New creates a loader
func New(opts Options, logger *logging.Logger) *Loader {
	if opts.IndexFile == "" {
		opts.IndexFile = DefaultIndexFile
	}
	if opts.CategoriesFile == "" {
		opts.CategoriesFile = DefaultCategoriesFile
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Loader{
		opts:   opts,
		logger: logger.Named("loader"),
		open:   func(dir string) billy.Filesystem { return osfs.New(dir) },
		now:    time.Now,
	}
}

// Load returns the cached snapshot while it is younger than MaxAge, otherwise
// it reads the candidates again. force skips the cache.
func (l *Loader) Load(ctx context.Context, force bool) (*Snapshot, error) {
	if !force {
		if snap := l.fresh(); snap != nil {
			return snap, nil
		}
	}

	ch := l.group.DoChan("load", func() (interface{}, error) {
		snap, err := l.read()
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.cached = snap
		l.mu.Unlock()
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

// Invalidate drops the cached snapshot so the next Load reads from disk
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.cached = nil
	l.mu.Unlock()
}

// Manifest implements catalog.ManifestSource
func (l *Loader) Manifest(ctx context.Context) (*types.Manifest, error) {
	snap, err := l.Load(ctx, false)
	if err != nil {
		return nil, err
	}
	return snap.Manifest, nil
}

func (l *Loader) fresh() *Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.cached == nil || l.now().Sub(l.cached.LoadedAt) >= l.opts.MaxAge {
		return nil
	}
	return l.cached
}

func (l *Loader) read() (*Snapshot, error) {
	for _, dir := range l.opts.Candidates {
		fs := l.open(dir)

		data, err := util.ReadFile(fs, l.opts.IndexFile)
		if errors.Is(err, os.ErrNotExist) {
			l.logger.Debug("loader:miss", logging.Fields{"dir": dir, "file": l.opts.IndexFile})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s in %s: %w", l.opts.IndexFile, dir, err)
		}

		var m types.Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse %s in %s: %w", l.opts.IndexFile, dir, err)
		}
		if m.Files == nil {
			m.Files = []types.FileMeta{}
		}

		source, err := l.categories(fs, &m)
		if err != nil {
			return nil, fmt.Errorf("failed to load categories in %s: %w", dir, err)
		}

		snap := &Snapshot{
			Manifest:         &m,
			Dir:              dir,
			CategoriesSource: source,
			LoadedAt:         l.now(),
		}
		l.logger.Info("loader:refresh", logging.Fields{
			"dir":        dir,
			"files":      len(m.Files),
			"categories": len(m.Categories),
			"source":     source,
			"bytes":      logging.Bytes(int64(len(data))),
		})
		return snap, nil
	}

	l.logger.Warn("loader:miss", logging.Fields{"candidates": l.opts.Candidates})
	return nil, ErrNotFound
}

// categories fills m.Categories from the categories file, falling back to the
// manifest's own list and finally to rebuilding from the files.
func (l *Loader) categories(fs billy.Filesystem, m *types.Manifest) (string, error) {
	data, err := util.ReadFile(fs, l.opts.CategoriesFile)
	switch {
	case err == nil:
		var cats []types.CategoryNode
		if err := json.Unmarshal(data, &cats); err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", l.opts.CategoriesFile, err)
		}
		if cats == nil {
			cats = []types.CategoryNode{}
		}
		m.Categories = cats
		return SourceCategoriesFile, nil
	case !errors.Is(err, os.ErrNotExist):
		return "", err
	}

	if m.Categories != nil {
		return SourceManifest, nil
	}
	m.Categories = category.Build(m.Files, category.Options{Locale: l.opts.Locale})
	return SourceRebuilt, nil
}
