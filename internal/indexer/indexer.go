package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"

	"github.com/dshills/mirrorindex/internal/category"
	"github.com/dshills/mirrorindex/internal/composer"
	"github.com/dshills/mirrorindex/internal/config"
	"github.com/dshills/mirrorindex/internal/extractor"
	"github.com/dshills/mirrorindex/internal/logging"
	"github.com/dshills/mirrorindex/internal/scanner"
	"github.com/dshills/mirrorindex/internal/writer"
	"github.com/dshills/mirrorindex/pkg/types"
)

// Sink receives every composed manifest, e.g. the SQLite catalog
type Sink interface {
	SaveManifest(ctx context.Context, buildID, root string, m *types.Manifest) error
}

// Indexer coordinates the build pipeline: scan -> extract -> categorize -> compose -> write
type Indexer struct {
	lock   IndexLock
	sink   Sink
	retry  RetryConfig
	logger *logging.Logger
	now    func() time.Time

	mu   sync.RWMutex
	last *Statistics
}

// Options contains the settings of one build
type Options struct {
	Root           string            // Scan root
	OutDir         string            // Output directory, relative paths resolve against Root
	IndexFile      string            // default: index.json
	CategoriesFile string            // default: categories.json
	Formats        []string          // Artifacts kept after the build (default: both)
	Pretty         bool              // Indented JSON
	IncludeEmpty   bool              // Keep empty categories
	Locale         string            // Collation locale
	Scan           scanner.Options   // Ignore list and lstat fan-out
	Metadata       extractor.Options // MIME and preview settings
}

// Statistics contains statistics about a build
type Statistics struct {
	BuildID         string
	Root            string
	Files           int
	Categories      int
	Ignored         int
	Skipped         int
	PreviewFailures int
	Written         []string // Artifacts left on disk
	Removed         []string // Artifacts deleted because their format was not requested
	Duration        time.Duration
	FinishedAt      time.Time
	Manifest        *types.Manifest
}

// New creates an indexer. sink may be nil.
func New(sink Sink, logger *logging.Logger) *Indexer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Indexer{
		sink:   sink,
		retry:  DefaultRetryConfig(),
		logger: logger,
		now:    time.Now,
	}
}

// OptionsFromConfig maps the configuration file onto build options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Root:           cfg.Root,
		OutDir:         cfg.OutDir(),
		IndexFile:      cfg.IndexFile,
		CategoriesFile: cfg.CategoriesFile,
		Formats:        cfg.Formats,
		Pretty:         cfg.PrettyOutput(),
		IncludeEmpty:   cfg.IncludeEmpty,
		Locale:         cfg.Locale,
		Scan: scanner.Options{
			Ignore:      cfg.Ignore,
			Concurrency: cfg.Concurrency,
		},
		Metadata: extractor.Options{
			DefaultMime:   cfg.Metadata.DefaultMime,
			TitleMax:      cfg.Metadata.TitleMax,
			DigestMax:     cfg.Metadata.DigestMax,
			PreviewBytes:  cfg.Metadata.PreviewBytes,
			MimeOverrides: cfg.Metadata.MimeOverrides,
		},
	}
}

// Build runs the whole pipeline once. Only one build runs at a time per
// Indexer; a concurrent call fails with types.ErrIndexingInProgress.
func (idx *Indexer) Build(ctx context.Context, opts Options) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, types.ErrIndexingInProgress
	}
	defer idx.lock.Release()

	startTime := idx.now()

	root, err := resolveRoot(opts.Root)
	if err != nil {
		return nil, err
	}
	opts = withDefaults(opts, root)
	if err := validateFormats(opts.Formats); err != nil {
		return nil, err
	}

	stats := &Statistics{
		BuildID: uuid.NewString(),
		Root:    root,
	}
	idx.logger.Info("indexer:start", logging.Fields{"root": root, "out": opts.OutDir, "build": stats.BuildID})

	fsys := osfs.New(root)
	sc := scanner.New(fsys, opts.Scan, idx.logger)
	ex := extractor.New(fsys, opts.Metadata, idx.logger)

	files, err := collectFiles(ctx, sc, ex)
	if err != nil {
		return nil, err
	}

	categories := category.Build(files, category.Options{IncludeEmpty: opts.IncludeEmpty, Locale: opts.Locale})
	manifest := composer.Compose(files, categories, composer.Options{GeneratedAt: startTime, Locale: opts.Locale})
	manifest.Stats.IgnoredPaths = sc.Ignored()
	manifest.Stats.ProcessingTimeMs = idx.now().Sub(startTime).Milliseconds()

	res, err := writer.Write(manifest, writer.Options{
		OutDir:         opts.OutDir,
		IndexFile:      opts.IndexFile,
		CategoriesFile: opts.CategoriesFile,
		Pretty:         opts.Pretty,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	idx.logger.Info("indexer:write-complete", logging.Fields{
		"files": res.Paths(),
		"size":  logging.Bytes(res.Bytes),
	})

	if idx.sink != nil {
		err := retryWithBackoff(ctx, idx.retry, func() error {
			return idx.sink.SaveManifest(ctx, stats.BuildID, root, manifest)
		}, func(attempt int, err error) {
			idx.logger.Warn("indexer:sink-retry", logging.Fields{"attempt": attempt, "error": err})
		})
		if err != nil {
			return nil, fmt.Errorf("failed to save manifest: %w", err)
		}
	}

	if err := idx.removeUnrequested(res, opts.Formats, stats); err != nil {
		return nil, err
	}

	stats.Files = manifest.Stats.TotalFiles
	stats.Categories = manifest.Stats.TotalCategories
	stats.Ignored = sc.Ignored()
	stats.Skipped = sc.Skipped()
	stats.PreviewFailures = ex.PreviewFailures()
	stats.Manifest = manifest
	stats.FinishedAt = idx.now()
	stats.Duration = stats.FinishedAt.Sub(startTime)

	idx.logger.Info("indexer:complete", logging.Fields{
		"files":      stats.Files,
		"categories": stats.Categories,
		"ignored":    stats.Ignored,
		"skipped":    stats.Skipped,
		"duration":   stats.Duration.Round(time.Millisecond),
	})

	idx.mu.Lock()
	idx.last = stats
	idx.mu.Unlock()

	return stats, nil
}

// LastBuild returns the statistics of the most recent successful build
func (idx *Indexer) LastBuild() (*Statistics, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.last, idx.last != nil
}

// Lock exposes the build lock so callers can reserve the indexer
func (idx *Indexer) Lock() *IndexLock {
	return &idx.lock
}

// Building reports whether a build is running
func (idx *Indexer) Building() bool {
	return idx.lock.Held()
}

// collectFiles drains the scanner through the extractor
func collectFiles(ctx context.Context, sc *scanner.Scanner, ex *extractor.Extractor) ([]types.FileMeta, error) {
	files := make([]types.FileMeta, 0, 256)
	for {
		entry, ok := sc.Next(ctx)
		if !ok {
			break
		}
		if meta, ok := ex.Extract(entry); ok {
			files = append(files, meta)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return files, nil
}

// removeUnrequested deletes written artifacts whose format was not requested
func (idx *Indexer) removeUnrequested(res *writer.Result, formats []string, stats *Statistics) error {
	artifacts := []struct {
		format string
		path   string
	}{
		{config.FormatIndex, res.IndexPath},
		{config.FormatCategories, res.CategoriesPath},
	}

	for _, a := range artifacts {
		if contains(formats, a.format) {
			stats.Written = append(stats.Written, a.path)
			continue
		}
		if err := writer.Remove(a.path); err != nil {
			return err
		}
		stats.Removed = append(stats.Removed, a.path)
		idx.logger.Info("indexer:remove", logging.Fields{"file": a.path})
	}
	return nil
}

func resolveRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidRoot, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", types.ErrInvalidRoot, abs)
	}
	return abs, nil
}

func withDefaults(opts Options, root string) Options {
	if opts.OutDir == "" {
		opts.OutDir = config.DefaultOut
	}
	if !filepath.IsAbs(opts.OutDir) {
		opts.OutDir = filepath.Join(root, opts.OutDir)
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []string{config.FormatIndex, config.FormatCategories}
	}

	// An output directory inside the root is never indexed
	if rel, err := filepath.Rel(root, opts.OutDir); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
		ignore := opts.Scan.Ignore
		if ignore == nil {
			ignore = scanner.DefaultIgnore
		}
		opts.Scan.Ignore = append(append([]string(nil), ignore...), filepath.ToSlash(rel))
	}
	return opts
}

func validateFormats(formats []string) error {
	for _, f := range formats {
		if f != config.FormatIndex && f != config.FormatCategories {
			return fmt.Errorf("%w: %s", types.ErrUnknownFormat, f)
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
