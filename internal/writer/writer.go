package writer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/mirrorindex/pkg/types"
)

const (
	DefaultIndexFile      = "index.json"
	DefaultCategoriesFile = "categories.json"
)

// Options configures where and how the manifest is written
type Options struct {
	OutDir         string // Created with parents when missing
	IndexFile      string // default: index.json
	CategoriesFile string // default: categories.json
	Pretty         bool   // Two-space indentation
}

// Result reports what was written
type Result struct {
	IndexPath      string
	CategoriesPath string
	Bytes          int64
	Manifest       *types.Manifest
}

// Paths returns the written files in index, categories order
func (r *Result) Paths() []string {
	return []string{r.IndexPath, r.CategoriesPath}
}

type document struct {
	target string
	value  any
	tmp    string
	size   int64
}

// Write serializes the manifest without its categories to the index file and
// the categories alone to the categories file.
//
// Both documents are encoded concurrently into temporary files in OutDir.
// They are renamed into place only after both succeed, so a failed run leaves
// the previous pair untouched.
func Write(m *types.Manifest, opts Options) (*Result, error) {
	if opts.IndexFile == "" {
		opts.IndexFile = DefaultIndexFile
	}
	if opts.CategoriesFile == "" {
		opts.CategoriesFile = DefaultCategoriesFile
	}

	outDir, err := filepath.Abs(opts.OutDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	categories := m.Categories
	if categories == nil {
		categories = []types.CategoryNode{}
	}

	docs := []*document{
		{target: filepath.Join(outDir, opts.IndexFile), value: m.WithoutCategories()},
		{target: filepath.Join(outDir, opts.CategoriesFile), value: categories},
	}

	var g errgroup.Group
	for _, doc := range docs {
		g.Go(func() error {
			return writeTemp(outDir, doc, opts.Pretty)
		})
	}
	if err := g.Wait(); err != nil {
		cleanup(docs)
		return nil, err
	}

	result := &Result{Manifest: m}
	for _, doc := range docs {
		if err := os.Rename(doc.tmp, doc.target); err != nil {
			cleanup(docs)
			return nil, fmt.Errorf("failed to replace %s: %w", filepath.Base(doc.target), err)
		}
		doc.tmp = ""
		result.Bytes += doc.size
	}
	result.IndexPath = docs[0].target
	result.CategoriesPath = docs[1].target

	return result, nil
}

// Encode renders v the way Write does: no HTML escaping, optional
// two-space indentation and a trailing newline.
func Encode(v any, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTemp(dir string, doc *document, pretty bool) error {
	data, err := Encode(doc.value, pretty)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(doc.target), err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(doc.target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	doc.tmp = f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(doc.target), err)
	}
	if err := f.Chmod(0644); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to chmod %s: %w", filepath.Base(doc.target), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(doc.target), err)
	}
	doc.size = int64(len(data))
	return nil
}

func cleanup(docs []*document) {
	for _, doc := range docs {
		if doc.tmp != "" {
			_ = os.Remove(doc.tmp)
		}
	}
}

// Remove deletes a previously written artifact. Missing files are not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
