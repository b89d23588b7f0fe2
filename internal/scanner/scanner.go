package scanner

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/mirrorindex/internal/logging"
)

// DefaultConcurrency bounds parallel lstat calls within one directory
const DefaultConcurrency = 8

// Entry is one file or directory produced by the scanner
type Entry struct {
	AbsPath  string      // Absolute (or filesystem-root based) path
	RelPath  string      // POSIX path relative to the scan root
	Name     string      // Base name
	Ext      *string     // Lower-cased extension without the dot; nil for directories and extensionless files
	IsDir    bool        // Directory flag
	Depth    int         // Root children have depth 1
	Segments []string    // RelPath split on "/"
	Info     os.FileInfo // Lstat snapshot
}

// Options configures a scan
type Options struct {
	Ignore      []string // Ignore list (nil means DefaultIgnore)
	Concurrency int      // Parallel lstat calls per directory (default: DefaultConcurrency)
}

type pendingDir struct {
	relPath string
	depth   int
}

// Scanner is a pull iterator over a directory tree.
//
// Traversal is depth-first over an explicit LIFO stack. The children of one
// directory are emitted in name order, then the last emitted subdirectory is
// expanded first. For a fixed filesystem snapshot the emission order is fixed.
// A Scanner is single-use and not safe for concurrent calls to Next.
type Scanner struct {
	fs      billy.Filesystem
	root    string
	matcher *Matcher
	limit   int
	logger  *logging.Logger

	stack   []pendingDir
	pending []Entry
	err     error
	done    bool

	ignored atomic.Int64
	skipped atomic.Int64
}

// New creates a scanner rooted at the filesystem root
func New(fsys billy.Filesystem, opts Options, logger *logging.Logger) *Scanner {
	if logger == nil {
		logger = logging.Discard()
	}
	ignore := opts.Ignore
	if ignore == nil {
		ignore = DefaultIgnore
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	return &Scanner{
		fs:      fsys,
		root:    fsys.Root(),
		matcher: NewMatcher(ignore),
		limit:   limit,
		logger:  logger,
		stack:   []pendingDir{{relPath: "", depth: 0}},
	}
}

// Next returns the next entry. It returns false when the tree is exhausted or
// the context is cancelled; check Err afterwards.
func (s *Scanner) Next(ctx context.Context) (Entry, bool) {
	for {
		if s.done {
			return Entry{}, false
		}
		if err := ctx.Err(); err != nil {
			s.err = err
			s.done = true
			return Entry{}, false
		}

		if len(s.pending) > 0 {
			entry := s.pending[0]
			s.pending = s.pending[1:]
			if entry.IsDir {
				s.stack = append(s.stack, pendingDir{relPath: entry.RelPath, depth: entry.Depth})
			}
			return entry, true
		}

		if len(s.stack) == 0 {
			s.done = true
			return Entry{}, false
		}

		current := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]
		s.pending = s.expand(current)
	}
}

// Err returns the error that stopped the iteration, if any.
// Per-entry failures are logged and never reported here.
func (s *Scanner) Err() error {
	return s.err
}

// Ignored returns the number of entries skipped by the ignore list
func (s *Scanner) Ignored() int {
	return int(s.ignored.Load())
}

// Skipped returns the number of entries dropped because they could not be
// listed or stat'ed
func (s *Scanner) Skipped() int {
	return int(s.skipped.Load())
}

// Collect drains the scanner into a slice
func (s *Scanner) Collect(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	for {
		entry, ok := s.Next(ctx)
		if !ok {
			break
		}
		entries = append(entries, entry)
	}
	if err := s.Err(); err != nil {
		return entries, fmt.Errorf("failed to scan %s: %w", s.root, err)
	}
	return entries, nil
}

// expand lists one directory and lstats its children with bounded fan-out.
// Output order follows the sorted child names regardless of completion order.
func (s *Scanner) expand(dir pendingDir) []Entry {
	infos, err := s.fs.ReadDir(dir.relPath)
	if err != nil {
		s.skipped.Add(1)
		s.logger.Warn("indexer:skip-directory", logging.Fields{"directory": displayDir(dir.relPath), "err": err})
		return nil
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	sort.Strings(names)

	results := make([]*Entry, len(names))
	var g errgroup.Group
	g.SetLimit(s.limit)

	for i, name := range names {
		rel := path.Join(dir.relPath, name)
		if s.matcher.Match(rel) {
			s.ignored.Add(1)
			s.logger.Debug("indexer:ignore", logging.Fields{"path": rel})
			continue
		}

		g.Go(func() error {
			info, err := s.fs.Lstat(rel)
			if err != nil {
				s.skipped.Add(1)
				s.logger.Warn("indexer:stat-failed", logging.Fields{"path": rel, "err": err})
				return nil
			}
			entry := s.newEntry(rel, name, info, dir.depth+1)
			results[i] = &entry
			return nil
		})
	}
	_ = g.Wait()

	entries := make([]Entry, 0, len(results))
	for _, e := range results {
		if e != nil {
			entries = append(entries, *e)
		}
	}
	return entries
}

func (s *Scanner) newEntry(rel, name string, info os.FileInfo, depth int) Entry {
	isDir := info.IsDir()
	return Entry{
		AbsPath:  filepath.Join(s.root, filepath.FromSlash(rel)),
		RelPath:  rel,
		Name:     name,
		Ext:      extension(name, isDir),
		IsDir:    isDir,
		Depth:    depth,
		Segments: strings.Split(rel, "/"),
		Info:     info,
	}
}

// extension returns the last extension: "archive.tar.gz" gives "gz".
// Dot files such as ".bashrc" have none.
func extension(name string, isDir bool) *string {
	if isDir {
		return nil
	}
	ext := strings.TrimPrefix(path.Ext(strings.TrimLeft(name, ".")), ".")
	if ext == "" {
		return nil
	}
	ext = strings.ToLower(ext)
	return &ext
}

func displayDir(rel string) string {
	if rel == "" {
		return "."
	}
	return rel
}
