package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/go-git/go-billy/v5"

	"github.com/dshills/mirrorindex/internal/logging"
	"github.com/dshills/mirrorindex/internal/scanner"
	"github.com/dshills/mirrorindex/pkg/types"
)

const (
	DefaultTitleMax     = 120
	DefaultDigestMax    = 240
	DefaultPreviewBytes = 4096

	ellipsis = "…"
)

// DefaultTextExtensions lists the extensions whose content is previewed
var DefaultTextExtensions = []string{"txt", "md", "markdown", "rst", "csv", "tsv", "json", "yaml", "yml", "log"}

var (
	// ErrInvalidUTF8 is reported when a preview sample is not valid UTF-8
	ErrInvalidUTF8 = errors.New("preview is not valid UTF-8")

	utf8BOM = []byte{0xEF, 0xBB, 0xBF}
)

// Options configures metadata extraction
type Options struct {
	DefaultMime    string            // Fallback MIME type (default: application/octet-stream)
	TitleMax       int               // Max title length in runes (default: 120)
	DigestMax      int               // Max digest length in runes (default: 240)
	PreviewBytes   int               // Bytes sampled from text files (default: 4096)
	MimeOverrides  map[string]string // Extension -> MIME type
	TextExtensions []string          // Previewed extensions (nil means DefaultTextExtensions)
}

// Extractor turns scanner entries into file metadata
type Extractor struct {
	fs     billy.Filesystem
	opts   Options
	mimes  *MimeTable
	text   map[string]bool
	logger *logging.Logger

	previewFailures atomic.Int64
}

// New creates an extractor reading previews from fsys
func New(fsys billy.Filesystem, opts Options, logger *logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.DefaultMime == "" {
		opts.DefaultMime = DefaultMimeType
	}
	if opts.TitleMax <= 0 {
		opts.TitleMax = DefaultTitleMax
	}
	if opts.DigestMax <= 0 {
		opts.DigestMax = DefaultDigestMax
	}
	if opts.PreviewBytes <= 0 {
		opts.PreviewBytes = DefaultPreviewBytes
	}
	exts := opts.TextExtensions
	if exts == nil {
		exts = DefaultTextExtensions
	}
	text := make(map[string]bool, len(exts))
	for _, ext := range exts {
		text[normalizeExt(ext)] = true
	}

	return &Extractor{
		fs:     fsys,
		opts:   opts,
		mimes:  NewMimeTable(opts.DefaultMime, opts.MimeOverrides),
		text:   text,
		logger: logger,
	}
}

// Extract converts one entry. Directories return false and no metadata.
// Preview failures are logged and leave Title and Digest empty.
func (e *Extractor) Extract(entry scanner.Entry) (types.FileMeta, bool) {
	if entry.IsDir {
		return types.FileMeta{}, false
	}

	meta := types.FileMeta{
		ID:         entry.RelPath,
		Name:       entry.Name,
		Path:       entry.RelPath,
		CategoryID: types.ParentPath(entry.RelPath),
		Ext:        entry.Ext,
		Mime:       e.mimes.Lookup(entry.Ext),
	}
	if entry.Info != nil {
		meta.Size = entry.Info.Size()
		meta.ModifiedAt = types.FormatTimestamp(entry.Info.ModTime())
	}

	if e.isText(entry.Ext) && meta.Size > 0 {
		text, err := e.readPreview(entry.RelPath)
		if err != nil {
			e.previewFailures.Add(1)
			e.logger.Warn("metadata:preview-failed", logging.Fields{"path": entry.RelPath, "err": err})
		} else {
			meta.Title = Title(text, e.opts.TitleMax)
			meta.Digest = Digest(text, e.opts.DigestMax)
		}
	}

	return meta, true
}

// PreviewFailures returns the number of previews that could not be read
func (e *Extractor) PreviewFailures() int {
	return int(e.previewFailures.Load())
}

func (e *Extractor) isText(ext *string) bool {
	return ext != nil && e.text[normalizeExt(*ext)]
}

// readPreview samples the head of a file and decodes it as UTF-8
func (e *Extractor) readPreview(relPath string) (string, error) {
	f, err := e.fs.Open(relPath)
	if err != nil {
		return "", fmt.Errorf("failed to open: %w", err)
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, e.opts.PreviewBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("failed to read: %w", err)
	}

	return decodeSample(buf[:n], n == len(buf))
}

// decodeSample strips a BOM and, when the sample was cut by the byte budget,
// a trailing partial rune.
func decodeSample(b []byte, truncated bool) (string, error) {
	b = bytes.TrimPrefix(b, utf8BOM)
	if truncated {
		b = trimPartialRune(b)
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}

func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i]
			}
			break
		}
	}
	return b
}

// Title returns the first non-blank line, trimmed and truncated
func Title(text string, limit int) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return Truncate(line, limit)
		}
	}
	return ""
}

// Digest collapses whitespace runs to single spaces and truncates
func Digest(text string, limit int) string {
	return Truncate(strings.Join(strings.Fields(text), " "), limit)
}

// Truncate shortens s to at most limit runes, the last being an ellipsis
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + ellipsis
}
