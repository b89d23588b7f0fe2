package types

import (
	"strings"
	"time"
)

// TimestampLayout is the ISO-8601 layout used for every timestamp in a manifest.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp is the inverse of FormatTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}

// FileMeta describes one indexed file. ID equals Path and is the primary key.
type FileMeta struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Path       string  `json:"path"`
	CategoryID string  `json:"categoryId"`
	Ext        *string `json:"ext"`
	Mime       *string `json:"mime"`
	Size       int64   `json:"size"`
	ModifiedAt string  `json:"modifiedAt"`

	// Optional text preview fields
	Title  string `json:"title,omitempty"`
	Digest string `json:"digest,omitempty"`

	// Filled by a serving layer, never by the indexer
	PreviewURL  string `json:"previewUrl,omitempty"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// Validate checks the identity invariants of a file record
func (f *FileMeta) Validate() error {
	if f.ID == "" || f.Path == "" {
		return ErrEmptyID
	}
	if f.ID != f.Path {
		return ErrIDPathMismatch
	}
	if f.CategoryID != "" && f.CategoryID != ParentPath(f.Path) {
		return ErrCategoryMismatch
	}
	if f.Size < 0 {
		return ErrNegativeSize
	}
	return nil
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Segments splits a POSIX relative path into its non-empty segments.
func Segments(p string) []string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParentPath drops the final segment of p. Root-level paths yield "".
func ParentPath(p string) string {
	segs := Segments(p)
	if len(segs) <= 1 {
		return ""
	}
	return strings.Join(segs[:len(segs)-1], "/")
}
