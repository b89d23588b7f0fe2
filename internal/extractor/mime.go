package extractor

import "strings"

// DefaultMimeType is used for unknown and missing extensions
const DefaultMimeType = "application/octet-stream"

// mimeTypes maps lower-cased extensions (no dot) to MIME types
var mimeTypes = map[string]string{
	// Text
	"txt":      "text/plain",
	"text":     "text/plain",
	"log":      "text/plain",
	"conf":     "text/plain",
	"ini":      "text/plain",
	"md":       "text/markdown",
	"markdown": "text/markdown",
	"rst":      "text/x-rst",
	"csv":      "text/csv",
	"tsv":      "text/tab-separated-values",
	"html":     "text/html",
	"htm":      "text/html",
	"css":      "text/css",
	"js":       "text/javascript",
	"mjs":      "text/javascript",
	"yaml":     "text/yaml",
	"yml":      "text/yaml",
	"xml":      "application/xml",
	"json":     "application/json",
	"ts":       "video/mp2t", // MPEG transport stream, not TypeScript
	"go":       "text/x-go",
	"py":       "text/x-python",
	"sh":       "application/x-sh",
	"toml":     "application/toml",

	// Images
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
	"bmp":  "image/bmp",
	"ico":  "image/vnd.microsoft.icon",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"avif": "image/avif",

	// Audio and video
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"flac": "audio/flac",
	"m4a":  "audio/mp4",
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"mov":  "video/quicktime",
	"mkv":  "video/x-matroska",
	"avi":  "video/x-msvideo",

	// Documents
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"epub": "application/epub+zip",

	// Archives
	"zip": "application/zip",
	"gz":  "application/gzip",
	"tgz": "application/gzip",
	"tar": "application/x-tar",
	"7z":  "application/x-7z-compressed",
	"rar": "application/vnd.rar",
	"bz2": "application/x-bzip2",
	"xz":  "application/x-xz",

	// Binaries
	"exe":  "application/x-msdownload",
	"dmg":  "application/x-apple-diskimage",
	"iso":  "application/x-iso9660-image",
	"apk":  "application/vnd.android.package-archive",
	"wasm": "application/wasm",
	"woff": "font/woff",
	"ttf":  "font/ttf",
}

// MimeTable resolves extensions to MIME types
type MimeTable struct {
	types    map[string]string
	fallback string
}

// NewMimeTable builds a table from the built-in mappings plus overrides.
// Override keys may carry a leading dot and any case.
func NewMimeTable(fallback string, overrides map[string]string) *MimeTable {
	table := make(map[string]string, len(mimeTypes)+len(overrides))
	for ext, mime := range mimeTypes {
		table[ext] = mime
	}
	for ext, mime := range overrides {
		table[normalizeExt(ext)] = mime
	}
	return &MimeTable{types: table, fallback: fallback}
}

// Lookup returns the MIME type for ext, or the fallback.
// A nil extension yields the fallback as-is; an empty fallback yields nil.
func (m *MimeTable) Lookup(ext *string) *string {
	if ext != nil {
		if mime, ok := m.types[normalizeExt(*ext)]; ok {
			return &mime
		}
	}
	if m.fallback == "" {
		return nil
	}
	fallback := m.fallback
	return &fallback
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
