// Package extractor converts scanner entries into types.FileMeta records.
//
// # Metadata
//
// ID and Path are the entry's relative path. CategoryID is that path without
// its last segment, so files directly under the root have an empty category.
// The MIME type comes from a built-in extension table that can be extended
// through Options.MimeOverrides; unknown or missing extensions fall back to
// Options.DefaultMime.
//
// # Previews
//
// Files with a text extension (txt, md, markdown, rst, csv, tsv, json, yaml,
// yml, log) are sampled: at most PreviewBytes bytes are read and decoded as
// UTF-8. The title is the first non-blank line and the digest is the whole
// sample with whitespace collapsed. Both are cut to their maximum rune count
// with a trailing "…".
//
// Read and decode failures are logged as metadata:preview-failed and leave
// the fields empty; they never fail the extraction.
package extractor
