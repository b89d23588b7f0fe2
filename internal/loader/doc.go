// Package loader reads written index files back for serving.
//
// A Loader searches its candidate directories in order and uses the first one
// that contains the index file. Categories come from the categories file when
// present, otherwise from the manifest itself, otherwise they are rebuilt from
// the file list with the category builder.
//
// Snapshots are cached for MaxAge. Load(ctx, true) bypasses the cache, and
// concurrent refreshes are coalesced so the files are read once.
package loader
