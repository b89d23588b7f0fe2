// Package indexer coordinates the end-to-end build of a mirror index.
//
// # Basic Usage
//
//	idx := indexer.New(store, logger)
//
//	stats, err := idx.Build(ctx, indexer.Options{
//	    Root:   "/srv/mirror",
//	    OutDir: "web/public",
//	    Pretty: true,
//	})
//
//	fmt.Printf("Indexed %d files in %d categories\n", stats.Files, stats.Categories)
//
// # Pipeline
//
// Build executes the stages strictly in order:
//
//  1. Scan: walk the root with scanner.Scanner, applying the ignore list
//  2. Extract: turn each file entry into a types.FileMeta
//  3. Categorize: derive the category forest with category.Build
//  4. Compose: sort both lists and compute stats with composer.Compose
//  5. Write: persist index.json and categories.json with writer.Write
//  6. Sink: optionally hand the manifest to a Sink such as the SQLite store
//  7. Cleanup: delete artifacts whose format was not requested
//
// The generation timestamp is fixed when the build starts. ignoredPaths is
// the number of entries skipped by the ignore list and processingTimeMs the
// wall-clock time up to serialization.
//
// # Output Directory
//
// Relative output directories resolve against the root. When the output
// directory lies inside the root it is added to the ignore list, so a
// rebuild never indexes its own previous output.
//
// # Concurrency
//
// One Indexer runs one build at a time. IndexLock is acquired without
// blocking; a second caller gets types.ErrIndexingInProgress immediately:
//
//	if _, err := idx.Build(ctx, opts); errors.Is(err, types.ErrIndexingInProgress) {
//	    // another build is running
//	}
//
// Within a build only the lstat fan-out of the scanner and the two document
// writes run in parallel.
//
// # Error Handling
//
// Unreadable directories, failed lstat calls and unreadable previews are
// logged and skipped. An invalid root, a cancelled context, a write failure
// or a sink failure aborts the build and is returned to the caller.
package indexer
