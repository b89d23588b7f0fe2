// Package scanner walks a directory tree and yields one Entry per file and
// directory below the root.
//
// # Iteration
//
// Scanner is pull-based:
//
//	sc := scanner.New(osfs.New(root), scanner.Options{}, logger)
//	for {
//	    entry, ok := sc.Next(ctx)
//	    if !ok {
//	        break
//	    }
//	    // use entry
//	}
//	if err := sc.Err(); err != nil {
//	    return err
//	}
//
// The walk uses an explicit stack instead of recursion, so tree depth is not
// limited by the goroutine stack. Children of a directory are emitted in name
// order; the most recently emitted subdirectory is expanded next.
//
// # Ignore lists
//
// An ignore entry excludes the relative path equal to it and everything nested
// under it, so "node_modules" skips the root-level directory but keeps
// "A/node_modules". Prefix an entry with "**/" to match it below every
// directory ("**/.DS_Store"). Entries containing *, ? or [ are globs anchored
// at the root. Ignored entries are never stat'ed and are counted by Ignored.
//
// # Failures
//
// A directory that cannot be listed is logged as indexer:skip-directory and its
// subtree is skipped. An entry that cannot be stat'ed is logged as
// indexer:stat-failed and dropped. Neither stops the scan; both are counted by
// Skipped. Only context cancellation ends the scan with an error.
package scanner
