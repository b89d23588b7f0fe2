// Package storage provides SQLite-based persistence for index snapshots.
//
// Every successful build can be mirrored into a database so that long-running
// consumers (the MCP server, ad-hoc tooling) can query the last snapshot
// without re-reading the JSON files. Only one snapshot is kept: saving a new
// manifest replaces the previous one inside a single transaction.
//
// # Database Schema
//
// Tables:
//   - builds: one row per snapshot (root path, generatedAt, stats)
//   - categories: category nodes with their manifest position
//   - files: file metadata with their manifest position
//   - schema_version: applied migrations
//
// Categories and files reference builds with ON DELETE CASCADE.
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("mirrorindex.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.SaveManifest(ctx, buildID, root, manifest); err != nil {
//	    return err
//	}
//
//	files, err := db.ListFilesByCategory(ctx, "docs/guides")
//
// # Ordering
//
// LoadManifest, ListCategories and ListFilesByCategory return rows in the
// order they had in the saved manifest, so a round trip through the database
// yields the same sorted lists the composer produced.
//
// # Build Modes
//
// The default build uses modernc.org/sqlite (pure Go, CGO_ENABLED=0).
// Building with -tags sqlite_cgo switches to github.com/mattn/go-sqlite3.
// DriverName and BuildMode report which one was compiled in.
//
// # Thread Safety
//
// SQLiteStorage is safe for concurrent use. The connection pool is limited to
// a single connection and the database runs in WAL mode.
package storage
