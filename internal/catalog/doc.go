// Package catalog provides read-only lookups over one index snapshot.
//
// A Catalog indexes file and category ids in B-trees and keeps a roaring
// bitmap of file ordinals per category, so subtree queries are a union of
// the bitmaps found by a prefix scan over category ids. Category totals are
// recomputed with category.Aggregate when the catalog is built.
//
// Service wraps a ManifestSource (the loader or the SQLite store) and reuses
// the current Catalog until the source returns a different snapshot.
package catalog
