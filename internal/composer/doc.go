// Package composer assembles the manifest of one build.
//
// Files are ordered by category id then path, categories by depth then path,
// both with locale-aware collation. The order does not depend on the order in
// which the scanner produced entries.
package composer
