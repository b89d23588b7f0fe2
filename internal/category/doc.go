// Package category derives the category forest of a manifest from file
// paths.
//
// Build walks every prefix of each file's category id:
//
//	files "A/x.txt" and "A/B/y.md" give
//	  A    depth 0  fileCount 1  childrenCount 1
//	  A/B  depth 1  fileCount 1  childrenCount 0
//
// Counts are direct only. Aggregate is the separate bottom-up pass that fills
// TotalFiles with subtree totals and repairs gaps left by merged snapshots.
//
// Both functions return nodes sorted by depth, then by collated path.
package category
