// Package logging provides the leveled event logger used by every mirrorindex
// component.
//
// Lines look like:
//
//	[info] indexer:complete files=2 categories=2 duration=3ms
//	[warn] scanner indexer:stat-failed path=a/broken err="lstat: no such file"
//
// Output goes to stderr, plus a rotated file (lumberjack) when configured.
package logging
