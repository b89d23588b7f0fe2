// Package writer persists a manifest as two JSON documents:
//
//	index.json       {"generatedAt": ..., "files": [...], "stats": {...}}
//	categories.json  [ ...category nodes... ]
//
// Both documents are encoded and written to temporary files before either is
// renamed into place. An encoding or write failure leaves the previous pair
// untouched.
package writer
