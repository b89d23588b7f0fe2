// Package collation wraps golang.org/x/text/collate with the ordering used for
// manifest paths: zh-Hans collation, ignoring case and diacritics, with a byte
// order tie-break so the order is total and sorts are reproducible.
package collation
