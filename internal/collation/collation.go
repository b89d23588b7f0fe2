package collation

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultLocale orders Chinese names by pinyin and Latin names alphabetically
const DefaultLocale = "zh-Hans"

// Comparer is a total, locale-aware string order. Strings the collator treats
// as equal (case or accent variants) fall back to byte order.
//
// A Comparer is not safe for concurrent use; create one per sort.
type Comparer struct {
	c *collate.Collator
}

// New creates a case and accent insensitive comparer for locale.
// An unparsable locale falls back to DefaultLocale.
func New(locale string) *Comparer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse(DefaultLocale)
	}
	return &Comparer{c: collate.New(tag, collate.IgnoreCase, collate.IgnoreDiacritics)}
}

// Compare returns -1, 0 or 1. Zero only for identical strings.
func (c *Comparer) Compare(a, b string) int {
	if a == b {
		return 0
	}
	if r := c.c.CompareString(a, b); r != 0 {
		return r
	}
	return strings.Compare(a, b)
}

// Less reports whether a sorts before b
func (c *Comparer) Less(a, b string) bool {
	return c.Compare(a, b) < 0
}
