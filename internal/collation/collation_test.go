package collation

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareTotalOrder(t *testing.T) {
	c := New(DefaultLocale)

	assert.Equal(t, 0, c.Compare("a", "a"))
	assert.Equal(t, -1, c.Compare("a", "b"))
	assert.Equal(t, 1, c.Compare("b", "a"))

	// Case variants collate equal, byte order breaks the tie
	assert.NotEqual(t, 0, c.Compare("A", "a"))
	assert.Equal(t, -c.Compare("A", "a"), c.Compare("a", "A"))
}

func TestCompareIgnoresCase(t *testing.T) {
	c := New(DefaultLocale)

	names := []string{"beta", "Alpha", "alpha2", "Gamma"}
	sort.Slice(names, func(i, j int) bool { return c.Less(names[i], names[j]) })

	assert.Equal(t, []string{"Alpha", "alpha2", "beta", "Gamma"}, names)
}

func TestCompareIgnoresDiacritics(t *testing.T) {
	c := New(DefaultLocale)

	// "é" sorts with "e", not after "z"
	assert.True(t, c.Less("école", "zebra"))
	assert.True(t, c.Less("abc", "ébc"))
}

func TestNewInvalidLocale(t *testing.T) {
	c := New("not a locale!!")
	assert.True(t, c.Less("a", "b"))
}
