package scanner

import (
	"path"
	"strings"
)

// DefaultIgnore lists the entries skipped when no ignore list is configured
var DefaultIgnore = []string{
	".git",
	".github",
	".vscode",
	"node_modules",
	"web/node_modules",
	"api/node_modules",
	"web/dist",
	"api/dist",
	".vercel",
	".next",
	".cache",
	".DS_Store",
}

type rule struct {
	raw      string
	glob     bool // contains path.Match metacharacters
	anyDepth bool // "**/" form, matched at every directory level
}

// anyDepthPrefix marks an entry that applies below every directory, not only
// from the root
const anyDepthPrefix = "**/"

// Matcher decides whether a relative path is excluded by an ignore list.
// An entry matches a path that equals it or a path nested under it. Entries
// with glob metacharacters are matched with path.Match against the leading
// segments of the path. An entry written as "**/name" matches name at any
// depth, so "**/.DS_Store" skips every .DS_Store file.
type Matcher struct {
	rules []rule
}

// NewMatcher normalises entries: backslashes become slashes, surrounding
// whitespace and slashes are trimmed and empty entries dropped.
func NewMatcher(entries []string) *Matcher {
	m := &Matcher{}
	for _, e := range entries {
		e = strings.Trim(strings.TrimSpace(strings.ReplaceAll(e, "\\", "/")), "/")
		e = strings.TrimPrefix(e, "./")
		anyDepth := false
		for strings.HasPrefix(e, anyDepthPrefix) {
			e = strings.TrimPrefix(e, anyDepthPrefix)
			anyDepth = true
		}
		if e == "" || e == "**" {
			continue
		}
		m.rules = append(m.rules, rule{
			raw:      e,
			glob:     strings.ContainsAny(e, "*?["),
			anyDepth: anyDepth,
		})
	}
	return m
}

// Match reports whether relPath (slash separated, relative to the root) is ignored
func (m *Matcher) Match(relPath string) bool {
	if m == nil || relPath == "" {
		return false
	}
	for _, r := range m.rules {
		if r.matches(relPath) {
			return true
		}
	}
	return false
}

// Len returns the number of effective rules
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}

func (r rule) matches(relPath string) bool {
	if !r.anyDepth {
		return r.matchFrom(relPath)
	}
	for {
		if r.matchFrom(relPath) {
			return true
		}
		i := strings.IndexByte(relPath, '/')
		if i < 0 {
			return false
		}
		relPath = relPath[i+1:]
	}
}

// matchFrom anchors the rule at the start of relPath
func (r rule) matchFrom(relPath string) bool {
	if r.matchOne(relPath) || strings.HasPrefix(relPath, r.raw+"/") {
		return true
	}
	if !r.glob {
		return false
	}
	// Glob prefixes: "build/*" also excludes "build/x/y"
	segs := strings.Split(relPath, "/")
	want := strings.Count(r.raw, "/") + 1
	if len(segs) > want {
		return r.matchOne(strings.Join(segs[:want], "/"))
	}
	return false
}

func (r rule) matchOne(s string) bool {
	if !r.glob {
		return s == r.raw
	}
	ok, err := path.Match(r.raw, s)
	return err == nil && ok
}
