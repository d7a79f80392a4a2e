package database

import (
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and its compiled glob.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// excludeSet applies exclude patterns under one uniform rule: a path is
// excluded when a pattern glob-matches it or occurs in it as a literal
// substring.
type excludeSet struct {
	patterns []compiledPattern
}

func (e *excludeSet) Add(pattern string) error {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return err
	}
	e.patterns = append(e.patterns, compiledPattern{pattern: pattern, glob: g})
	return nil
}

// Match reports whether the slash-separated path is excluded.
func (e *excludeSet) Match(path string) bool {
	for _, cp := range e.patterns {
		if cp.glob.Match(path) {
			return true
		}
		if strings.Contains(path, cp.pattern) {
			return true
		}
	}
	return false
}
