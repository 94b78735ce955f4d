package watcher

import (
	"path/filepath"

	"github.com/gobwas/glob"
)

// Matcher decides which file names in the watched directory trigger a reload
type Matcher interface {
	Match(name string) bool
}

type matcher struct {
	includes []glob.Glob
	ignores  []glob.Glob
}

// NewMatcher compiles include and ignore patterns, matched against base file names
func NewMatcher(includes, ignores []string) (Matcher, error) {
	m := &matcher{
		includes: make([]glob.Glob, 0, len(includes)),
		ignores:  make([]glob.Glob, 0, len(ignores)),
	}

	for _, p := range includes {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}

		m.includes = append(m.includes, g)
	}

	for _, p := range ignores {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}

		m.ignores = append(m.ignores, g)
	}

	return m, nil
}

// Match reports whether the base name of path is included and not ignored
func (m *matcher) Match(path string) bool {
	name := filepath.Base(path)

	for _, ignore := range m.ignores {
		if ignore.Match(name) {
			return false
		}
	}

	for _, include := range m.includes {
		if include.Match(name) {
			return true
		}
	}

	return false
}
