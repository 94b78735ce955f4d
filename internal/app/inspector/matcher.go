package inspector

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"powermon/internal/app/errors"
)

const globMeta = "*?[{"

// NameMatcher decides whether a process name matches a query
type NameMatcher interface {
	Match(name string) bool
}

type exactMatcher struct {
	name string
}

func (m exactMatcher) Match(name string) bool {
	return strings.EqualFold(m.name, name)
}

type globMatcher struct {
	g glob.Glob
}

func (m globMatcher) Match(name string) bool {
	return m.g.Match(strings.ToLower(name))
}

// NewNameMatcher compiles a query into a matcher. Plain names match case-insensitively,
// names containing glob metacharacters are compiled as case-folded patterns.
func NewNameMatcher(query string) (NameMatcher, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.ErrEmptyTarget
	}

	if !IsPattern(query) {
		return exactMatcher{name: query}, nil
	}

	g, err := glob.Compile(strings.ToLower(query))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", errors.ErrInvalidPattern, query, err)
	}

	return globMatcher{g: g}, nil
}

// IsPattern reports whether the query contains glob metacharacters
func IsPattern(query string) bool {
	return strings.ContainsAny(query, globMeta)
}
