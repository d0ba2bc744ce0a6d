package util

import (
	"fmt"
	"path/filepath"

	"github.com/gobwas/glob"
)

// GlobSet matches slash-separated paths against a list of patterns. `*` stays
// within one path segment, `**` crosses segments.
type GlobSet struct {
	globs []glob.Glob
}

func CompileGlobs(patterns []string) (*GlobSet, error) {
	set := &GlobSet{}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
		}
		set.globs = append(set.globs, g)
	}
	return set, nil
}

func (s *GlobSet) Match(path string) bool {
	if s == nil {
		return false
	}
	slashed := filepath.ToSlash(path)
	for _, g := range s.globs {
		if g.Match(slashed) {
			return true
		}
	}
	return false
}

// MatchBase matches only the last element of path.
func (s *GlobSet) MatchBase(path string) bool {
	if s == nil {
		return false
	}
	base := filepath.Base(path)
	for _, g := range s.globs {
		if g.Match(base) {
			return true
		}
	}
	return false
}
