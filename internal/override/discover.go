package override

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover expands the configured override paths in priority order. Plain
// paths are kept even when absent so Merge can report them as skipped;
// glob patterns expand to their sorted matches.
func Discover(patterns, exclude []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	add := func(p string) {
		if seen[p] || excluded(p, exclude) {
			return
		}
		seen[p] = true
		paths = append(paths, p)
	}

	for _, pattern := range patterns {
		if !hasMeta(pattern) {
			add(pattern)
			continue
		}
		if !doublestar.ValidatePathPattern(pattern) {
			return nil, fmt.Errorf("invalid override pattern %q", pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		slices.Sort(matches)
		for _, m := range matches {
			add(m)
		}
	}
	return paths, nil
}

func FileSources(paths []string) []Source {
	sources := make([]Source, len(paths))
	for i, p := range paths {
		sources[i] = NewFileSource(p)
	}
	return sources
}

func excluded(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if match, _ := doublestar.PathMatch(pattern, path); match {
			return true
		}
	}
	return false
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
