// Package watch decides which filesystem changes invalidate compiled output
// and drives the filesystem watcher used by watch mode.
package watch

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/rulesets-dev/rulesets/internal/config"
	"github.com/rulesets-dev/rulesets/pkg/core"
)

// PathSet is a set of filesystem paths compared by exact string equality.
type PathSet map[string]struct{}

// NewPathSet creates a set holding paths.
func NewPathSet(paths ...string) PathSet {
	s := make(PathSet, len(paths))
	for _, p := range paths {
		s.Add(p)
	}
	return s
}

// Add inserts path into the set.
func (s PathSet) Add(path string) {
	s[path] = struct{}{}
}

// Contains reports whether path is in the set.
func (s PathSet) Contains(path string) bool {
	_, ok := s[path]
	return ok
}

// Remove deletes path from the set.
func (s PathSet) Remove(path string) {
	delete(s, path)
}

// Len returns the number of paths in the set.
func (s PathSet) Len() int {
	return len(s)
}

// Union returns a new set with the paths of s and other.
func (s PathSet) Union(other PathSet) PathSet {
	out := make(PathSet, len(s)+len(other))
	for p := range s {
		out.Add(p)
	}
	for p := range other {
		out.Add(p)
	}
	return out
}

// Sorted returns the paths in lexical order.
func (s PathSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Options configures CollectDependencyWatchPaths.
type Options struct {
	// Cwd is the absolute project directory.
	Cwd string
	// ProjectConfig may be nil.
	ProjectConfig *core.ProjectConfig
}

// CollectDependencyWatchPaths returns the directories whose changes must
// invalidate compiled output: the partials, mixins and templates directories
// under .ruleset/, plus any partials or templates directory the project
// configures. Configured directories are added alongside the defaults.
func CollectDependencyWatchPaths(opts Options) PathSet {
	paths := NewPathSet(
		filepath.Join(opts.Cwd, config.DefaultPartialDir),
		filepath.Join(opts.Cwd, config.DefaultMixinsDir),
		filepath.Join(opts.Cwd, config.DefaultTemplates),
	)

	if opts.ProjectConfig == nil {
		return paths
	}

	for _, configured := range []string{
		opts.ProjectConfig.Paths.Partials,
		opts.ProjectConfig.Paths.Templates,
	} {
		configured = strings.TrimSpace(configured)
		if configured == "" {
			continue
		}
		paths.Add(filepath.Clean(config.Resolve(opts.Cwd, configured)))
	}

	return paths
}

// IsPathWithin reports whether candidate is ancestor or lies beneath it.
// Only whole path segments match, so /a/partials-extra is not within /a/partials.
func IsPathWithin(ancestor, candidate string) bool {
	ancestor = filepath.Clean(ancestor)
	candidate = filepath.Clean(candidate)
	if ancestor == candidate {
		return true
	}

	rel, err := filepath.Rel(ancestor, candidate)
	if err != nil {
		return false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}

// ShouldInvalidateCache reports whether any changed path lies within any
// dependency path. It is the only gate for recompiling in watch mode.
func ShouldInvalidateCache(changed, dependencies PathSet) bool {
	for c := range changed {
		for d := range dependencies {
			if IsPathWithin(d, c) {
				return true
			}
		}
	}
	return false
}
