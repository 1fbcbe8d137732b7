package compiler

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/rulesets-dev/rulesets/internal/config"
	"github.com/rulesets-dev/rulesets/internal/dag"
	"github.com/rulesets-dev/rulesets/internal/deps"
	"github.com/rulesets-dev/rulesets/internal/registry"
	"github.com/rulesets-dev/rulesets/internal/watch"
	"github.com/rulesets-dev/rulesets/pkg/core"
)

// Graph builds the rule/partial graph from the last compile: an edge runs
// from each partial to every rule or partial that includes it.
func (c *Compiler) Graph() *dag.Graph {
	g := dag.NewGraph()
	reg := c.Registry()

	partialNode := func(name string) string {
		name = registry.NormalizeName(name)
		path := ""
		if p, ok := reg.Resolve(name); ok {
			path = p.Path
		}
		return g.AddNode(dag.KindPartial, name, path)
	}

	for _, name := range reg.Names() {
		partialNode(name)
	}
	for _, name := range reg.Names() {
		p, _ := reg.Resolve(name)
		from := dag.ID(dag.KindPartial, name)
		for _, dep := range deps.ExtractPartials(p.Contents) {
			// Self-inclusion is reported by the renderer
			_ = g.AddInclude(partialNode(dep.Identifier), from)
		}
	}

	for _, doc := range c.Documents() {
		rule := g.AddNode(dag.KindRule, doc.Name(), doc.Source.Path)
		for _, dep := range doc.Dependencies {
			if dep.Kind != core.DependencyKindPartial {
				continue
			}
			_ = g.AddInclude(partialNode(dep.Identifier), rule)
		}
	}
	return g
}

// Affected returns the rule files that must be recompiled for a batch of
// changed paths: changed rule files themselves, plus every rule that
// includes a changed partial directly or through other partials. A change
// in a dependency directory that holds no partials (templates, or a whole
// partials directory being replaced) affects every rule. Rule files that no
// longer exist are left out.
func (c *Compiler) Affected(changed watch.PathSet) []string {
	g := c.Graph()
	rulesDir := c.RulesDir()
	partialDirs := config.PartialDirs(c.root, c.project)
	depPaths := c.WatchPaths()

	files := make(map[string]struct{})
	var changedPartials []string
	all := false

	for _, path := range changed.Sorted() {
		if watch.IsPathWithin(rulesDir, path) {
			if filepath.Ext(path) == RuleExt {
				files[path] = struct{}{}
			}
			continue
		}

		inPartials := false
		for _, dir := range partialDirs {
			if !watch.IsPathWithin(dir, path) {
				continue
			}
			inPartials = true
			rel, err := filepath.Rel(dir, path)
			if err != nil || rel == "." {
				all = true
				continue
			}
			changedPartials = append(changedPartials, dag.ID(dag.KindPartial, registry.NormalizeName(rel)))
			// A removed or renamed directory takes every partial under it along
			for _, node := range g.Nodes(dag.KindPartial) {
				if node.Path != "" && watch.IsPathWithin(path, node.Path) {
					changedPartials = append(changedPartials, node.ID)
				}
			}
		}

		if !inPartials && watch.ShouldInvalidateCache(watch.NewPathSet(path), depPaths) {
			all = true
		}
	}

	if all {
		discovered, err := c.Discover()
		if err != nil {
			c.logger.Warn("failed to discover rules", "error", err)
		}
		for _, path := range discovered {
			files[path] = struct{}{}
		}
	}

	for _, node := range g.Dependents(changedPartials...) {
		if node.Kind == dag.KindRule && node.Path != "" {
			files[node.Path] = struct{}{}
		}
	}

	result := make([]string, 0, len(files))
	for path := range files {
		if _, err := os.Stat(path); err != nil {
			c.forget(path)
			continue
		}
		result = append(result, path)
	}
	sort.Strings(result)
	return result
}

// WatchPaths returns the directories whose changes can invalidate compiled
// output: the dependency watch paths plus the rules directory.
func (c *Compiler) WatchPaths() watch.PathSet {
	paths := watch.CollectDependencyWatchPaths(watch.Options{Cwd: c.root, ProjectConfig: c.project})
	paths.Add(filepath.Clean(c.RulesDir()))
	return paths
}
