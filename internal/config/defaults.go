package config

import (
	"path/filepath"
	"strings"

	"github.com/rulesets-dev/rulesets/pkg/core"
)

// Default project layout, relative to the project root.
const (
	RulesetDir        = ".ruleset"
	DefaultRulesDir   = ".ruleset/rules"
	DefaultPartialDir = ".ruleset/partials"
	DefaultMixinsDir  = ".ruleset/_mixins"
	DefaultTemplates  = ".ruleset/templates"
	DefaultOutputDir  = "."
	DefaultStateFile  = ".ruleset/cache/state.db"
)

// ApplyDefaults fills unset fields of a ProjectConfig.
// Blank path overrides are normalised to empty so they read as absent.
func ApplyDefaults(c *core.ProjectConfig) {
	if c == nil {
		return
	}
	c.Paths.Rules = strings.TrimSpace(c.Paths.Rules)
	c.Paths.Partials = strings.TrimSpace(c.Paths.Partials)
	c.Paths.Templates = strings.TrimSpace(c.Paths.Templates)
	if c.Output == "" {
		c.Output = DefaultOutputDir
	}
	if c.State == "" {
		c.State = DefaultStateFile
	}
}

// Resolve returns path resolved against root unless it is already absolute.
// Empty paths are returned unchanged.
func Resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// RulesDir returns the absolute rules directory for a project.
func RulesDir(root string, c *core.ProjectConfig) string {
	if c != nil && c.Paths.Rules != "" {
		return Resolve(root, c.Paths.Rules)
	}
	return filepath.Join(root, DefaultRulesDir)
}

// PartialDirs returns the directories partials are loaded from, lowest
// precedence first: the default partials and mixins directories, then the
// configured partials directory if any.
func PartialDirs(root string, c *core.ProjectConfig) []string {
	dirs := []string{
		filepath.Join(root, DefaultMixinsDir),
		filepath.Join(root, DefaultPartialDir),
	}
	if c != nil && c.Paths.Partials != "" {
		if p := Resolve(root, c.Paths.Partials); p != dirs[1] {
			dirs = append(dirs, p)
		}
	}
	return dirs
}

// OutputDir returns the absolute artifact root for a project.
func OutputDir(root string, c *core.ProjectConfig) string {
	if c == nil || c.Output == "" {
		return root
	}
	return Resolve(root, c.Output)
}

// StatePath returns the absolute compile cache path for a project.
// ":memory:" is passed through.
func StatePath(root string, c *core.ProjectConfig) string {
	if c == nil || c.State == "" {
		return filepath.Join(root, DefaultStateFile)
	}
	if c.State == ":memory:" {
		return c.State
	}
	return Resolve(root, c.State)
}
