// Package compiler turns ruleset sources into per-destination artifacts.
//
// A document flows through parse, the transform pipeline, destination
// preparation and rendering. Each destination's artifact is written under
// the output root unless the compile cache shows it is unchanged.
package compiler

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rulesets-dev/rulesets/internal/config"
	"github.com/rulesets-dev/rulesets/internal/destination"
	"github.com/rulesets-dev/rulesets/internal/registry"
	"github.com/rulesets-dev/rulesets/internal/state"
	"github.com/rulesets-dev/rulesets/internal/transform"
	"github.com/rulesets-dev/rulesets/pkg/core"
)

// RuleExt is the extension of rule source files.
const RuleExt = ".md"

// Config holds compiler configuration.
type Config struct {
	// ProjectRoot is the directory containing .ruleset
	ProjectRoot string
	// Project is the loaded project configuration (optional)
	Project *core.ProjectConfig
	// Destinations overrides Project.Destinations when non-empty
	Destinations []string
	// DryRun renders artifacts without writing them or touching the cache
	DryRun bool
	// Force rewrites artifacts even when the cache says they are unchanged
	Force bool
	// Concurrency bounds parallel document compilation; 0 uses GOMAXPROCS
	Concurrency int
	// Store is the compile cache (optional)
	Store state.Store
	// Transforms replaces the stock transform pipeline when non-nil
	Transforms []transform.Transform
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Compiler compiles the rules of one project.
type Compiler struct {
	root        string
	project     *core.ProjectConfig
	providers   []destination.Provider
	dryRun      bool
	force       bool
	concurrency int
	store       state.Store
	transforms  []transform.Transform
	logger      *slog.Logger

	mu       sync.RWMutex
	registry *registry.PartialRegistry
	docs     map[string]*core.RulesetDocument // last successful compile, by source path
}

// New creates a compiler. It fails when a requested destination is unknown.
func New(cfg Config) (*Compiler, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	root, err := filepath.Abs(cfg.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	project := cfg.Project
	if project == nil {
		project = &core.ProjectConfig{}
	}
	config.ApplyDefaults(project)

	names := cfg.Destinations
	if len(names) == 0 {
		names = project.Destinations
	}
	providers, err := destination.Lookup(names)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	transforms := cfg.Transforms
	if transforms == nil {
		transforms = transform.Default()
	}

	logger.Debug("initializing compiler", "root", root, "destinations", len(providers), "dry_run", cfg.DryRun)

	return &Compiler{
		root:        root,
		project:     project,
		providers:   providers,
		dryRun:      cfg.DryRun,
		force:       cfg.Force,
		concurrency: concurrency,
		store:       cfg.Store,
		transforms:  transforms,
		logger:      logger,
		registry:    registry.NewPartialRegistry(),
		docs:        make(map[string]*core.RulesetDocument),
	}, nil
}

// Root returns the absolute project root.
func (c *Compiler) Root() string { return c.root }

// Project returns the effective project configuration.
func (c *Compiler) Project() *core.ProjectConfig { return c.project }

// RulesDir returns the absolute rules directory.
func (c *Compiler) RulesDir() string { return config.RulesDir(c.root, c.project) }

// Destinations returns the names of the active destinations.
func (c *Compiler) Destinations() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Registry returns the partial registry loaded by the last compile.
func (c *Compiler) Registry() *registry.PartialRegistry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registry
}

// Discover lists rule files under the rules directory, sorted.
// A missing rules directory yields no files.
func (c *Compiler) Discover() ([]string, error) {
	dir := c.RulesDir()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == RuleExt {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover rules in %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// LoadPartials rebuilds the partial registry from the project's partial directories.
func (c *Compiler) LoadPartials() error {
	reg := registry.NewPartialRegistry()
	if err := reg.Load(config.PartialDirs(c.root, c.project)...); err != nil {
		return err
	}

	c.mu.Lock()
	c.registry = reg
	c.mu.Unlock()

	c.logger.Debug("loaded partials", "count", reg.Count())
	return nil
}

// CompileAll discovers and compiles every rule in the project.
func (c *Compiler) CompileAll(ctx context.Context) (*Result, error) {
	files, err := c.Discover()
	if err != nil {
		return nil, err
	}
	return c.CompileFiles(ctx, files)
}

// CompileFile compiles a single rule file.
func (c *Compiler) CompileFile(ctx context.Context, path string) (*DocumentResult, error) {
	result, err := c.CompileFiles(ctx, []string{path})
	if err != nil {
		return nil, err
	}
	return result.Documents[0], nil
}

// CompileFiles compiles the given rule files concurrently as one run.
//
// A failing document is reported in its DocumentResult and does not stop
// the others; the returned error is reserved for failures that affect the
// whole run, such as an unreadable partials directory.
func (c *Compiler) CompileFiles(ctx context.Context, paths []string) (*Result, error) {
	start := time.Now()

	if err := c.LoadPartials(); err != nil {
		return nil, err
	}

	result := &Result{Documents: make([]*DocumentResult, len(paths))}

	if c.store != nil && !c.dryRun {
		run, err := c.store.CreateRun(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to start compile run: %w", err)
		}
		result.RunID = run.ID
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			result.Documents[i] = c.compileDocument(gctx, path, result.RunID)
			return nil
		})
	}
	_ = g.Wait()

	result.Duration = time.Since(start)

	if result.RunID != "" {
		status, msg := state.RunStatusCompleted, ""
		if n := result.Failed(); n > 0 {
			status, msg = state.RunStatusFailed, fmt.Sprintf("%d of %d documents failed", n, len(paths))
		}
		if err := c.store.CompleteRun(ctx, result.RunID, status, msg); err != nil {
			c.logger.Warn("failed to complete run", "run", result.RunID, "error", err)
		}
	}

	c.logger.Info("compile finished",
		"documents", len(paths),
		"failed", result.Failed(),
		"written", result.Written(),
		"duration", result.Duration.Round(time.Millisecond))

	return result, nil
}

// DocumentID derives a document identifier from a rule path: the path
// relative to the rules directory without extension, slash-separated.
// Files outside the rules directory use their base name.
func (c *Compiler) DocumentID(path string) string {
	abs, err := filepath.Abs(path)
	if err == nil {
		if rel, err := filepath.Rel(c.RulesDir(), abs); err == nil && !strings.HasPrefix(rel, "..") {
			return strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (c *Compiler) remember(doc *core.RulesetDocument) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[doc.Source.Path] = doc
}

func (c *Compiler) forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.docs, path)
}

// Documents returns the documents from the last successful compile of each
// file, sorted by path.
func (c *Compiler) Documents() []*core.RulesetDocument {
	c.mu.RLock()
	defer c.mu.RUnlock()

	docs := make([]*core.RulesetDocument, 0, len(c.docs))
	for _, doc := range c.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Source.Path < docs[j].Source.Path
	})
	return docs
}
