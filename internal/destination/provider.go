// Package destination defines the per-tool providers that turn a document's
// destination overrides into compilation directives.
package destination

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"golang.org/x/sync/errgroup"

	"github.com/rulesets-dev/rulesets/pkg/core"
)

// HandlebarsKey is the override section providers recognise.
const HandlebarsKey = "handlebars"

// PrepareContext is what a provider sees when preparing a document.
type PrepareContext struct {
	Parsed        *core.RulesetDocument
	ProjectConfig *core.ProjectConfig
	Logger        *slog.Logger
}

func (pc PrepareContext) logger() *slog.Logger {
	if pc.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return pc.Logger
}

// Provider is implemented once per destination tool.
type Provider interface {
	// Name is the key under front matter "destinations".
	Name() string

	// OutputPath is the artifact path for doc, relative to the output root.
	OutputPath(doc *core.RulesetDocument) string

	// PrepareCompilation reads the provider's own destinations block and
	// returns the directive for it, or nil when the document declares none.
	// It must only read destinations[Name()].
	PrepareCompilation(ctx context.Context, pc PrepareContext) (*core.CompilationDirective, error)
}

// HeaderProvider is implemented by destinations whose artifacts carry
// their own front matter.
type HeaderProvider interface {
	ArtifactFrontMatter(doc *core.RulesetDocument) map[string]any
}

// prepareHandlebars is the shared PrepareCompilation for providers whose
// only override section is "handlebars".
func prepareHandlebars(name string, pc PrepareContext) *core.CompilationDirective {
	if pc.Parsed == nil {
		return nil
	}

	block := pc.Parsed.Metadata.Destination(name)
	if block == nil {
		return nil
	}

	raw, ok := block[HandlebarsKey]
	if !ok || raw == nil {
		return nil
	}

	section, ok := raw.(map[string]any)
	if !ok {
		pc.logger().Warn("ignoring unrecognized override section",
			"destination", name, "section", HandlebarsKey, "document", pc.Parsed.Name())
		return nil
	}

	var directive core.HandlebarsDirective
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &directive,
		TagName: "mapstructure",
	})
	if err != nil {
		pc.logger().Error("failed to build decoder", "error", err)
		return nil
	}
	if err := decoder.Decode(section); err != nil {
		pc.logger().Warn("ignoring malformed override section",
			"destination", name, "section", HandlebarsKey, "document", pc.Parsed.Name(), "error", err)
		return nil
	}

	pc.logger().Debug("prepared destination overrides",
		"destination", name, "document", pc.Parsed.Name(),
		"force", directive.Force, "partials", len(directive.Partials), "helpers", len(directive.Helpers))

	return &core.CompilationDirective{Handlebars: directive}
}

// PrepareAll runs every provider for one document concurrently and returns
// the non-nil directives keyed by destination name.
func PrepareAll(ctx context.Context, pc PrepareContext, providers []Provider) (map[string]*core.CompilationDirective, error) {
	var mu sync.Mutex
	directives := make(map[string]*core.CompilationDirective, len(providers))

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range providers {
		g.Go(func() error {
			directive, err := p.PrepareCompilation(gctx, pc)
			if err != nil {
				return fmt.Errorf("destination %s: %w", p.Name(), err)
			}
			if directive == nil {
				return nil
			}
			mu.Lock()
			directives[p.Name()] = directive
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return directives, nil
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Provider)
)

// Register adds a provider to the registry.
// Called by provider implementations in their init() functions.
func Register(p Provider) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[p.Name()] = p
}

// Get retrieves a provider by name.
func Get(name string) (Provider, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[name]
	return p, ok
}

// List returns all registered destination names (sorted).
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves names to providers in the given order. An empty list
// selects every registered provider.
func Lookup(names []string) ([]Provider, error) {
	if len(names) == 0 {
		names = List()
	}

	providers := make([]Provider, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		p, ok := Get(name)
		if !ok {
			return nil, &UnknownDestinationError{Name: name, Available: List()}
		}
		providers = append(providers, p)
	}
	return providers, nil
}

// UnknownDestinationError is returned when an unknown destination is requested.
type UnknownDestinationError struct {
	Name      string
	Available []string
}

func (e *UnknownDestinationError) Error() string {
	return fmt.Sprintf("unknown destination %q\nAvailable destinations: %v\nHint: Check destinations in .ruleset/config.yaml", e.Name, e.Available)
}
