package destination

import (
	"context"
	"path"

	"github.com/rulesets-dev/rulesets/pkg/core"
)

func init() {
	Register(Cursor{})
	Register(Windsurf{})
	Register(Copilot{})
}

// Cursor writes .mdc rule files for the Cursor editor.
type Cursor struct{}

// Name implements Provider.
func (Cursor) Name() string { return "cursor" }

// OutputPath implements Provider.
func (Cursor) OutputPath(doc *core.RulesetDocument) string {
	return path.Join(".cursor", "rules", doc.Name()+".mdc")
}

// PrepareCompilation implements Provider.
func (c Cursor) PrepareCompilation(_ context.Context, pc PrepareContext) (*core.CompilationDirective, error) {
	return prepareHandlebars(c.Name(), pc), nil
}

// ArtifactFrontMatter emits the description, globs and alwaysApply keys
// Cursor reads from .mdc files. Values come from the cursor block first,
// then from top-level front matter.
func (c Cursor) ArtifactFrontMatter(doc *core.RulesetDocument) map[string]any {
	block := doc.Metadata.Destination(c.Name())
	header := make(map[string]any)
	for _, key := range []string{"description", "globs", "alwaysApply"} {
		if v, ok := block[key]; ok {
			header[key] = v
			continue
		}
		if v, ok := doc.Metadata.FrontMatter[key]; ok {
			header[key] = v
		}
	}
	if len(header) == 0 {
		return nil
	}
	return header
}

// Windsurf writes markdown rules for the Windsurf editor.
type Windsurf struct{}

// Name implements Provider.
func (Windsurf) Name() string { return "windsurf" }

// OutputPath implements Provider.
func (Windsurf) OutputPath(doc *core.RulesetDocument) string {
	return path.Join(".windsurf", "rules", doc.Name()+".md")
}

// PrepareCompilation implements Provider.
func (w Windsurf) PrepareCompilation(_ context.Context, pc PrepareContext) (*core.CompilationDirective, error) {
	return prepareHandlebars(w.Name(), pc), nil
}

// Copilot writes GitHub Copilot instruction files.
type Copilot struct{}

// Name implements Provider.
func (Copilot) Name() string { return "copilot" }

// OutputPath implements Provider.
func (Copilot) OutputPath(doc *core.RulesetDocument) string {
	return path.Join(".github", "instructions", doc.Name()+".instructions.md")
}

// PrepareCompilation implements Provider.
func (c Copilot) PrepareCompilation(_ context.Context, pc PrepareContext) (*core.CompilationDirective, error) {
	return prepareHandlebars(c.Name(), pc), nil
}

// ArtifactFrontMatter emits the applyTo glob Copilot uses to scope instructions.
func (c Copilot) ArtifactFrontMatter(doc *core.RulesetDocument) map[string]any {
	if v, ok := doc.Metadata.Destination(c.Name())["applyTo"]; ok {
		return map[string]any{"applyTo": v}
	}
	return nil
}
