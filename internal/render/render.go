// Package render produces artifact bodies: front matter is stripped and
// {{> name}} partial tags are inlined recursively. Other tags are left for the
// destination tool; helpers are never executed.
package render

import (
	"errors"
	"strings"

	"github.com/rulesets-dev/rulesets/internal/deps"
	"github.com/rulesets-dev/rulesets/internal/parser"
	"github.com/rulesets-dev/rulesets/internal/registry"
	"github.com/rulesets-dev/rulesets/pkg/core"
)

// MaxDepth bounds partial nesting independently of cycle detection.
const MaxDepth = 32

// Render returns the body of doc with partials inlined.
//
// directive may be nil. Its partials are consulted together with reg: when
// Handlebars.Force is set they shadow registry partials of the same name,
// otherwise the registry wins and directive partials only fill gaps.
func Render(doc *core.RulesetDocument, directive *core.CompilationDirective, reg *registry.PartialRegistry) (string, error) {
	fm, err := parser.ExtractFrontMatter(doc.Source.Contents)
	if err != nil {
		var fmErr *parser.FrontMatterError
		if errors.As(err, &fmErr) {
			fmErr.File = doc.Source.Path
		}
		return "", err
	}

	r := &renderer{reg: reg}
	if directive != nil {
		r.inline = directive.Handlebars.Partials
		r.force = directive.Handlebars.Force
	}
	return r.expand(fm.Body, doc.Source.Path, nil)
}

type renderer struct {
	reg    *registry.PartialRegistry
	inline map[string]string
	force  bool
}

// frame is one partial on the current inclusion chain.
type frame struct {
	name string
	pos  core.Position
}

func (r *renderer) expand(body, file string, stack []frame) (string, error) {
	return deps.ReplacePartials(body, file, func(name string, pos core.Position) (string, error) {
		key := registry.NormalizeName(name)

		for _, f := range stack {
			if f.name == key {
				return "", newRenderErrorf(pos, key, "partial cycle: %s", chain(stack, key))
			}
		}
		if len(stack) >= MaxDepth {
			return "", newRenderErrorf(pos, key, "partials nested deeper than %d", MaxDepth)
		}

		contents, source, ok := r.lookup(name, key)
		if !ok {
			return "", newRenderErrorf(pos, key, "unknown partial %q", key)
		}

		out, err := r.expand(trimFinalNewline(contents), source, append(stack, frame{name: key, pos: pos}))
		if err != nil {
			return "", err
		}
		return out, nil
	})
}

// lookup resolves a partial, returning its contents and the file it came
// from (empty for directive partials).
func (r *renderer) lookup(raw, key string) (string, string, bool) {
	if r.force {
		if s, ok := r.inlinePartial(raw, key); ok {
			return s, "", true
		}
	}
	if r.reg != nil {
		if p, ok := r.reg.Resolve(key); ok {
			return p.Contents, p.Path, true
		}
	}
	if !r.force {
		if s, ok := r.inlinePartial(raw, key); ok {
			return s, "", true
		}
	}
	return "", "", false
}

func (r *renderer) inlinePartial(raw, key string) (string, bool) {
	if s, ok := r.inline[raw]; ok {
		return s, true
	}
	s, ok := r.inline[key]
	return s, ok
}

func chain(stack []frame, last string) string {
	names := make([]string, 0, len(stack)+1)
	for _, f := range stack {
		names = append(names, f.name)
	}
	names = append(names, last)
	return strings.Join(names, " -> ")
}

func trimFinalNewline(s string) string {
	if strings.HasSuffix(s, "\r\n") {
		return s[:len(s)-2]
	}
	return strings.TrimSuffix(s, "\n")
}
