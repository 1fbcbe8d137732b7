package transform

import (
	"fmt"
	"strings"

	"github.com/rulesets-dev/rulesets/internal/deps"
	"github.com/rulesets-dev/rulesets/pkg/core"
)

// Default returns the transforms the compiler runs on every rule.
func Default() []Transform {
	return []Transform{
		NormalizeLineEndings,
		TrimTrailingWhitespace,
		DeclaredDependencies,
	}
}

// NormalizeLineEndings rewrites CRLF and lone CR line endings to LF.
func NormalizeLineEndings(doc *core.RulesetDocument) (*core.RulesetDocument, error) {
	contents := doc.Source.Contents
	if !strings.Contains(contents, "\r") {
		return doc, nil
	}
	contents = strings.ReplaceAll(contents, "\r\n", "\n")
	contents = strings.ReplaceAll(contents, "\r", "\n")
	return doc.WithContents(contents), nil
}

// hardBreak is the markdown hard line break: two trailing spaces.
const hardBreak = "  "

// TrimTrailingWhitespace removes spaces and tabs at the end of each line.
// A run of two or more trailing spaces after text is a markdown hard line
// break and is kept as exactly two spaces.
func TrimTrailingWhitespace(doc *core.RulesetDocument) (*core.RulesetDocument, error) {
	lines := strings.Split(doc.Source.Contents, "\n")
	changed := false
	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if trimmed != "" && strings.HasSuffix(line, hardBreak) && strings.Trim(line[len(trimmed):], " ") == "" {
			trimmed += hardBreak
		}
		if len(trimmed) != len(line) {
			lines[i] = trimmed
			changed = true
		}
	}
	if !changed {
		return doc, nil
	}
	return doc.WithContents(strings.Join(lines, "\n")), nil
}

// DeclaredDependencies merges partials listed under the front matter
// "partials" key into the document dependencies.
func DeclaredDependencies(doc *core.RulesetDocument) (*core.RulesetDocument, error) {
	raw, ok := doc.Metadata.FrontMatter["partials"]
	if !ok || raw == nil {
		return doc, nil
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("front matter partials must be a list, got %T", raw)
	}

	declared := make([]core.Dependency, 0, len(list))
	for i, item := range list {
		name, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("front matter partials[%d] must be a string, got %T", i, item)
		}
		if name = strings.TrimSpace(name); name != "" {
			declared = append(declared, core.PartialDependency(name))
		}
	}

	merged, changed := deps.Merge(doc.Dependencies, declared)
	if !changed {
		return doc, nil
	}
	return doc.WithDependencies(merged), nil
}
