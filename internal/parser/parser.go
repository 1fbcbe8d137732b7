package parser

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rulesets-dev/rulesets/pkg/core"
)

// headingPattern matches ATX headings: "## Title ##".
var headingPattern = regexp.MustCompile(`^(#{1,6})[ \t]+(.*?)[ \t]*#*[ \t]*$`)

// Parse parses a ruleset source into a document.
//
// Dependencies are left nil; the transform pipeline computes them.
func Parse(src core.Source) (*core.RulesetDocument, error) {
	if src.Format == "" {
		src.Format = core.FormatRule
	}

	fm, err := ExtractFrontMatter(src.Contents)
	if err != nil {
		var fmErr *FrontMatterError
		if errors.As(err, &fmErr) {
			fmErr.File = src.Path
		}
		return nil, err
	}

	ast := core.AST{
		Sections: parseSections(fm.Body, src.Path, fm.BodyLine),
	}

	imports, err := parseImports(fm.Data)
	if err != nil {
		return nil, &FrontMatterError{File: src.Path, Message: err.Error()}
	}
	ast.Imports = imports

	for _, tok := range NewLexer(fm.Body, src.Path, fm.BodyLine).Tokenize() {
		switch tok.Type {
		case TokenVariable:
			name := firstField(tok.Value)
			if name == "" || name == "else" {
				continue
			}
			ast.Variables = append(ast.Variables, core.Variable{Name: name, Pos: tok.Pos})
		case TokenOpen, TokenClose:
			name := firstField(tok.Value)
			if name == "" {
				continue
			}
			kind := core.MarkerOpen
			if tok.Type == TokenClose {
				kind = core.MarkerClose
			}
			ast.Markers = append(ast.Markers, core.Marker{
				Name: name,
				Kind: kind,
				Args: strings.TrimSpace(strings.TrimPrefix(tok.Value, name)),
				Pos:  tok.Pos,
			})
		}
	}

	return &core.RulesetDocument{
		Source:   src,
		Metadata: core.Metadata{FrontMatter: fm.Data},
		AST:      ast,
	}, nil
}

// ParseFile reads and parses a ruleset file. id is the document identifier.
func ParseFile(path, id, format string) (*core.RulesetDocument, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from discovery within the project
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(core.Source{ID: id, Path: path, Contents: string(content), Format: format})
}

// parseSections collects ATX headings outside fenced code blocks.
func parseSections(body, file string, firstLine int) []core.Section {
	var sections []core.Section
	fence := ""
	for i, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if fence != "" {
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
			continue
		}
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fence = trimmed[:3]
			continue
		}

		m := headingPattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		sections = append(sections, core.Section{
			Title: m[2],
			Level: len(m[1]),
			Pos:   core.Position{File: file, Line: firstLine + i, Column: 1},
		})
	}
	return sections
}

// parseImports reads the front matter "imports" key: a string or a list of strings.
func parseImports(data map[string]any) ([]core.Import, error) {
	raw, ok := data["imports"]
	if !ok || raw == nil {
		return nil, nil
	}

	switch v := raw.(type) {
	case string:
		return []core.Import{{Path: v}}, nil
	case []any:
		imports := make([]core.Import, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("imports[%d] must be a string, got %T", i, item)
			}
			imports = append(imports, core.Import{Path: s})
		}
		return imports, nil
	default:
		return nil, fmt.Errorf("imports must be a string or list, got %T", raw)
	}
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
