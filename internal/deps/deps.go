// Package deps extracts implicit partial dependencies from ruleset text
// and merges them with dependencies a document already declares.
package deps

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rulesets-dev/rulesets/pkg/core"
)

// partialTagPattern matches {{> name trailing}}. Group 1 is the raw identifier
// token. Trailing content runs to the first "}}" and may hold a single "}".
var partialTagPattern = regexp.MustCompile(`\{\{\s*>\s*([^\s}]+)(?:[^}]|\}[^}])*\}\}`)

// partialOpenPattern matches the opening of any partial tag, well-formed or not.
var partialOpenPattern = regexp.MustCompile(`\{\{\s*>`)

// ExtractPartials returns the partials referenced by contents, deduplicated
// and in order of first occurrence. Malformed tags are skipped.
func ExtractPartials(contents string) []core.Dependency {
	deps, _ := scan(contents, "", false)
	return deps
}

// Scan is ExtractPartials plus a warning diagnostic for every malformed
// partial tag: an opening with no usable identifier, or one never closed.
func Scan(contents, file string) ([]core.Dependency, []core.Diagnostic) {
	return scan(contents, file, true)
}

func scan(contents, file string, report bool) ([]core.Dependency, []core.Diagnostic) {
	var (
		deps        []core.Dependency
		diagnostics []core.Diagnostic
		seen        = make(map[string]struct{})
	)

	matches := partialTagPattern.FindAllStringSubmatchIndex(contents, -1)
	for _, m := range matches {
		name := trimQuotes(contents[m[2]:m[3]])
		if name == "" {
			if report {
				diagnostics = append(diagnostics, diagnosticAt(contents, file, m[0], "partial tag has an empty identifier"))
			}
			continue
		}

		dep := core.PartialDependency(name)
		if _, ok := seen[dep.Key()]; ok {
			continue
		}
		seen[dep.Key()] = struct{}{}
		deps = append(deps, dep)
	}

	if report {
		diagnostics = append(diagnostics, malformedOpenings(contents, file, matches)...)
		sortByOffset(diagnostics)
	}

	return deps, diagnostics
}

// malformedOpenings reports partial tag openings not covered by a well-formed match.
func malformedOpenings(contents, file string, matches [][]int) []core.Diagnostic {
	var diagnostics []core.Diagnostic
	next := 0
	for _, open := range partialOpenPattern.FindAllStringIndex(contents, -1) {
		for next < len(matches) && matches[next][1] <= open[0] {
			next++
		}
		if next < len(matches) && matches[next][0] <= open[0] {
			continue
		}

		msg := "unterminated partial tag"
		if closeAt := strings.Index(contents[open[1]:], "}}"); closeAt >= 0 {
			msg = "partial tag is missing an identifier"
		}
		diagnostics = append(diagnostics, diagnosticAt(contents, file, open[0], msg))
	}
	return diagnostics
}

// trimQuotes strips surrounding single or double quotes and whitespace.
func trimQuotes(s string) string {
	return strings.TrimSpace(strings.Trim(s, `"'`))
}

func diagnosticAt(contents, file string, offset int, msg string) core.Diagnostic {
	return core.Diagnostic{
		Severity: core.SeverityWarning,
		Message:  msg,
		Pos:      positionAt(contents, file, offset),
	}
}

// positionAt converts a byte offset to a 1-based line and rune column.
func positionAt(contents, file string, offset int) core.Position {
	prefix := contents[:offset]
	line := strings.Count(prefix, "\n") + 1
	lineStart := strings.LastIndexByte(prefix, '\n') + 1
	return core.Position{
		File:   file,
		Line:   line,
		Column: utf8.RuneCountInString(prefix[lineStart:]) + 1,
	}
}

func sortByOffset(diagnostics []core.Diagnostic) {
	sort.SliceStable(diagnostics, func(i, j int) bool {
		a, b := diagnostics[i].Pos, diagnostics[j].Pos
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

// ReplacePartials replaces every well-formed partial tag in contents with the
// result of fn, called with the tag's identifier and position. Tags with an
// empty identifier and malformed openings are left as they are. The first
// error from fn stops the replacement and is returned.
func ReplacePartials(contents, file string, fn func(name string, pos core.Position) (string, error)) (string, error) {
	matches := partialTagPattern.FindAllStringSubmatchIndex(contents, -1)
	if len(matches) == 0 {
		return contents, nil
	}

	var b strings.Builder
	b.Grow(len(contents))
	last := 0
	for _, m := range matches {
		name := trimQuotes(contents[m[2]:m[3]])
		if name == "" {
			continue
		}
		replacement, err := fn(name, positionAt(contents, file, m[0]))
		if err != nil {
			return "", err
		}
		b.WriteString(contents[last:m[0]])
		b.WriteString(replacement)
		last = m[1]
	}
	b.WriteString(contents[last:])
	return b.String(), nil
}
