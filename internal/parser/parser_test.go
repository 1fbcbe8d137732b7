package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulesets-dev/rulesets/pkg/core"
)

const sampleRule = `---
description: Go style
imports:
  - shared/base
destinations:
  cursor:
    handlebars:
      force: true
---
# Go style

Use {{ project.name }} conventions.

{{> footer}}

` + "```md\n# not a heading\n```" + `

## Errors ##

{{#if strict}}
Wrap errors.
{{else}}
{{/if}}
`

func TestParse(t *testing.T) {
	doc, err := Parse(core.Source{ID: "go-style", Path: "go-style.md", Contents: sampleRule})
	require.NoError(t, err)

	assert.Equal(t, core.FormatRule, doc.Source.Format)
	assert.Equal(t, sampleRule, doc.Source.Contents, "contents keep the front matter")
	assert.Equal(t, "Go style", doc.Metadata.FrontMatter["description"])
	assert.NotNil(t, doc.Metadata.Destination("cursor"))
	assert.Nil(t, doc.Dependencies)

	require.Len(t, doc.AST.Sections, 2)
	assert.Equal(t, core.Section{Title: "Go style", Level: 1, Pos: core.Position{File: "go-style.md", Line: 10, Column: 1}}, doc.AST.Sections[0])
	assert.Equal(t, "Errors", doc.AST.Sections[1].Title)
	assert.Equal(t, 2, doc.AST.Sections[1].Level)

	assert.Equal(t, []core.Import{{Path: "shared/base"}}, doc.AST.Imports)

	require.Len(t, doc.AST.Variables, 1)
	assert.Equal(t, "project.name", doc.AST.Variables[0].Name)
	assert.Equal(t, 12, doc.AST.Variables[0].Pos.Line)

	require.Len(t, doc.AST.Markers, 2)
	assert.Equal(t, core.Marker{Name: "if", Kind: core.MarkerOpen, Args: "strict", Pos: doc.AST.Markers[0].Pos}, doc.AST.Markers[0])
	assert.Equal(t, core.MarkerClose, doc.AST.Markers[1].Kind)
}

func TestParse_NoFrontMatter(t *testing.T) {
	doc, err := Parse(core.Source{Contents: "# Title\n{{ name }}"})
	require.NoError(t, err)
	assert.Nil(t, doc.Metadata.FrontMatter)
	require.Len(t, doc.AST.Sections, 1)
	assert.Equal(t, 1, doc.AST.Sections[0].Pos.Line)
	require.Len(t, doc.AST.Variables, 1)
}

func TestParse_InvalidFrontMatter(t *testing.T) {
	_, err := Parse(core.Source{Path: "bad.md", Contents: "---\nkey: [\n---\nbody"})

	var fmErr *FrontMatterError
	require.ErrorAs(t, err, &fmErr)
	assert.Equal(t, "bad.md", fmErr.File)
	assert.Contains(t, err.Error(), "bad.md:2: invalid YAML")
}

func TestParse_InvalidImports(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []core.Import
		wantErr bool
	}{
		{name: "single string", content: "---\nimports: base\n---\n", want: []core.Import{{Path: "base"}}},
		{name: "map", content: "---\nimports: {a: b}\n---\n", wantErr: true},
		{name: "non-string item", content: "---\nimports: [1]\n---\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(core.Source{Contents: tt.content})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.AST.Imports)
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rule.md")
	require.NoError(t, os.WriteFile(path, []byte("# Hi\n"), 0o600))

	doc, err := ParseFile(path, "rule", core.FormatRule)
	require.NoError(t, err)
	assert.Equal(t, "rule", doc.Source.ID)
	assert.Equal(t, path, doc.Source.Path)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.md"), "missing", core.FormatRule)
	assert.Error(t, err)
}
