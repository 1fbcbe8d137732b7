package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadata_Destination(t *testing.T) {
	meta := Metadata{FrontMatter: map[string]any{
		"destinations": map[string]any{
			"cursor":   map[string]any{"handlebars": map[string]any{"force": true}},
			"windsurf": "not a block",
		},
	}}

	assert.NotNil(t, meta.Destination("cursor"))
	assert.Nil(t, meta.Destination("windsurf"), "non-mapping block is ignored")
	assert.Nil(t, meta.Destination("copilot"))
	assert.Nil(t, Metadata{}.Destination("cursor"))
}

func TestRulesetDocument_WithDependencies(t *testing.T) {
	doc := &RulesetDocument{Source: Source{ID: "a", Contents: "x"}}
	deps := []Dependency{PartialDependency("footer")}

	next := doc.WithDependencies(deps)

	require.NotSame(t, doc, next)
	assert.Nil(t, doc.Dependencies, "receiver must not change")
	assert.Equal(t, deps, next.Dependencies)
	assert.Equal(t, doc.Source, next.Source)
}

func TestRulesetDocument_WithContents(t *testing.T) {
	doc := &RulesetDocument{Source: Source{ID: "a", Contents: "x"}}

	next := doc.WithContents("y")

	assert.Equal(t, "x", doc.Source.Contents)
	assert.Equal(t, "y", next.Source.Contents)
}

func TestRulesetDocument_Name(t *testing.T) {
	assert.Equal(t, "style", (&RulesetDocument{Source: Source{ID: "style", Path: "/p/style.md"}}).Name())
	assert.Equal(t, "/p/style.md", (&RulesetDocument{Source: Source{Path: "/p/style.md"}}).Name())
}

func TestDependency_Key(t *testing.T) {
	assert.Equal(t, "partial:footer", PartialDependency("footer").Key())
}

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{Severity: SeverityWarning, Message: "bad tag", Pos: Position{File: "a.md", Line: 2, Column: 5}}
	assert.Equal(t, "a.md:2:5: warning: bad tag", d.String())
}

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityError, "error"},
		{SeverityWarning, "warning"},
		{Severity(7), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.severity.String())
		})
	}
}
