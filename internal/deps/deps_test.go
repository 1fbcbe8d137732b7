package deps

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulesets-dev/rulesets/pkg/core"
)

func names(deps []core.Dependency) []string {
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		out = append(out, d.Identifier)
	}
	return out
}

func TestExtractPartials(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "no tags", input: "# Title\n\nplain text", want: []string{}},
		{name: "simple", input: "{{> footer}}", want: []string{"footer"}},
		{name: "spaces around sigil", input: "{{  >   footer  }}", want: []string{"footer"}},
		{name: "no space", input: "{{>footer}}", want: []string{"footer"}},
		{name: "double quoted", input: `{{> "shared/footer" }}`, want: []string{"shared/footer"}},
		{name: "single quoted", input: `{{> 'header'}}`, want: []string{"header"}},
		{name: "trailing content ignored", input: `{{> card title="x" level=2}}`, want: []string{"card"}},
		{name: "single brace in trailing content", input: `{{> footer title="}"}} {{> card x="a}b" }}`, want: []string{"footer", "card"}},
		{
			name:  "first occurrence order with duplicates",
			input: "{{> b}} {{> a}} {{> b}} {{> 'a'}} {{> c}}",
			want:  []string{"b", "a", "c"},
		},
		{name: "plain variables are not partials", input: "{{ name }} {{#if x}}{{/if}}", want: []string{}},
		{name: "empty quoted identifier skipped", input: `{{> "" }} {{> ok}}`, want: []string{"ok"}},
		{name: "missing identifier skipped", input: "{{> }} {{> ok}}", want: []string{"ok"}},
		{name: "unterminated skipped", input: "{{> ok}} {{> dangling", want: []string{"ok"}},
		{name: "multiline", input: "a\n{{>\n  footer\n}}\nb", want: []string{"footer"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractPartials(tt.input)
			assert.Equal(t, tt.want, names(got))
			for _, d := range got {
				assert.Equal(t, core.DependencyKindPartial, d.Kind)
			}
		})
	}
}

func TestExtractPartials_Idempotent(t *testing.T) {
	input := "{{> a}}\n{{> b}}\n{{> a}}"
	assert.Equal(t, ExtractPartials(input), ExtractPartials(input))
}

func TestScan_Diagnostics(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantMsgs []string
		wantPos  []core.Position
	}{
		{name: "clean", input: "{{> a}} {{> b}}", wantMsgs: nil},
		{name: "single brace in trailing content", input: `{{> footer title="}"}}`, wantMsgs: nil},
		{
			name:     "missing identifier",
			input:    "line one\n  {{> }}",
			wantMsgs: []string{"partial tag is missing an identifier"},
			wantPos:  []core.Position{{File: "rule.md", Line: 2, Column: 3}},
		},
		{
			name:     "empty quoted identifier",
			input:    `{{> '' }}`,
			wantMsgs: []string{"partial tag has an empty identifier"},
			wantPos:  []core.Position{{File: "rule.md", Line: 1, Column: 1}},
		},
		{
			name:     "unterminated",
			input:    "{{> a}}\n{{> b",
			wantMsgs: []string{"unterminated partial tag"},
			wantPos:  []core.Position{{File: "rule.md", Line: 2, Column: 1}},
		},
		{
			name:     "ordered by position",
			input:    "{{> ''}}\n{{>}}",
			wantMsgs: []string{"partial tag has an empty identifier", "partial tag is missing an identifier"},
			wantPos: []core.Position{
				{File: "rule.md", Line: 1, Column: 1},
				{File: "rule.md", Line: 2, Column: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := Scan(tt.input, "rule.md")
			require.Len(t, diags, len(tt.wantMsgs))
			for i, d := range diags {
				assert.Equal(t, core.SeverityWarning, d.Severity)
				assert.Equal(t, tt.wantMsgs[i], d.Message)
				assert.Equal(t, tt.wantPos[i], d.Pos)
			}
		})
	}
}

func TestScan_MatchesExtract(t *testing.T) {
	input := "{{> a}} {{> }} {{> b}} {{> a}}"
	deps, _ := Scan(input, "")
	assert.Equal(t, ExtractPartials(input), deps)
}

func TestReplacePartials(t *testing.T) {
	contents := "a {{> one}} b\n{{> 'two' x=1}} {{> \"\"}} {{>}}"

	var seen []string
	got, err := ReplacePartials(contents, "rule.md", func(name string, pos core.Position) (string, error) {
		seen = append(seen, fmt.Sprintf("%s@%d:%d", name, pos.Line, pos.Column))
		return strings.ToUpper(name), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "a ONE b\nTWO {{> \"\"}} {{>}}", got)
	assert.Equal(t, []string{"one@1:3", "two@2:1"}, seen)
}

func TestReplacePartials_Error(t *testing.T) {
	boom := errors.New("boom")
	_, err := ReplacePartials("{{> one}}", "", func(string, core.Position) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestReplacePartials_NoTags(t *testing.T) {
	got, err := ReplacePartials("plain", "", func(string, core.Position) (string, error) {
		t.Fatal("fn must not be called")
		return "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "plain", got)
}
