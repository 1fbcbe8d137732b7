// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/rulesets-dev/rulesets/internal/cli/output"
	"github.com/rulesets-dev/rulesets/internal/testutil"
)

// SampleProject is a small project with two rules sharing a partial chain.
var SampleProject = map[string]string{
	".ruleset/config.yaml": "destinations: [cursor, copilot]\n",
	".ruleset/rules/go/style.md": `---
description: Go style
globs: "**/*.go"
destinations:
  copilot:
    applyTo: "**/*.go"
---

# Go style

{{> footer}}
`,
	".ruleset/rules/review.md": `# Review

{{> checklist}}
`,
	".ruleset/partials/footer.md":    "Keep it simple.\n",
	".ruleset/partials/checklist.md": "- tests pass\n{{> footer}}\n",
}

// SetupTestProject creates a temporary project from SampleProject and
// returns its root.
func SetupTestProject(t *testing.T) string {
	t.Helper()
	return testutil.NewProject(t, SampleProject)
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
