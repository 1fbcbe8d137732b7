package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulesets-dev/rulesets/internal/cli/config"
	"github.com/rulesets-dev/rulesets/internal/cli/output"
	clitestutil "github.com/rulesets-dev/rulesets/internal/cli/testutil"
	"github.com/rulesets-dev/rulesets/internal/testutil"
)

func TestCompileCommand_WritesArtifacts(t *testing.T) {
	root := clitestutil.SetupTestProject(t)
	cfg := loadConfig(t, root)

	out, err := execute(t, cfg, NewCompileCommand())
	require.NoError(t, err)
	clitestutil.AssertNoANSI(t, out)
	assert.Contains(t, out, ".ruleset/rules/go/style.md → .cursor/rules/go/style.mdc")
	assert.Contains(t, out, "2 documents (0 failed) | 4 artifacts written")

	cursor := testutil.ReadFile(t, root, ".cursor/rules/go/style.mdc")
	assert.Contains(t, cursor, "description: Go style")
	assert.Contains(t, cursor, "Keep it simple.")
	assert.NotContains(t, cursor, "{{>")

	review := testutil.ReadFile(t, root, ".github/instructions/review.instructions.md")
	assert.Contains(t, review, "- tests pass")
	assert.Contains(t, review, "Keep it simple.")

	_, err = os.Stat(filepath.Join(root, ".ruleset", "cache", "state.db"))
	require.NoError(t, err, "compile cache is created")
}

func TestCompileCommand_SecondRunUnchanged(t *testing.T) {
	root := clitestutil.SetupTestProject(t)
	cfg := loadConfig(t, root, jsonFormat)

	_, err := execute(t, cfg, NewCompileCommand())
	require.NoError(t, err)

	out, err := execute(t, cfg, NewCompileCommand())
	require.NoError(t, err)

	report := decodeJSON[compileReport](t, out)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 0, report.Written)
	require.Len(t, report.Documents, 2)
	for _, doc := range report.Documents {
		for _, a := range doc.Artifacts {
			assert.False(t, a.Written, "%s for %s should be unchanged", doc.ID, a.Destination)
		}
	}

	out, err = execute(t, cfg, NewCompileCommand(), "--force")
	require.NoError(t, err)
	assert.Equal(t, 4, decodeJSON[compileReport](t, out).Written)
}

func TestCompileCommand_DryRun(t *testing.T) {
	root := clitestutil.SetupTestProject(t)
	cfg := loadConfig(t, root)

	out, err := execute(t, cfg, NewCompileCommand(), "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "(dry run)")

	for _, rel := range []string{".cursor", ".github", ".ruleset/cache"} {
		_, err := os.Stat(filepath.Join(root, rel))
		assert.True(t, os.IsNotExist(err), "%s should not exist after a dry run", rel)
	}
}

func TestCompileCommand_SelectedFile(t *testing.T) {
	root := clitestutil.SetupTestProject(t)
	cfg := loadConfig(t, root, jsonFormat, func(c *config.Config) {
		c.Project.Destinations = []string{"cursor"}
	})

	out, err := execute(t, cfg, NewCompileCommand(), filepath.Join(".ruleset", "rules", "review.md"))
	require.NoError(t, err)

	report := decodeJSON[compileReport](t, out)
	require.Len(t, report.Documents, 1)
	assert.Equal(t, "review", report.Documents[0].ID)
	require.Len(t, report.Documents[0].Artifacts, 1)
	assert.Equal(t, "cursor", report.Documents[0].Artifacts[0].Destination)
	assert.Equal(t, ".cursor/rules/review.mdc", report.Documents[0].Artifacts[0].Path)
}

func TestCompileCommand_MissingFile(t *testing.T) {
	root := clitestutil.SetupTestProject(t)
	cfg := loadConfig(t, root)

	_, err := execute(t, cfg, NewCompileCommand(), "nope.md")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.md")
}

func TestCompileCommand_FailedDocument(t *testing.T) {
	root := clitestutil.SetupTestProject(t)
	testutil.WriteFiles(t, root, map[string]string{
		".ruleset/rules/broken.md": "# Broken\n\n{{> missing}}\n",
	})
	cfg := loadConfig(t, root)

	out, err := execute(t, cfg, NewCompileCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 documents failed to compile")
	assert.Contains(t, out, `unknown partial "missing"`)

	// The other rules still compile
	assert.Contains(t, testutil.ReadFile(t, root, ".cursor/rules/review.mdc"), "- tests pass")
}

func TestCompileCommand_UnknownDestination(t *testing.T) {
	root := clitestutil.SetupTestProject(t)
	cfg := loadConfig(t, root, func(c *config.Config) {
		c.Project.Destinations = []string{"emacs"}
	})

	_, err := execute(t, cfg, NewCompileCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "emacs")
}

func TestRenderCompileResult_Diagnostics(t *testing.T) {
	root := clitestutil.SetupTestProject(t)
	testutil.WriteFiles(t, root, map[string]string{
		".ruleset/rules/warn.md": "# Warn\n\n{{> }}\n",
	})
	cfg := loadConfig(t, root)
	c, err := newCompiler(cfg, testutil.NewTestLogger(t), nil, compilerOptions{DryRun: true})
	require.NoError(t, err)

	result, err := c.CompileFiles(t.Context(), []string{filepath.Join(c.RulesDir(), "warn.md")})
	require.NoError(t, err)

	tr := clitestutil.NewTestRenderer(output.ModeMarkdown, false)
	require.NoError(t, renderCompileResult(tr.Renderer, c.Root(), result, true))
	assert.Contains(t, tr.Output(), output.SymbolWarning+" ")
	assert.Contains(t, tr.Output(), "1 diagnostics")
	clitestutil.AssertNoANSI(t, tr.Output())

	report := newCompileReport(c.Root(), result, true)
	assert.True(t, report.DryRun)
	require.Len(t, report.Documents, 1)
	assert.NotEmpty(t, report.Documents[0].Diagnostics)
}
