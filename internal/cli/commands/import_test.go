package commands

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitestutil "github.com/rulesets-dev/rulesets/internal/cli/testutil"
	"github.com/rulesets-dev/rulesets/internal/testutil"
)

func TestImportCommand(t *testing.T) {
	root := clitestutil.SetupTestProject(t)
	src := filepath.Join(t.TempDir(), "Testing Guide.md")
	testutil.WriteFiles(t, filepath.Dir(src), map[string]string{
		"Testing Guide.md": "# Testing\n\nWrite table tests.\n",
	})
	cfg := loadConfig(t, root)

	out, err := execute(t, cfg, NewImportCommand(), src)
	require.NoError(t, err)
	assert.Contains(t, out, "to .ruleset/rules/testing-guide.md")
	assert.Equal(t, "# Testing\n\nWrite table tests.\n", testutil.ReadFile(t, root, ".ruleset/rules/testing-guide.md"))

	_, err = execute(t, cfg, NewImportCommand(), src)
	require.Error(t, err, "existing rule is not overwritten")

	_, err = execute(t, cfg, NewImportCommand(), src, "--force", "--name", "team/testing")
	require.NoError(t, err)
	assert.Contains(t, testutil.ReadFile(t, root, ".ruleset/rules/team/testing.md"), "Write table tests.")
}
