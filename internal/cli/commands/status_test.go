package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitestutil "github.com/rulesets-dev/rulesets/internal/cli/testutil"
)

func TestStatusCommand_NoCache(t *testing.T) {
	root := clitestutil.SetupTestProject(t)
	cfg := loadConfig(t, root)

	out, err := execute(t, cfg, NewStatusCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "No compile cache yet")
}

func TestStatusCommand_AfterCompile(t *testing.T) {
	root := clitestutil.SetupTestProject(t)
	cfg := loadConfig(t, root)

	_, err := execute(t, cfg, NewCompileCommand())
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(root, ".cursor", "rules", "review.mdc")))

	cfg.Format = "json"
	out, err := execute(t, cfg, NewStatusCommand())
	require.NoError(t, err)

	statuses := decodeJSON[[]artifactStatus](t, out)
	require.Len(t, statuses, 4)

	missing := map[string]bool{}
	for _, s := range statuses {
		assert.Len(t, s.Hash, 12)
		missing[s.Document+"/"+s.Destination] = s.Missing
	}
	assert.True(t, missing["review/cursor"])
	assert.False(t, missing["review/copilot"])
	assert.False(t, missing["go/style/cursor"])

	cfg.Format = "markdown"
	out, err = execute(t, cfg, NewStatusCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "# Artifacts (4 total)")
	assert.Contains(t, out, "1 artifacts are missing on disk")
}
