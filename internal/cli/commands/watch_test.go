package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulesets-dev/rulesets/internal/cli/config"
	clitestutil "github.com/rulesets-dev/rulesets/internal/cli/testutil"
	"github.com/rulesets-dev/rulesets/internal/testutil"
	"github.com/rulesets-dev/rulesets/internal/watch"
)

// newWatchSession compiles the project once and returns a session whose
// watcher is registered but not running.
func newWatchSession(t *testing.T, root string) (*watchSession, *bytes.Buffer) {
	t.Helper()
	cfg := loadConfig(t, root)

	cmd := NewWatchCommand()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	ctx := config.WithConfig(context.Background(), cfg)
	cmd.SetContext(config.WithLogger(ctx, testutil.NewTestLogger(t)))

	cctx, cleanup, err := NewCommandContext(cmd, compilerOptions{WithStore: true})
	require.NoError(t, err)
	t.Cleanup(cleanup)

	w, err := watch.NewWatcher(cctx.Logger, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	s := &watchSession{cmd: cmd, cctx: cctx, watcher: w}
	require.NoError(t, s.compileAll(t.Context()))
	require.NoError(t, s.addRoots())
	out.Reset()
	return s, out
}

func TestWatchSession_AddRoots(t *testing.T) {
	root := clitestutil.SetupTestProject(t)
	s, _ := newWatchSession(t, root)

	rulesDir := s.cctx.Compiler.RulesDir()
	assert.True(t, s.deps.Contains(rulesDir))
	assert.Contains(t, s.watcher.Watched(), rulesDir)
	assert.Contains(t, s.watcher.Watched(), s.cctx.Cfg.ConfigFile)
}

func TestWatchSession_PartialChangeRecompilesDependents(t *testing.T) {
	root := clitestutil.SetupTestProject(t)
	s, out := newWatchSession(t, root)

	testutil.WriteFiles(t, root, map[string]string{
		".ruleset/partials/checklist.md": "- lint passes\n",
	})
	changed := watch.NewPathSet(filepath.Join(s.cctx.Compiler.Root(), ".ruleset", "partials", "checklist.md"))

	require.NoError(t, s.handle(t.Context(), changed))
	assert.Contains(t, out.String(), "1 documents (0 failed)", "only the rule including checklist is recompiled")
	assert.Contains(t, testutil.ReadFile(t, root, ".cursor/rules/review.mdc"), "- lint passes")
}

func TestWatchSession_SharedPartialRecompilesAll(t *testing.T) {
	root := clitestutil.SetupTestProject(t)
	s, out := newWatchSession(t, root)

	testutil.WriteFiles(t, root, map[string]string{
		".ruleset/partials/footer.md": "Keep it boring.\n",
	})
	changed := watch.NewPathSet(filepath.Join(s.cctx.Compiler.Root(), ".ruleset", "partials", "footer.md"))

	require.NoError(t, s.handle(t.Context(), changed))
	assert.Contains(t, out.String(), "2 documents (0 failed)")
	assert.Contains(t, testutil.ReadFile(t, root, ".cursor/rules/go/style.mdc"), "Keep it boring.")
	assert.Contains(t, testutil.ReadFile(t, root, ".cursor/rules/review.mdc"), "Keep it boring.")
}

func TestWatchSession_TemplatesChangeRecompilesAll(t *testing.T) {
	root := clitestutil.SetupTestProject(t)
	s, out := newWatchSession(t, root)

	testutil.WriteFiles(t, root, map[string]string{
		".ruleset/templates/base.md": "base\n",
	})
	changed := watch.NewPathSet(filepath.Join(s.cctx.Compiler.Root(), ".ruleset", "templates", "base.md"))

	require.NoError(t, s.handle(t.Context(), changed))
	assert.Contains(t, out.String(), "2 documents (0 failed)")
}

func TestWatchSession_IgnoresUnrelatedChanges(t *testing.T) {
	root := clitestutil.SetupTestProject(t)
	s, out := newWatchSession(t, root)

	changed := watch.NewPathSet(filepath.Join(s.cctx.Compiler.Root(), "README.md"))
	require.NoError(t, s.handle(t.Context(), changed))
	assert.Empty(t, out.String())
}

func TestWatchSession_ConfigChangeReloads(t *testing.T) {
	root := clitestutil.SetupTestProject(t)
	s, out := newWatchSession(t, root)
	assert.Equal(t, []string{"cursor", "copilot"}, s.cctx.Compiler.Destinations())

	testutil.WriteFiles(t, root, map[string]string{
		".ruleset/config.yaml": "destinations: [windsurf]\n",
	})

	require.NoError(t, s.handle(t.Context(), watch.NewPathSet(s.cctx.Cfg.ConfigFile)))
	assert.Equal(t, []string{"windsurf"}, s.cctx.Compiler.Destinations())
	assert.Contains(t, out.String(), "2 documents (0 failed)")
	assert.Contains(t, testutil.ReadFile(t, root, ".windsurf/rules/review.md"), "- tests pass")
}

func TestWatchSession_BrokenConfigKeepsSession(t *testing.T) {
	root := clitestutil.SetupTestProject(t)
	s, _ := newWatchSession(t, root)
	before := s.cctx.Compiler

	testutil.WriteFiles(t, root, map[string]string{
		".ruleset/config.yaml": "destinations: [emacs]\n",
	})

	err := s.handle(t.Context(), watch.NewPathSet(s.cctx.Cfg.ConfigFile))
	require.Error(t, err)
	assert.Same(t, before, s.cctx.Compiler, "compiler is kept when the new config is invalid")
}
