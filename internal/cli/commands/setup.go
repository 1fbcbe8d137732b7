// Package commands implements the rulesets subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rulesets-dev/rulesets/internal/cli/config"
	"github.com/rulesets-dev/rulesets/internal/cli/output"
	"github.com/rulesets-dev/rulesets/internal/compiler"
	intconfig "github.com/rulesets-dev/rulesets/internal/config"
	"github.com/rulesets-dev/rulesets/internal/destination"
	"github.com/rulesets-dev/rulesets/internal/state"
)

// CommandContext holds the common dependencies for command execution.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Compiler *compiler.Compiler
	Store    *state.SQLiteStore // nil unless opened
}

// compilerOptions controls how NewCommandContext builds the compiler.
type compilerOptions struct {
	DryRun    bool
	Force     bool
	WithStore bool // open the compile cache; ignored for dry runs
}

// NewCommandContext creates a CommandContext with a compiler for the
// loaded project. The returned cleanup closes the state store.
func NewCommandContext(cmd *cobra.Command, opts compilerOptions) (*CommandContext, func(), error) {
	cctx := NewCommandContextWithoutCompiler(cmd)
	cleanup := func() {}

	if opts.WithStore && !opts.DryRun {
		store := state.NewSQLiteStore(cctx.Logger)
		path := intconfig.StatePath(cctx.Cfg.ProjectRoot, &cctx.Cfg.Project)
		if err := store.Open(cmd.Context(), path); err != nil {
			return nil, nil, fmt.Errorf("failed to open state store: %w", err)
		}
		cctx.Store = store
		cleanup = func() { _ = store.Close() }
	}

	c, err := newCompiler(cctx.Cfg, cctx.Logger, cctx.Store, opts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cctx.Compiler = c

	return cctx, cleanup, nil
}

// NewCommandContextWithoutCompiler creates a CommandContext for commands
// that do not compile.
func NewCommandContextWithoutCompiler(cmd *cobra.Command) *CommandContext {
	cfg := config.GetConfig(cmd.Context())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.OutputMode()),
	}
}

func newCompiler(cfg *config.Config, logger *slog.Logger, store *state.SQLiteStore, opts compilerOptions) (*compiler.Compiler, error) {
	project := cfg.Project
	ccfg := compiler.Config{
		ProjectRoot: cfg.ProjectRoot,
		Project:     &project,
		DryRun:      opts.DryRun,
		Force:       opts.Force,
		Concurrency: cfg.Concurrency,
		Logger:      logger,
	}
	if store != nil {
		ccfg.Store = store
	}
	return compiler.New(ccfg)
}

// addDestinationFlag registers --destination with shell completion.
func addDestinationFlag(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("destination", "d", nil, "Destinations to compile for (default: from config, or all)")
	_ = cmd.RegisterFlagCompletionFunc("destination", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return destination.List(), cobra.ShellCompDirectiveNoFileComp
	})
}

// relPath returns path relative to root for display, falling back to path.
func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !filepath.IsAbs(rel) && rel != "" {
		return filepath.ToSlash(rel)
	}
	return path
}

// absPaths resolves command arguments against the working directory.
func absPaths(args []string) ([]string, error) {
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", arg, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("rule file %s: %w", arg, err)
		}
		paths = append(paths, abs)
	}
	return paths, nil
}
