package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rulesets-dev/rulesets/internal/cli/config"
	"github.com/rulesets-dev/rulesets/internal/compiler"
	"github.com/rulesets-dev/rulesets/internal/watch"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompile rules when they or their partials change",
		Long: `Compile every rule, then watch the rules, partials and mixins directories
and recompile whatever a change affects.

Editing a rule recompiles that rule. Editing a partial recompiles every rule
that includes it, directly or through other partials. Editing the project
config reloads it and recompiles everything.`,
		Example: `  # Watch with the configured destinations
  rulesets watch

  # Watch and only produce Cursor rules
  rulesets watch -d cursor`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, debounce)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Time to wait for changes to settle before recompiling")
	addDestinationFlag(cmd)

	return cmd
}

func runWatch(cmd *cobra.Command, debounce time.Duration) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cctx, cleanup, err := NewCommandContext(cmd, compilerOptions{WithStore: true})
	if err != nil {
		return err
	}
	defer cleanup()

	w, err := watch.NewWatcher(cctx.Logger, debounce)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	s := &watchSession{cmd: cmd, cctx: cctx, watcher: w}
	if err := s.compileAll(ctx); err != nil {
		return err
	}
	if err := s.addRoots(); err != nil {
		return err
	}

	cctx.Renderer.Muted(fmt.Sprintf("Watching %d paths for changes (Ctrl+C to stop)", len(w.Watched())))
	return w.Run(ctx, s.handle)
}

// watchSession holds the state of one watch command.
type watchSession struct {
	cmd     *cobra.Command
	cctx    *CommandContext
	watcher *watch.Watcher
	deps    watch.PathSet
}

// addRoots registers the compiler's dependency directories and the project
// config file with the watcher.
func (s *watchSession) addRoots() error {
	s.deps = s.cctx.Compiler.WatchPaths()
	roots := s.deps.Sorted()
	if s.cctx.Cfg.ConfigFile != "" {
		roots = append(roots, s.cctx.Cfg.ConfigFile)
	}
	return s.watcher.Add(roots...)
}

func (s *watchSession) handle(ctx context.Context, changed watch.PathSet) error {
	if cfgFile := s.cctx.Cfg.ConfigFile; cfgFile != "" && changed.Contains(cfgFile) {
		if err := s.reload(); err != nil {
			return err
		}
		return s.compileAll(ctx)
	}

	if !watch.ShouldInvalidateCache(changed, s.deps) {
		s.cctx.Logger.Debug("ignoring changes outside dependency paths", "paths", changed.Len())
		return nil
	}

	files := s.cctx.Compiler.Affected(changed)
	if len(files) == 0 {
		s.cctx.Logger.Debug("no rules affected", "paths", changed.Len())
		return nil
	}

	result, err := s.cctx.Compiler.CompileFiles(ctx, files)
	if err != nil {
		return err
	}
	return s.report(result)
}

func (s *watchSession) compileAll(ctx context.Context) error {
	result, err := s.cctx.Compiler.CompileAll(ctx)
	if err != nil {
		return err
	}
	return s.report(result)
}

// report prints a result. Failed documents are shown but do not end the session.
func (s *watchSession) report(result *compiler.Result) error {
	return renderCompileResult(s.cctx.Renderer, s.cctx.Compiler.Root(), result, false)
}

// reload re-reads configuration and rebuilds the compiler, keeping the
// state store and watcher.
func (s *watchSession) reload() error {
	cfgFile, _ := s.cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, s.cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	c, err := newCompiler(cfg, s.cctx.Logger, s.cctx.Store, compilerOptions{WithStore: true})
	if err != nil {
		return err
	}

	s.cctx.Cfg = cfg
	s.cctx.Compiler = c
	s.cctx.Logger.Info("reloaded config", "file", cfg.ConfigFile)
	return s.addRoots()
}
