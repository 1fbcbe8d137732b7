// Package cli provides the command-line interface for rulesets.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rulesets-dev/rulesets/internal/cli/commands"
	"github.com/rulesets-dev/rulesets/internal/cli/config"
	"github.com/rulesets-dev/rulesets/internal/cli/output"
	"github.com/rulesets-dev/rulesets/internal/logging"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// skipConfig lists commands that run without loading project configuration.
var skipConfig = map[string]bool{
	"help":       true,
	"completion": true,
	"__complete": true,
	"version":    true,
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "rulesets",
		Short: "Rulesets - compile AI assistant rules for every editor",
		Long: `Rulesets compiles one set of markdown rule documents into the rule files
each AI coding assistant expects: Cursor, Windsurf, GitHub Copilot and more.

Rules live in .ruleset/rules and can include shared fragments from
.ruleset/partials with {{> name}}. Each destination decides where its copy is
written and how partials resolve for it.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipConfig[cmd.Name()] {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger, err := logging.New(cmd.ErrOrStderr(), cfg.Logging())
			if err != nil {
				return err
			}

			ctx := config.WithConfig(cmd.Context(), cfg)
			ctx = config.WithLogger(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("loaded config", "root", cfg.ProjectRoot, "file", cfg.ConfigFile)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: .ruleset/config.yaml)")
	flags.String("project-dir", "", "Project root (default: nearest directory containing .ruleset)")
	flags.String("rules-dir", "", "Path to rules directory")
	flags.String("partials-dir", "", "Path to an extra partials directory")
	flags.String("output-dir", "", "Root directory artifacts are written under")
	flags.String("state", "", "Path to compile cache database")
	flags.Int("concurrency", 0, "Documents compiled in parallel (default: number of CPUs)")
	flags.String("log-level", "", "Log level (error|warn|info|debug)")
	flags.String("log-format", "", "Log format (text|logfmt|json)")
	flags.StringP("format", "f", "", "Output format (auto|text|markdown|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return output.AllModes, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return logging.AllLevels, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return logging.AllFormats, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version, GitCommit, BuildDate))
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(commands.NewCompileCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewStatusCommand())
	rootCmd.AddCommand(commands.NewImportCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for rulesets.

To load completions:

Bash:
  $ source <(rulesets completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ rulesets completion bash > /etc/bash_completion.d/rulesets
  # macOS:
  $ rulesets completion bash > $(brew --prefix)/etc/bash_completion.d/rulesets

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ rulesets completion zsh > "${fpath[1]}/_rulesets"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ rulesets completion fish | source

  # To load completions for each session, execute once:
  $ rulesets completion fish > ~/.config/fish/completions/rulesets.fish

PowerShell:
  PS> rulesets completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> rulesets completion powershell > rulesets.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
