package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	intconfig "github.com/rulesets-dev/rulesets/internal/config"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ruleset project",
		Long: `Initialize a ruleset project with the default layout:

  .ruleset/config.yaml     project configuration
  .ruleset/rules/          rule documents, one per compiled artifact
  .ruleset/partials/       shared fragments included with {{> name}}
  .ruleset/.gitignore      keeps the compile cache out of version control`,
		Example: `  # Initialize in current directory
  rulesets init

  # Initialize in a new directory
  rulesets init my-project

  # Restore the default files over an existing project
  rulesets init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	r := NewCommandContextWithoutCompiler(cmd).Renderer

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if existing := intconfig.FindConfigFile(dir); existing != "" && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", existing)
	}

	files, err := copyTemplate("minimal", dir, force)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	for _, f := range files {
		r.Success(filepath.ToSlash(filepath.Join(dir, f)))
	}

	r.Println()
	r.Success("Ruleset project initialized!")
	r.Println()
	r.Println("Next steps:")
	r.Println("  1. Write rules in .ruleset/rules/")
	r.Println("  2. Put shared fragments in .ruleset/partials/ and include them with {{> name}}")
	r.Println("  3. Run 'rulesets compile' to generate destination files")
	r.Println("  4. Run 'rulesets watch' to recompile on change")

	return nil
}
