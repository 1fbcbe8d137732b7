package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	intconfig "github.com/rulesets-dev/rulesets/internal/config"
	"github.com/rulesets-dev/rulesets/internal/importer"
)

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	var opts importer.Options

	cmd := &cobra.Command{
		Use:   "import <file|url>",
		Short: "Import a markdown or HTML document as a rule",
		Long: `Import a document into the rules directory.

Markdown is copied as is. HTML pages are reduced to their main content and
converted to markdown, with the page title kept as the rule description.
Sources may be local files or http(s) URLs.`,
		Example: `  # Import a local markdown file
  rulesets import ~/notes/testing.md

  # Import a web page under a chosen name
  rulesets import https://example.com/style-guide --name team/style`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cctx := NewCommandContextWithoutCompiler(cmd)
			opts.RulesDir = intconfig.RulesDir(cctx.Cfg.ProjectRoot, &cctx.Cfg.Project)
			opts.Logger = cctx.Logger

			result, err := importer.Import(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			msg := fmt.Sprintf("Imported %s to %s", result.Source, relPath(cctx.Cfg.ProjectRoot, result.Path))
			if result.Converted {
				msg += " (converted from HTML)"
			}
			cctx.Renderer.Success(msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "Rule name, relative to the rules directory (default: derived from the source)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite an existing rule")

	return cmd
}
