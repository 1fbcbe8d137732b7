package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rulesets-dev/rulesets/internal/cli/output"
	"github.com/rulesets-dev/rulesets/internal/compiler"
)

// CompileOptions holds options for the compile command.
type CompileOptions struct {
	DryRun bool
	Force  bool
}

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	opts := &CompileOptions{}

	cmd := &cobra.Command{
		Use:     "compile [files...]",
		Aliases: []string{"build"},
		Short:   "Compile rules into destination artifacts",
		Long: `Compile ruleset documents into the files each destination expects.

Every rule under .ruleset/rules is parsed, run through the transform pipeline,
has its {{> partial}} references expanded, and is written once per destination.
Artifacts whose content has not changed since the last compile are left alone.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --format to override: auto, text, markdown, json`,
		Example: `  # Compile every rule for the configured destinations
  rulesets compile

  # Compile one rule for Cursor only
  rulesets compile .ruleset/rules/go/style.md -d cursor

  # Show what would be written without touching the filesystem
  rulesets compile --dry-run

  # Rewrite every artifact even if unchanged
  rulesets compile --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Compile without writing artifacts")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Rewrite artifacts even when unchanged")
	addDestinationFlag(cmd)

	return cmd
}

func runCompile(cmd *cobra.Command, args []string, opts *CompileOptions) error {
	cctx, cleanup, err := NewCommandContext(cmd, compilerOptions{
		DryRun:    opts.DryRun,
		Force:     opts.Force,
		WithStore: true,
	})
	if err != nil {
		return err
	}
	defer cleanup()

	var result *compiler.Result
	if len(args) == 0 {
		result, err = cctx.Compiler.CompileAll(cmd.Context())
	} else {
		var paths []string
		if paths, err = absPaths(args); err != nil {
			return err
		}
		result, err = cctx.Compiler.CompileFiles(cmd.Context(), paths)
	}
	if err != nil {
		return err
	}

	if err := renderCompileResult(cctx.Renderer, cctx.Compiler.Root(), result, opts.DryRun); err != nil {
		return err
	}

	if n := result.Failed(); n > 0 {
		return fmt.Errorf("%d of %d documents failed to compile", n, len(result.Documents))
	}
	return nil
}

// compileReport is the JSON form of a compile result.
type compileReport struct {
	RunID     string           `json:"run_id,omitempty"`
	DryRun    bool             `json:"dry_run"`
	Documents []documentReport `json:"documents"`
	Failed    int              `json:"failed"`
	Written   int              `json:"written"`
	Duration  string           `json:"duration"`
}

type documentReport struct {
	ID          string           `json:"id"`
	Path        string           `json:"path"`
	Error       string           `json:"error,omitempty"`
	Diagnostics []string         `json:"diagnostics,omitempty"`
	Artifacts   []artifactReport `json:"artifacts,omitempty"`
}

type artifactReport struct {
	Destination string `json:"destination"`
	Path        string `json:"path"`
	Hash        string `json:"hash"`
	Written     bool   `json:"written"`
}

func renderCompileResult(r *output.Renderer, root string, result *compiler.Result, dryRun bool) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(newCompileReport(root, result, dryRun))
	}

	for _, doc := range result.Documents {
		path := relPath(root, doc.Path)
		if doc.Err != nil {
			r.Error(fmt.Sprintf("%s: %v", path, doc.Err))
		}
		for _, d := range doc.Diagnostics {
			r.Warning(d.String())
		}
		for _, a := range doc.Artifacts {
			target := fmt.Sprintf("%s %s %s", path, output.SymbolArrow, relPath(root, a.Path))
			switch {
			case a.Written:
				r.Success(target)
			case dryRun:
				r.Muted(fmt.Sprintf("  %s (dry run)", target))
			default:
				r.Muted(fmt.Sprintf("  %s (unchanged)", target))
			}
		}
	}

	if len(result.Documents) == 0 {
		r.Muted("No rules found.")
	}
	r.Println(result.Summary())
	return nil
}

func newCompileReport(root string, result *compiler.Result, dryRun bool) compileReport {
	report := compileReport{
		RunID:     result.RunID,
		DryRun:    dryRun,
		Documents: make([]documentReport, 0, len(result.Documents)),
		Failed:    result.Failed(),
		Written:   result.Written(),
		Duration:  result.Duration.String(),
	}
	for _, doc := range result.Documents {
		dr := documentReport{ID: doc.ID, Path: relPath(root, doc.Path)}
		if doc.Err != nil {
			dr.Error = doc.Err.Error()
		}
		for _, d := range doc.Diagnostics {
			dr.Diagnostics = append(dr.Diagnostics, d.String())
		}
		for _, a := range doc.Artifacts {
			dr.Artifacts = append(dr.Artifacts, artifactReport{
				Destination: a.Destination,
				Path:        relPath(root, a.Path),
				Hash:        a.Hash,
				Written:     a.Written,
			})
		}
		report.Documents = append(report.Documents, dr)
	}
	return report
}
