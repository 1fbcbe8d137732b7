package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rulesets-dev/rulesets/internal/cli/output"
	intconfig "github.com/rulesets-dev/rulesets/internal/config"
	"github.com/rulesets-dev/rulesets/internal/state"
)

// NewStatusCommand creates the status command.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show artifacts recorded by previous compiles",
		Long: `Show every artifact in the compile cache with the run that last wrote it,
and flag artifacts whose file is missing on disk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd)
		},
	}
}

type artifactStatus struct {
	Document    string `json:"document"`
	Destination string `json:"destination"`
	Path        string `json:"path"`
	Hash        string `json:"hash"`
	CompiledAt  string `json:"compiled_at"`
	Missing     bool   `json:"missing"`
}

func runStatus(cmd *cobra.Command) error {
	cctx := NewCommandContextWithoutCompiler(cmd)
	r := cctx.Renderer
	root := cctx.Cfg.ProjectRoot

	path := intconfig.StatePath(root, &cctx.Cfg.Project)
	if path != state.MemoryPath {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			r.Muted("No compile cache yet. Run 'rulesets compile' first.")
			return nil
		}
	}

	store := state.NewSQLiteStore(cctx.Logger)
	if err := store.Open(cmd.Context(), path); err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer func() { _ = store.Close() }()

	artifacts, err := store.ListArtifacts(cmd.Context())
	if err != nil {
		return err
	}

	statuses := make([]artifactStatus, 0, len(artifacts))
	for _, a := range artifacts {
		_, statErr := os.Stat(intconfig.Resolve(root, filepath.FromSlash(a.OutputPath)))
		statuses = append(statuses, artifactStatus{
			Document:    a.DocumentID,
			Destination: a.Destination,
			Path:        a.OutputPath,
			Hash:        shortHash(a.ContentHash),
			CompiledAt:  a.CompiledAt.Local().Format("2006-01-02 15:04:05"),
			Missing:     os.IsNotExist(statErr),
		})
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(statuses)
	}

	r.Header(1, fmt.Sprintf("Artifacts (%d total)", len(statuses)))
	if len(statuses) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(statuses))
	missing := 0
	for _, s := range statuses {
		note := ""
		if s.Missing {
			note = "missing"
			missing++
		}
		rows = append(rows, []string{s.Document, s.Destination, s.Path, s.Hash, s.CompiledAt, note})
	}
	r.Table([]string{"Document", "Destination", "Path", "Hash", "Compiled", ""}, rows)

	if missing > 0 {
		r.Warning(fmt.Sprintf("%d artifacts are missing on disk; run 'rulesets compile' to restore them", missing))
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
