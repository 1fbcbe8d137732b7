package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rulesets-dev/rulesets/internal/destination"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display rulesets version, build information and the registered destinations.`,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "rulesets v%s\n", version)
			_, _ = fmt.Fprintf(out, "commit: %s\nbuilt: %s\n", commit, date)
			_, _ = fmt.Fprintf(out, "destinations: %v\n", destination.List())
		},
	}
}
