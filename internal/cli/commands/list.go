package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rulesets-dev/rulesets/internal/cli/output"
	"github.com/rulesets-dev/rulesets/internal/compiler"
	"github.com/rulesets-dev/rulesets/internal/dag"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rules, the partials they include and where they compile to",
		Long: `List every rule with the partials it includes, directly or through other
partials, and every partial with the rules that depend on it.

Nothing is written; rules are compiled in memory to resolve their partials.

Output adapts to environment:
  - Terminal: Styled tables
  - Piped/Scripted: Markdown tables (agent-friendly)

Use --format to override: auto, text, markdown, json`,
		Example: `  # List rules and partials
  rulesets list

  # List as JSON
  rulesets list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}
	addDestinationFlag(cmd)
	return cmd
}

type ruleInfo struct {
	ID        string   `json:"id"`
	Path      string   `json:"path"`
	Partials  []string `json:"partials"`
	Artifacts []string `json:"artifacts"`
	Error     string   `json:"error,omitempty"`
}

type partialInfo struct {
	Name     string   `json:"name"`
	Path     string   `json:"path,omitempty"`
	Includes []string `json:"includes"`
	UsedBy   []string `json:"used_by"`
}

type listReport struct {
	Destinations []string      `json:"destinations"`
	Rules        []ruleInfo    `json:"rules"`
	Partials     []partialInfo `json:"partials"`
	Cycle        []string      `json:"cycle,omitempty"`
}

func runList(cmd *cobra.Command) error {
	cctx, cleanup, err := NewCommandContext(cmd, compilerOptions{DryRun: true})
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := cctx.Compiler.CompileAll(cmd.Context())
	if err != nil {
		return err
	}

	report := buildListReport(cctx.Compiler, result)
	r := cctx.Renderer

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(report)
	}

	r.Header(1, fmt.Sprintf("Rules (%d total)", len(report.Rules)))
	if len(report.Rules) == 0 {
		r.Muted("No rules found in " + relPath(cctx.Compiler.Root(), cctx.Compiler.RulesDir()))
	} else {
		rows := make([][]string, 0, len(report.Rules))
		for _, rule := range report.Rules {
			partials := joinOrDash(rule.Partials)
			if rule.Error != "" {
				partials = "error: " + rule.Error
			}
			rows = append(rows, []string{rule.ID, rule.Path, partials, joinOrDash(rule.Artifacts)})
		}
		r.Table([]string{"Rule", "Path", "Partials", "Artifacts"}, rows)
	}

	r.Println()
	r.Header(1, fmt.Sprintf("Partials (%d total)", len(report.Partials)))
	if len(report.Partials) > 0 {
		rows := make([][]string, 0, len(report.Partials))
		for _, p := range report.Partials {
			rows = append(rows, []string{p.Name, p.Path, joinOrDash(p.Includes), joinOrDash(p.UsedBy)})
		}
		r.Table([]string{"Partial", "Path", "Includes", "Used By"}, rows)
	}
	if len(report.Cycle) > 0 {
		r.Warning("Partials include each other: " + strings.Join(report.Cycle, " -> "))
	}

	r.Println()
	r.Muted("Destinations: " + strings.Join(report.Destinations, ", "))
	return nil
}

// buildListReport describes the rules of the last compile and the partial
// graph. Partials are listed so that each comes after the partials it
// includes; with an include cycle they fall back to name order.
func buildListReport(c *compiler.Compiler, result *compiler.Result) listReport {
	g := c.Graph()
	root := c.Root()

	report := listReport{Destinations: c.Destinations()}

	for _, doc := range result.Documents {
		info := ruleInfo{ID: doc.ID, Path: relPath(root, doc.Path), Partials: []string{}, Artifacts: []string{}}
		if doc.Err != nil {
			info.Error = doc.Err.Error()
		}
		for _, node := range g.Closure(dag.ID(dag.KindRule, doc.ID)) {
			info.Partials = append(info.Partials, node.Name)
		}
		for _, a := range doc.Artifacts {
			info.Artifacts = append(info.Artifacts, relPath(root, a.Path))
		}
		report.Rules = append(report.Rules, info)
	}

	partials := g.Nodes(dag.KindPartial)
	if order, err := g.Order(); err == nil {
		partials = partials[:0]
		for _, node := range order {
			if node.Kind == dag.KindPartial {
				partials = append(partials, node)
			}
		}
	} else {
		report.Cycle = g.Cycle()
	}

	for _, node := range partials {
		info := partialInfo{Name: node.Name, Includes: []string{}, UsedBy: []string{}}
		if node.Path != "" {
			info.Path = relPath(root, node.Path)
		}
		for _, id := range g.Includes(node.ID) {
			info.Includes = append(info.Includes, strings.TrimPrefix(id, string(dag.KindPartial)+":"))
		}
		for _, n := range g.Dependents(node.ID) {
			if n.Kind == dag.KindRule {
				info.UsedBy = append(info.UsedBy, n.Name)
			}
		}
		report.Partials = append(report.Partials, info)
	}

	return report
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
