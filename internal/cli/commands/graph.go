package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tracelight-labs/tracelight/internal/dag"
	"github.com/tracelight-labs/tracelight/internal/report"
	"github.com/tracelight-labs/tracelight/pkg/lineage"
)

// GraphOptions holds options for the graph command.
type GraphOptions struct {
	Format   string
	Impact   string
	Upstream string
	Levels   bool
}

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	opts := &GraphOptions{}

	cmd := &cobra.Command{
		Use:   "graph [path]",
		Short: "Show the cross-script dependency graph",
		Long: `Build the table dependency graph across all scripts and query it.

Edges run from the tables a statement reads to the table it writes, so
the graph answers load-order and impact questions: --levels groups
tables into waves that can load in parallel, --impact lists everything
downstream of a table, --upstream lists everything it is built from.

Cycles are reported as warnings; load ordering is unavailable while a
cycle exists.`,
		Example: `  # List every table with its dependencies
  tracelight graph etl/

  # What breaks if this table changes?
  tracelight graph etl/ --impact edw.daily_sales

  # What feeds this table?
  tracelight graph etl/ --upstream mart.sales_summary

  # Parallel load waves
  tracelight graph etl/ --levels

  # Graphviz output
  tracelight graph etl/ --format dot > lineage.dot`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "table", "output format (table, json, dot)")
	cmd.Flags().StringVar(&opts.Impact, "impact", "", "list tables downstream of TABLE")
	cmd.Flags().StringVar(&opts.Upstream, "upstream", "", "list tables upstream of TABLE")
	cmd.Flags().BoolVar(&opts.Levels, "levels", false, "group tables into parallel load levels")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "dot"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runGraph(cmd *cobra.Command, args []string, opts *GraphOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	root := resolveRoot(cmdCtx.Cfg, args)
	res, err := cmdCtx.Runner.Run(cmd.Context(), root)
	if err != nil {
		return err
	}

	g := dag.NewGraph()
	for _, sc := range res.Scripts {
		if sc.Result != nil {
			g.AddResult(sc.Result)
		}
	}

	if cyclic, cycle := g.HasCycle(); cyclic {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: dependency cycle: %s\n", strings.Join(cycle, " -> "))
	}

	out := cmd.OutOrStdout()

	switch {
	case opts.Impact != "":
		return graphFocus(out, g, opts.Impact, g.Downstream(opts.Impact), "downstream", opts.Format)
	case opts.Upstream != "":
		return graphFocus(out, g, opts.Upstream, g.Upstream(opts.Upstream), "upstream", opts.Format)
	case opts.Levels:
		return graphLevels(out, g, opts.Format)
	default:
		return graphFull(out, g, collectResults(res), opts.Format)
	}
}

// graphFocus renders the impact or provenance set of one table.
func graphFocus(w io.Writer, g *dag.Graph, name string, related []string, direction, format string) error {
	if _, ok := g.GetTable(name); !ok {
		return fmt.Errorf("table not found in graph: %s", name)
	}

	// Downstream includes the starting table itself; drop it from display.
	names := make([]string, 0, len(related))
	for _, n := range related {
		if n != name {
			names = append(names, n)
		}
	}

	switch format {
	case "table", "":
		if len(names) == 0 {
			fmt.Fprintf(w, "No tables %s of %s\n", direction, name)
			return nil
		}
		fmt.Fprintf(w, "%d tables %s of %s:\n", len(names), direction, name)
		for _, n := range names {
			fmt.Fprintf(w, "  %s\n", n)
		}
		return nil
	case "json":
		sub := g.Subgraph(append(names, name))
		doc := map[string]any{
			"table":     name,
			"direction": direction,
			"tables":    names,
			"nodes":     sub.Nodes(),
			"edges":     sub.Edges(),
		}
		return report.WriteJSON(w, doc)
	case "dot":
		return fmt.Errorf("dot format renders the full graph; drop --impact/--upstream")
	default:
		return fmt.Errorf("unknown output format %q (known: table, json, dot)", format)
	}
}

// graphLevels renders the parallel load waves.
func graphLevels(w io.Writer, g *dag.Graph, format string) error {
	levels, err := g.ExecutionLevels()
	if err != nil {
		return err
	}

	switch format {
	case "table", "":
		for i, level := range levels {
			fmt.Fprintf(w, "Level %d:\n", i)
			for _, name := range level {
				fmt.Fprintf(w, "  %s\n", name)
			}
		}
		fmt.Fprintf(w, "\n%d tables in %d levels\n", g.NodeCount(), len(levels))
		return nil
	case "json":
		return report.WriteJSON(w, map[string]any{"levels": levels})
	case "dot":
		return fmt.Errorf("dot format renders the full graph; drop --levels")
	default:
		return fmt.Errorf("unknown output format %q (known: table, json, dot)", format)
	}
}

// graphFull renders every table with its direct neighbours.
func graphFull(w io.Writer, g *dag.Graph, results []*lineage.Result, format string) error {
	switch format {
	case "table", "":
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.SetStyle(table.StyleLight)
		tw.AppendHeader(table.Row{"Table", "Roles", "Reads From", "Feeds"})
		for _, node := range g.Nodes() {
			tw.AppendRow(table.Row{
				node.Name,
				strings.Join(node.Roles, ", "),
				strings.Join(g.Parents(node.Name), ", "),
				strings.Join(g.Children(node.Name), ", "),
			})
		}
		tw.Render()
		fmt.Fprintf(w, "(%d tables, %d edges)\n", g.NodeCount(), g.EdgeCount())
		return nil
	case "json":
		doc := map[string]any{
			"nodes": g.Nodes(),
			"edges": g.Edges(),
		}
		return report.WriteJSON(w, doc)
	case "dot":
		_, err := io.WriteString(w, report.BuildGraph(results...).ToDot())
		return err
	default:
		return fmt.Errorf("unknown output format %q (known: table, json, dot)", format)
	}
}
