package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tracelight-labs/tracelight/internal/config"
	"github.com/tracelight-labs/tracelight/internal/state"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
	Table string
	Run   string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query saved analysis runs",
		Long: `Query the runs recorded with 'analyze --save'.

Without flags the most recent runs are listed. --run shows one run in
full, including the tables it touched and the data movements it found.
--table searches the whole history for a table name.`,
		Example: `  # Recent runs
  tracelight history

  # One run in detail
  tracelight history --run 9f41c2d8-6c0e-4a7b-9d2f-8f1f5f0a3b61

  # Where has this table appeared?
  tracelight history --table mart.sales_summary`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list")
	cmd.Flags().StringVar(&opts.Table, "table", "", "search history for a table name")
	cmd.Flags().StringVar(&opts.Run, "run", "", "show one run by id")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()

	switch {
	case opts.Run != "":
		return historyRun(out, store, opts.Run)
	case opts.Table != "":
		return historyTable(out, store, opts.Table)
	default:
		return historyList(out, store, opts.Limit)
	}
}

func historyList(w io.Writer, store state.Store, limit int) error {
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No saved runs. Record one with 'tracelight analyze --save'.")
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Run", "Started", "Root", "Scripts", "Failed", "Stmts", "Ops", "Warn"})
	for _, run := range runs {
		tw.AppendRow(table.Row{
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.Root,
			run.Scripts,
			run.Failed,
			run.Statements,
			run.Operations,
			run.Warnings,
		})
	}
	tw.Render()
	fmt.Fprintf(w, "(%d runs)\n", len(runs))
	return nil
}

func historyRun(w io.Writer, store state.Store, id string) error {
	detail, err := store.GetRun(id)
	if err != nil {
		return err
	}

	run := detail.Run
	fmt.Fprintf(w, "Run %s over %s\n", run.ID, run.Root)
	fmt.Fprintf(w, "Started %s, dialect %s, %dms\n", run.StartedAt.Local().Format(time.DateTime), run.Dialect, run.ElapsedMS)
	fmt.Fprintf(w, "%d scripts (%d failed), %d statements, %d operations, %d warnings\n\n",
		run.Scripts, run.Failed, run.Statements, run.Operations, run.Warnings)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Script", "Dialect", "Stmts", "Ops", "Warn", "Error"})
	for _, sc := range detail.Scripts {
		tw.AppendRow(table.Row{sc.Name, sc.Dialect, sc.Statements, sc.Operations, len(sc.Warnings), sc.Error})
	}
	tw.Render()

	tables, err := store.TablesForRun(run.ID)
	if err != nil {
		return err
	}
	if len(tables) > 0 {
		fmt.Fprintln(w, "\nTables:")
		for _, tr := range tables {
			fmt.Fprintf(w, "  %-12s %s (%s)\n", tr.Role, tr.Table, tr.ScriptName)
		}
	}

	edges, err := store.EdgesForRun(run.ID)
	if err != nil {
		return err
	}
	if len(edges) > 0 {
		fmt.Fprintln(w, "\nData movements:")
		for _, e := range edges {
			fmt.Fprintf(w, "  %s -> %s [%s, %s:%d]\n", e.Source, e.Target, e.Operation, e.ScriptName, e.Line)
		}
	}

	return nil
}

func historyTable(w io.Writer, store state.Store, name string) error {
	sightings, err := store.SearchTable(name)
	if err != nil {
		return err
	}
	if len(sightings) == 0 {
		fmt.Fprintf(w, "No runs mention %s\n", name)
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Run", "Started", "Script", "Table", "Role"})
	for _, s := range sightings {
		tw.AppendRow(table.Row{
			s.RunID,
			s.StartedAt.Local().Format(time.DateTime),
			s.ScriptName,
			s.Table,
			s.Role,
		})
	}
	tw.Render()
	fmt.Fprintf(w, "(%d sightings)\n", len(sightings))
	return nil
}
