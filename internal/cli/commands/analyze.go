package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tracelight-labs/tracelight/internal/batch"
	"github.com/tracelight-labs/tracelight/internal/report"
	"github.com/tracelight-labs/tracelight/pkg/lineage"
)

// AnalyzeOptions holds options for the analyze command.
type AnalyzeOptions struct {
	Format         string
	Output         string
	Save           bool
	FailOnWarnings bool
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Extract lineage from scripts",
		Long: `Analyze a script file or a folder of scripts and report the tables
each one reads and writes.

Volatile tables are tracked separately so intermediate staging steps are
visible in the flow. Statements the parser cannot understand are recorded
as warnings and skipped; they never fail the run on their own.`,
		Example: `  # Analyze every script under the configured scripts directory
  tracelight analyze

  # Analyze one script and print the lineage table
  tracelight analyze etl/daily_sales.sql

  # JSON to stdout
  tracelight analyze etl/daily_sales.sql --format json

  # Graphviz DOT for the whole folder
  tracelight analyze etl/ --format dot --output lineage.dot

  # Per-script reports into a folder, plus a summary
  tracelight analyze etl/ --format json --output reports/

  # Record the run in the history database
  tracelight analyze etl/ --save`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "", "output format (table|json|yaml|dot)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write reports to a file, or a folder when analyzing a folder")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "record the run in the history database")
	cmd.Flags().BoolVar(&opts.FailOnWarnings, "fail-on-warnings", false, "exit non-zero when any statement produced a warning")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "yaml", "dot"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *AnalyzeOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	root := resolveRoot(cmdCtx.Cfg, args)
	format := opts.Format
	if format == "" {
		format = cmdCtx.Cfg.Format
	}

	res, err := cmdCtx.Runner.Run(cmd.Context(), root)
	if err != nil {
		return err
	}
	br := report.BuildBatch(res)

	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	single := !info.IsDir() && len(br.Scripts) == 1

	switch {
	case opts.Output == "":
		if err := renderReport(cmd.OutOrStdout(), br, res, format, single); err != nil {
			return err
		}
	case info.IsDir():
		if err := writeReportDir(cmd.OutOrStdout(), opts.Output, br, res, format); err != nil {
			return err
		}
	default:
		if err := writeReportFile(opts.Output, br, res, format, single); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", opts.Output)
	}

	if opts.Save {
		store, err := openStore(cmdCtx.Cfg, cmdCtx.Logger)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		runID, err := store.SaveBatch(res)
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %s\n", runID)
	}

	if res.Summary.Failed > 0 {
		return fmt.Errorf("%d of %d scripts failed", res.Summary.Failed, res.Summary.Scripts)
	}
	if opts.FailOnWarnings && res.Summary.Warnings > 0 {
		return fmt.Errorf("analysis produced %d warnings", res.Summary.Warnings)
	}
	return nil
}

// renderReport writes one rendering of the whole run. Single-file runs
// render the script directly instead of wrapping it in a batch shell.
func renderReport(w io.Writer, br *report.BatchReport, res *batch.Result, format string, single bool) error {
	switch format {
	case "table":
		if single {
			report.RenderScript(w, br.Scripts[0])
		} else {
			report.RenderBatch(w, br)
		}
		return nil
	case "json":
		if single {
			return report.WriteJSON(w, br.Scripts[0])
		}
		return report.WriteJSON(w, br)
	case "yaml":
		if single {
			return report.WriteYAML(w, br.Scripts[0])
		}
		return report.WriteYAML(w, br)
	case "dot":
		graph := report.BuildGraph(collectResults(res)...)
		_, err := io.WriteString(w, graph.ToDot())
		return err
	}
	return fmt.Errorf("unknown output format %q (known: table, json, yaml, dot)", format)
}

// writeReportFile renders the run into a single file.
func writeReportFile(path string, br *report.BatchReport, res *batch.Result, format string, single bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return renderReport(f, br, res, format, single)
}

// writeReportDir writes one report per script plus a run summary into a
// folder, creating it when needed.
func writeReportDir(stdout io.Writer, dir string, br *report.BatchReport, res *batch.Result, format string) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}

	ext := map[string]string{"table": "txt", "json": "json", "yaml": "yaml", "dot": "dot"}[format]
	if ext == "" {
		return fmt.Errorf("unknown output format %q (known: table, json, yaml, dot)", format)
	}

	for i, sc := range br.Scripts {
		path := filepath.Join(dir, fmt.Sprintf("%s_lineage.%s", sc.ScriptName, ext))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}

		switch format {
		case "table":
			report.RenderScript(f, sc)
		case "json":
			err = report.WriteJSON(f, sc)
		case "yaml":
			err = report.WriteYAML(f, sc)
		case "dot":
			_, err = io.WriteString(f, report.BuildGraph(res.Scripts[i].Result).ToDot())
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("failed to write report for %s: %w", sc.ScriptName, err)
		}
	}

	summaryPath := filepath.Join(dir, "summary.txt")
	f, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	report.RenderBatch(f, br)
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	report.RenderBatch(stdout, br)
	fmt.Fprintf(stdout, "Reports written to %s\n", dir)
	return nil
}

// collectResults flattens the per-script results for graph building.
// Failed scripts contribute nil entries, which the builder skips.
func collectResults(res *batch.Result) []*lineage.Result {
	out := make([]*lineage.Result, 0, len(res.Scripts))
	for i := range res.Scripts {
		out = append(out, res.Scripts[i].Result)
	}
	return out
}
