package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteYAML writes doc as YAML.
func WriteYAML(w io.Writer, doc any) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// RenderScript writes a terminal view of one script report.
func RenderScript(w io.Writer, rep *ScriptReport) {
	if rep.Dialect != "" {
		fmt.Fprintf(w, "Script: %s (%s)\n", rep.ScriptName, rep.Dialect)
	} else {
		fmt.Fprintf(w, "Script: %s\n", rep.ScriptName)
	}
	if rep.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", rep.Error)
		return
	}
	s := rep.Summary
	fmt.Fprintf(w, "%d statements, %d operations, %d sources, %d targets, %d volatile\n\n",
		s.Statements, s.Operations, s.Sources, s.Targets, s.Volatile)

	names := make([]string, 0, len(rep.Tables))
	for name := range rep.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Table", "Volatile", "Reads From", "Writes To"})
	for _, name := range names {
		entry := rep.Tables[name]
		vol := ""
		if entry.IsVolatile {
			vol = "yes"
		}
		tw.AppendRow(table.Row{name, vol, flowNames(entry.Source), flowNames(entry.Target)})
	}
	tw.Render()
	fmt.Fprintf(w, "(%d tables)\n", len(rep.Tables))

	if len(rep.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, warn := range rep.Warnings {
			fmt.Fprintf(w, "  %s\n", warn)
		}
	}
}

// RenderBatch writes a terminal view of a run report.
func RenderBatch(w io.Writer, rep *BatchReport) {
	fmt.Fprintf(w, "Run %s over %s\n\n", rep.RunID, rep.Root)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Script", "Dialect", "Statements", "Operations", "Warnings", "Status"})
	for _, sc := range rep.Scripts {
		status := "ok"
		if sc.Error != "" {
			status = "failed"
		}
		tw.AppendRow(table.Row{sc.ScriptName, sc.Dialect, sc.Summary.Statements,
			sc.Summary.Operations, sc.Summary.Warnings, status})
	}
	tw.Render()
	fmt.Fprintf(w, "(%d scripts, %d failed)\n", rep.Summary.Scripts, rep.Summary.Failed)

	s := rep.Summary
	fmt.Fprintf(w, "\nTotals: %d statements, %d operations, %d sources, %d targets, %d volatile, %d warnings in %dms\n",
		s.Statements, s.Operations, s.Sources, s.Targets, s.Volatile, s.Warnings, s.ElapsedMS)

	var failed []*ScriptReport
	for _, sc := range rep.Scripts {
		if sc.Error != "" {
			failed = append(failed, sc)
		}
	}
	if len(failed) > 0 {
		fmt.Fprintln(w, "\nFailures:")
		for _, sc := range failed {
			fmt.Fprintf(w, "  %s: %s\n", sc.ScriptName, sc.Error)
		}
	}
}

// flowNames joins flow table names for a terminal cell.
func flowNames(flows []TableFlow) string {
	if len(flows) == 0 {
		return "-"
	}
	names := make([]string, len(flows))
	for i, f := range flows {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}
