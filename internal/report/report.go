// Package report projects analysis results into their export shapes: a
// per-script document that groups data flows by table over a de-duplicated
// statement table, a run-level document wrapping every script, terminal
// tables, and a colored graph for visualization tools.
package report

import (
	"strings"

	"github.com/tracelight-labs/tracelight/internal/batch"
	"github.com/tracelight-labs/tracelight/pkg/lineage"
	"github.com/tracelight-labs/tracelight/pkg/sqlparser"
)

// TableFlow records data movement between the owning table and Name. The
// indices in Operations point into the report's Statements table, so every
// flow cites the statements that caused it.
type TableFlow struct {
	Name       string `json:"name" yaml:"name"`
	Operations []int  `json:"operation" yaml:"operation"`
}

// TableEntry collects every flow in and out of one table. Source lists the
// tables that feed it, Target lists the tables it feeds.
type TableEntry struct {
	Source     []TableFlow `json:"source" yaml:"source"`
	Target     []TableFlow `json:"target" yaml:"target"`
	IsVolatile bool        `json:"is_volatile" yaml:"is_volatile"`
}

// ScriptSummary tallies one script's analysis.
type ScriptSummary struct {
	Statements int `json:"statements" yaml:"statements"`
	Operations int `json:"operations" yaml:"operations"`
	Sources    int `json:"sources" yaml:"sources"`
	Targets    int `json:"targets" yaml:"targets"`
	Volatile   int `json:"volatile" yaml:"volatile"`
	Warnings   int `json:"warnings" yaml:"warnings"`
}

// ScriptReport is the export document for one script. Statements holds each
// distinct statement once, in first-appearance order, in canonical form.
type ScriptReport struct {
	ScriptName string                 `json:"script_name" yaml:"script_name"`
	Path       string                 `json:"path,omitempty" yaml:"path,omitempty"`
	Dialect    string                 `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	Tags       []string               `json:"tags,omitempty" yaml:"tags,omitempty"`
	Error      string                 `json:"error,omitempty" yaml:"error,omitempty"`
	Summary    ScriptSummary          `json:"summary" yaml:"summary"`
	Statements []string               `json:"statements" yaml:"statements"`
	Tables     map[string]*TableEntry `json:"tables" yaml:"tables"`
	Warnings   []string               `json:"warnings" yaml:"warnings"`
}

// RunSummary tallies a whole run. Table counts are distinct across scripts.
type RunSummary struct {
	Scripts    int   `json:"scripts" yaml:"scripts"`
	Failed     int   `json:"failed" yaml:"failed"`
	Statements int   `json:"statements" yaml:"statements"`
	Operations int   `json:"operations" yaml:"operations"`
	Sources    int   `json:"sources" yaml:"sources"`
	Targets    int   `json:"targets" yaml:"targets"`
	Volatile   int   `json:"volatile" yaml:"volatile"`
	Warnings   int   `json:"warnings" yaml:"warnings"`
	ElapsedMS  int64 `json:"elapsed_ms" yaml:"elapsed_ms"`
}

// BatchReport is the export document for a whole run.
type BatchReport struct {
	RunID   string          `json:"run_id" yaml:"run_id"`
	Root    string          `json:"root" yaml:"root"`
	Dialect string          `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	Summary RunSummary      `json:"summary" yaml:"summary"`
	Scripts []*ScriptReport `json:"scripts" yaml:"scripts"`
}

// BuildScript projects one analysis result into its export shape. Every
// table named in the result gets an entry, even when no operation moved
// data through it.
func BuildScript(name string, res *lineage.Result) *ScriptReport {
	rep := &ScriptReport{
		ScriptName: name,
		Statements: []string{},
		Tables:     make(map[string]*TableEntry),
		Warnings:   []string{},
	}
	if res == nil {
		return rep
	}

	for _, lists := range [][]string{res.SourceTables, res.TargetTables, res.VolatileTables} {
		for _, tbl := range lists {
			rep.ensure(tbl)
		}
	}
	for _, tbl := range res.VolatileTables {
		rep.ensure(tbl).IsVolatile = true
	}

	index := make(map[string]int)
	intern := func(raw string) int {
		text := formatStatement(raw)
		idx, ok := index[text]
		if !ok {
			idx = len(rep.Statements)
			index[text] = idx
			rep.Statements = append(rep.Statements, text)
		}
		return idx
	}

	for _, op := range res.Operations {
		idx := intern(op.RawText)
		if op.Target == nil {
			continue
		}
		target := op.Target.Qualified()
		for _, src := range op.Sources {
			if src.IsSubquery {
				continue
			}
			source := src.Qualified()
			te := rep.ensure(target)
			te.Source = appendFlow(te.Source, source, idx)
			se := rep.ensure(source)
			se.Target = appendFlow(se.Target, target, idx)
		}
	}

	for _, w := range res.Warnings {
		rep.Warnings = append(rep.Warnings, w.String())
	}

	rep.Summary = ScriptSummary{
		Statements: res.StatementCount,
		Operations: len(res.Operations),
		Sources:    len(res.SourceTables),
		Targets:    len(res.TargetTables),
		Volatile:   len(res.VolatileTables),
		Warnings:   len(res.Warnings),
	}
	return rep
}

// BuildBatch projects a whole run. Failed scripts appear with their error
// and empty lineage so the document always covers every script.
func BuildBatch(br *batch.Result) *BatchReport {
	rep := &BatchReport{
		RunID:   br.RunID,
		Root:    br.Root,
		Dialect: br.Dialect,
		Summary: RunSummary{
			Scripts:    br.Summary.Scripts,
			Failed:     br.Summary.Failed,
			Statements: br.Summary.Statements,
			Operations: br.Summary.Operations,
			Sources:    br.Summary.Sources,
			Targets:    br.Summary.Targets,
			Volatile:   br.Summary.Volatile,
			Warnings:   br.Summary.Warnings,
			ElapsedMS:  br.Summary.ElapsedMS,
		},
		Scripts: make([]*ScriptReport, 0, len(br.Scripts)),
	}
	for i := range br.Scripts {
		sr := &br.Scripts[i]
		var sc *ScriptReport
		if sr.Failed() {
			sc = BuildScript(sr.Name, nil)
			sc.Error = sr.Err
		} else {
			sc = BuildScript(sr.Name, sr.Result)
		}
		sc.Path = sr.Path
		sc.Dialect = sr.Dialect
		sc.Tags = sr.Tags
		rep.Scripts = append(rep.Scripts, sc)
	}
	return rep
}

func (r *ScriptReport) ensure(name string) *TableEntry {
	entry, ok := r.Tables[name]
	if !ok {
		entry = &TableEntry{Source: []TableFlow{}, Target: []TableFlow{}}
		r.Tables[name] = entry
	}
	return entry
}

// appendFlow merges idx into the flow for name, keeping one flow per table
// with its statement indices de-duplicated.
func appendFlow(flows []TableFlow, name string, idx int) []TableFlow {
	for i := range flows {
		if flows[i].Name != name {
			continue
		}
		for _, have := range flows[i].Operations {
			if have == idx {
				return flows
			}
		}
		flows[i].Operations = append(flows[i].Operations, idx)
		return flows
	}
	return append(flows, TableFlow{Name: name, Operations: []int{idx}})
}

// formatStatement canonicalizes statement text for the statement table:
// whitespace outside quotes collapses to single spaces and keywords fold to
// upper case, so the same statement always lands on the same index no
// matter how it was laid out in the script.
func formatStatement(sql string) string {
	var out strings.Builder
	var word strings.Builder
	pendingSpace := false

	emit := func(s string) {
		if pendingSpace && out.Len() > 0 {
			out.WriteByte(' ')
		}
		pendingSpace = false
		out.WriteString(s)
	}
	flushWord := func() {
		if word.Len() == 0 {
			return
		}
		w := word.String()
		if sqlparser.LookupIdent(strings.ToLower(w)) != sqlparser.TOKEN_IDENT {
			w = strings.ToUpper(w)
		}
		emit(w)
		word.Reset()
	}

	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		switch {
		case ch == '\'' || ch == '"' || ch == '`':
			flushWord()
			// Quoted runs pass through verbatim, doubled quotes included.
			j := i + 1
			for j < len(sql) {
				if sql[j] == ch {
					if j+1 < len(sql) && sql[j+1] == ch {
						j += 2
						continue
					}
					j++
					break
				}
				j++
			}
			emit(sql[i:j])
			i = j - 1
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			flushWord()
			pendingSpace = true
		case isWordChar(ch):
			word.WriteByte(ch)
		default:
			flushWord()
			emit(string(ch))
		}
	}
	flushWord()
	return out.String()
}

func isWordChar(ch byte) bool {
	return ch == '_' || ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}
