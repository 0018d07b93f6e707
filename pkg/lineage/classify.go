package lineage

import (
	"fmt"
	"strings"

	"github.com/tracelight-labs/tracelight/pkg/dialect"
	"github.com/tracelight-labs/tracelight/pkg/sqlparser"
)

// Analyzer turns one statement segment into an Operation. Implementations
// return an error only when the segment cannot be analyzed at all; degraded
// results travel as warnings.
type Analyzer interface {
	Name() string
	Analyze(seg Segment) (*Operation, []Warning, error)
}

// parserAnalyzer analyzes statements by parsing them into an AST and
// classifying the statement shape.
type parserAnalyzer struct {
	dialect  *dialect.Dialect
	maxDepth int
}

func newParserAnalyzer(d *dialect.Dialect, maxDepth int) *parserAnalyzer {
	return &parserAnalyzer{dialect: d, maxDepth: maxDepth}
}

func (a *parserAnalyzer) Name() string { return "parser" }

func (a *parserAnalyzer) Analyze(seg Segment) (*Operation, []Warning, error) {
	stmt, err := sqlparser.Parse(seg.SQL, a.dialect)
	if err != nil {
		return nil, nil, err
	}
	return a.classify(stmt, seg)
}

// classify maps a parsed statement onto an Operation: what it writes and the
// tables it reads from.
func (a *parserAnalyzer) classify(stmt sqlparser.Statement, seg Segment) (*Operation, []Warning, error) {
	r := newResolver(a.dialect, a.maxDepth)
	op := &Operation{Line: seg.Line, RawText: seg.SQL}
	var warns []Warning

	switch s := stmt.(type) {
	case *sqlparser.SelectStmt:
		op.Kind = OpSelect
		op.Sources = r.selectRefs(s, cteScope{}, false)

	case *sqlparser.InsertStmt:
		op.Kind = OpInsert
		op.Target = targetRef(s.Table)
		op.Sources = r.selectRefs(s.Query, cteScope{}, false)
		for _, row := range s.Values {
			for _, v := range row {
				op.Sources = append(op.Sources, r.exprRefs(v, cteScope{}, true)...)
			}
		}

	case *sqlparser.UpdateStmt:
		op.Kind = OpUpdate
		op.Target, op.Sources = a.updateLineage(r, s)

	case *sqlparser.DeleteStmt:
		op.Kind = OpDelete
		op.Target = targetRef(s.Table)
		op.Sources = r.exprRefs(s.Where, cteScope{}, true)

	case *sqlparser.CreateTableStmt:
		if s.Kind == sqlparser.TablePermanent {
			op.Kind = OpCreate
		} else {
			op.Kind = OpCreateVolatile
			if s.Kind == sqlparser.TableVolatile && !a.dialect.AllowsVolatileTables() {
				warns = append(warns, Warning{
					Line:    seg.Line,
					Message: fmt.Sprintf("dialect %s does not support volatile tables", a.dialect.GetName()),
				})
			}
		}
		op.Target = targetRef(s.Table)
		switch {
		case s.As != nil:
			op.Sources = r.selectRefs(s.As, cteScope{}, false)
		case s.SourceTable != nil:
			op.Sources = []TableRef{refFromTable(s.SourceTable, false)}
		}

	case *sqlparser.CreateViewStmt:
		op.Kind = OpCreateView
		op.Target = targetRef(s.View)
		op.Sources = r.selectRefs(s.As, cteScope{}, false)

	case *sqlparser.DropStmt:
		op.Kind = OpDrop
		op.Target = targetRef(s.Target)

	case *sqlparser.AlterStmt:
		op.Kind = OpAlter
		op.Target = targetRef(s.Target)

	case *sqlparser.MergeStmt:
		op.Kind = OpMerge
		op.Target = targetRef(s.Target)
		op.Sources = r.tableExprRefs(s.Using, cteScope{}, false)

	default:
		op.Kind = OpOther
	}

	op.Sources = filterValid(op.Sources)
	if op.Target != nil && !validRef(*op.Target) {
		op.Target = nil
	}
	if r.truncated {
		warns = append(warns, Warning{
			Line:    seg.Line,
			Message: fmt.Sprintf("subquery nesting deeper than %d, sources may be incomplete", a.maxDepth),
		})
	}
	return op, warns, nil
}

// updateLineage resolves both UPDATE shapes. The standard form targets the
// named table. In the Teradata form the leading name is an alias and the
// real target lives in the FROM clause:
//
//	UPDATE a FROM db.real_table a SET col = ...
//
// Either way the target joins its own sources, because an UPDATE reads the
// rows it rewrites.
func (a *parserAnalyzer) updateLineage(r *resolver, s *sqlparser.UpdateStmt) (*TableRef, []TableRef) {
	scope := cteScope{}
	var fromRefs []TableRef
	if s.From != nil {
		fromRefs = r.fromRefs(s.From, scope, false)
	}
	var setRefs []TableRef
	for _, assign := range s.Set {
		setRefs = append(setRefs, r.exprRefs(assign.Value, scope, true)...)
	}
	whereRefs := r.exprRefs(s.Where, scope, true)

	sources := append(append(fromRefs, setRefs...), whereRefs...)

	if s.FromBeforeSet && a.dialect.AllowsUpdateFromAlias() && len(fromRefs) > 0 {
		target := fromRefs[0]
		for _, ref := range fromRefs {
			if ref.Alias != "" && strings.EqualFold(ref.Alias, s.Table.Name) {
				target = ref
				break
			}
		}
		target.Alias = ""
		target.IsSubquery = false
		sources = append(sources, target)
		return &target, sources
	}

	target := refFromTable(s.Table, false)
	target.Alias = ""
	sources = append(sources, target)
	return &target, sources
}

// targetRef builds a target reference from a parsed name, dropping any
// alias. Targets are table identities, not query references.
func targetRef(tn *sqlparser.TableName) *TableRef {
	if tn == nil {
		return nil
	}
	ref := refFromTable(tn, false)
	ref.Alias = ""
	return &ref
}

// filterValid drops references that fail table name validation, keeping
// order.
func filterValid(refs []TableRef) []TableRef {
	var out []TableRef
	for _, ref := range refs {
		if validRef(ref) {
			out = append(out, ref)
		}
	}
	return out
}
