package lineage

import (
	"github.com/tracelight-labs/tracelight/pkg/dialect"
	"github.com/tracelight-labs/tracelight/pkg/sqlparser"
)

// cteScope tracks the CTE names visible to a query so references to them are
// not reported as base tables.
type cteScope map[string]struct{}

func (s cteScope) clone() cteScope {
	child := make(cteScope, len(s))
	for name := range s {
		child[name] = struct{}{}
	}
	return child
}

// resolver walks a statement AST and collects base table references.
// References inside derived tables, CTE definitions and predicate subqueries
// resolve to the underlying tables; the subquery itself never becomes a
// reference. Unknown node shapes contribute nothing.
type resolver struct {
	dialect   *dialect.Dialect
	maxDepth  int
	depth     int
	truncated bool
}

func newResolver(d *dialect.Dialect, maxDepth int) *resolver {
	return &resolver{dialect: d, maxDepth: maxDepth}
}

// selectRefs collects table references from a full SELECT statement,
// including its WITH clause definitions.
func (r *resolver) selectRefs(sel *sqlparser.SelectStmt, scope cteScope, sub bool) []TableRef {
	if sel == nil {
		return nil
	}
	r.depth++
	defer func() { r.depth-- }()
	if r.depth > r.maxDepth {
		r.truncated = true
		return nil
	}

	var refs []TableRef
	if sel.With != nil {
		scope = scope.clone()
		for _, cte := range sel.With.CTEs {
			// The name is visible to the definition itself so recursive
			// CTEs do not self-report.
			scope[r.dialect.NormalizeName(cte.Name)] = struct{}{}
			refs = append(refs, r.selectRefs(cte.Select, scope, true)...)
		}
	}
	return append(refs, r.bodyRefs(sel.Body, scope, sub)...)
}

// bodyRefs concatenates references across set operation branches.
func (r *resolver) bodyRefs(body *sqlparser.SelectBody, scope cteScope, sub bool) []TableRef {
	var refs []TableRef
	for ; body != nil; body = body.Right {
		refs = append(refs, r.coreRefs(body.Left, scope, sub)...)
	}
	return refs
}

// coreRefs collects references from one SELECT core: its FROM clause and any
// subqueries hiding in the other clauses.
func (r *resolver) coreRefs(core *sqlparser.SelectCore, scope cteScope, sub bool) []TableRef {
	if core == nil {
		return nil
	}
	var refs []TableRef
	if core.From != nil {
		refs = append(refs, r.fromRefs(core.From, scope, sub)...)
	}
	for _, item := range core.Columns {
		refs = append(refs, r.exprRefs(item.Expr, scope, true)...)
	}
	refs = append(refs, r.exprRefs(core.Where, scope, true)...)
	for _, e := range core.GroupBy {
		refs = append(refs, r.exprRefs(e, scope, true)...)
	}
	refs = append(refs, r.exprRefs(core.Having, scope, true)...)
	refs = append(refs, r.exprRefs(core.Qualify, scope, true)...)
	for _, item := range core.OrderBy {
		refs = append(refs, r.exprRefs(item.Expr, scope, true)...)
	}
	return refs
}

// fromRefs flattens a FROM clause, joins included, into references.
func (r *resolver) fromRefs(fc *sqlparser.FromClause, scope cteScope, sub bool) []TableRef {
	if fc == nil {
		return nil
	}
	refs := r.tableExprRefs(fc.Source, scope, sub)
	for _, join := range fc.Joins {
		refs = append(refs, r.tableExprRefs(join.Right, scope, sub)...)
		refs = append(refs, r.exprRefs(join.Condition, scope, true)...)
	}
	return refs
}

// tableExprRefs resolves one FROM item. A bare table becomes a single
// reference, a derived table recurses to its underlying tables, and a CTE
// reference is dropped because its definition already contributed.
func (r *resolver) tableExprRefs(te sqlparser.TableExpr, scope cteScope, sub bool) []TableRef {
	switch t := te.(type) {
	case *sqlparser.TableName:
		if t.Schema == "" {
			if _, isCTE := scope[r.dialect.NormalizeName(t.Name)]; isCTE {
				return nil
			}
		}
		return []TableRef{refFromTable(t, sub)}
	case *sqlparser.DerivedTable:
		return r.selectRefs(t.Select, scope, true)
	default:
		return nil
	}
}

// exprRefs digs subqueries out of an expression tree. IN and EXISTS
// predicates are always resolved; every other shape is walked structurally.
func (r *resolver) exprRefs(e sqlparser.Expr, scope cteScope, sub bool) []TableRef {
	switch x := e.(type) {
	case nil:
		return nil
	case *sqlparser.BinaryExpr:
		return append(r.exprRefs(x.Left, scope, sub), r.exprRefs(x.Right, scope, sub)...)
	case *sqlparser.UnaryExpr:
		return r.exprRefs(x.Expr, scope, sub)
	case *sqlparser.ParenExpr:
		return r.exprRefs(x.Expr, scope, sub)
	case *sqlparser.InExpr:
		refs := r.exprRefs(x.Expr, scope, sub)
		for _, v := range x.Values {
			refs = append(refs, r.exprRefs(v, scope, sub)...)
		}
		if x.Query != nil {
			refs = append(refs, r.selectRefs(x.Query, scope, true)...)
		}
		return refs
	case *sqlparser.ExistsExpr:
		return r.selectRefs(x.Select, scope, true)
	case *sqlparser.SubqueryExpr:
		return r.selectRefs(x.Select, scope, true)
	case *sqlparser.BetweenExpr:
		refs := r.exprRefs(x.Expr, scope, sub)
		refs = append(refs, r.exprRefs(x.Low, scope, sub)...)
		return append(refs, r.exprRefs(x.High, scope, sub)...)
	case *sqlparser.LikeExpr:
		return append(r.exprRefs(x.Expr, scope, sub), r.exprRefs(x.Pattern, scope, sub)...)
	case *sqlparser.IsNullExpr:
		return r.exprRefs(x.Expr, scope, sub)
	case *sqlparser.CaseExpr:
		refs := r.exprRefs(x.Operand, scope, sub)
		for _, w := range x.Whens {
			refs = append(refs, r.exprRefs(w.Condition, scope, sub)...)
			refs = append(refs, r.exprRefs(w.Result, scope, sub)...)
		}
		return append(refs, r.exprRefs(x.Else, scope, sub)...)
	case *sqlparser.CastExpr:
		return r.exprRefs(x.Expr, scope, sub)
	case *sqlparser.FuncCall:
		var refs []TableRef
		for _, arg := range x.Args {
			refs = append(refs, r.exprRefs(arg, scope, sub)...)
		}
		if x.Window != nil {
			for _, pe := range x.Window.PartitionBy {
				refs = append(refs, r.exprRefs(pe, scope, sub)...)
			}
			for _, oi := range x.Window.OrderBy {
				refs = append(refs, r.exprRefs(oi.Expr, scope, sub)...)
			}
		}
		return refs
	default:
		return nil
	}
}

// refFromTable builds a reference from a parsed table name. Catalog and
// schema fold into the schema part.
func refFromTable(tn *sqlparser.TableName, sub bool) TableRef {
	schema := tn.Schema
	if tn.Catalog != "" {
		schema = tn.Catalog + "." + tn.Schema
	}
	return TableRef{
		Schema:     schema,
		Name:       tn.Name,
		Alias:      tn.Alias,
		IsSubquery: sub,
	}
}
