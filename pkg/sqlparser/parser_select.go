package sqlparser

import "fmt"

// parseSelectStmt parses a SELECT statement.
//
//	select_stmt → [WITH [RECURSIVE] cte_list] select_body
func (p *Parser) parseSelectStmt() *SelectStmt {
	stmt := &SelectStmt{Pos: p.token.Pos}
	if p.check(TOKEN_WITH) {
		stmt.With = p.parseWithClause()
	}
	stmt.Body = p.parseSelectBody()
	return stmt
}

// parseWithClause parses a WITH clause.
//
//	with_clause → WITH [RECURSIVE] cte ("," cte)*
func (p *Parser) parseWithClause() *WithClause {
	wc := &WithClause{}
	p.expect(TOKEN_WITH)
	if p.match(TOKEN_RECURSIVE) {
		wc.Recursive = true
	}
	for {
		cte := p.parseCTE()
		if cte == nil {
			break
		}
		wc.CTEs = append(wc.CTEs, cte)
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return wc
}

// parseCTE parses a single common table expression.
//
//	cte → name ["(" column_list ")"] AS "(" select_stmt ")"
func (p *Parser) parseCTE() *CTE {
	if !p.identLike(p.token) {
		p.addError(fmt.Sprintf(ErrExpectedIdent, p.token.Type))
		return nil
	}
	cte := &CTE{Name: p.token.Literal}
	p.nextToken()

	// Optional column list before AS
	if p.check(TOKEN_LPAREN) {
		p.nextToken()
		for !p.check(TOKEN_RPAREN) && !p.check(TOKEN_EOF) {
			p.nextToken()
		}
		p.expect(TOKEN_RPAREN)
	}

	p.expect(TOKEN_AS)
	p.expect(TOKEN_LPAREN)
	if p.enterNesting() {
		cte.Select = p.parseSelectStmt()
		p.leaveNesting()
	}
	p.expect(TOKEN_RPAREN)
	return cte
}

// parseSelectBody parses a SELECT body with optional set operations. The set
// operation attaches at the tail of the chain so parenthesized compound
// operands flatten into one left-to-right sequence.
//
//	select_body → ("(" select_body ")" | select_core)
//	              [(UNION|INTERSECT|EXCEPT|MINUS) [ALL|DISTINCT] select_body]
func (p *Parser) parseSelectBody() *SelectBody {
	var body *SelectBody

	if p.check(TOKEN_LPAREN) && (p.checkPeek(TOKEN_SELECT) || p.checkPeek(TOKEN_WITH) || p.checkPeek(TOKEN_LPAREN)) {
		p.nextToken() // consume (
		if !p.enterNesting() {
			return &SelectBody{}
		}
		body = p.parseSelectBody()
		p.leaveNesting()
		p.expect(TOKEN_RPAREN)
	} else {
		body = &SelectBody{Left: p.parseSelectCore()}
	}

	var op SetOpType
	switch p.token.Type {
	case TOKEN_UNION:
		op = SetOpUnion
	case TOKEN_INTERSECT:
		op = SetOpIntersect
	case TOKEN_EXCEPT:
		op = SetOpExcept
	case TOKEN_MINUS_OP:
		op = SetOpMinus
	default:
		return body
	}
	p.nextToken()

	all := p.match(TOKEN_ALL)
	if !all {
		p.match(TOKEN_DISTINCT)
	}

	tail := body
	for tail.Right != nil {
		tail = tail.Right
	}
	tail.Op = op
	tail.All = all
	tail.Right = p.parseSelectBody()
	return body
}

// parseSelectCore parses the core SELECT clause.
//
//	select_core → SELECT [DISTINCT|ALL] [TOP n] select_list [FROM from_clause]
//	              [WHERE expr] [GROUP BY expr_list] [HAVING expr]
//	              [QUALIFY expr] [ORDER BY order_list] [SAMPLE expr] [LIMIT expr]
func (p *Parser) parseSelectCore() *SelectCore {
	core := &SelectCore{}
	if !p.expect(TOKEN_SELECT) {
		return core
	}

	if p.match(TOKEN_DISTINCT) {
		core.Distinct = true
	} else {
		p.match(TOKEN_ALL)
	}

	// Teradata TOP n; TOP followed by anything else is a column name
	if p.check(TOKEN_TOP) && p.checkPeek(TOKEN_NUMBER) {
		p.nextToken()
		core.Top = &Literal{Type: LiteralNumber, Value: p.token.Literal}
		p.nextToken()
	}

	core.Columns = p.parseSelectList()

	if p.check(TOKEN_FROM) {
		core.From = p.parseFromClause()
	}
	if p.match(TOKEN_WHERE) {
		core.Where = p.parseExpression()
	}
	if p.check(TOKEN_GROUP) {
		p.nextToken()
		p.expect(TOKEN_BY)
		core.GroupBy = p.parseExpressionList()
	}
	if p.match(TOKEN_HAVING) {
		core.Having = p.parseExpression()
	}
	if p.match(TOKEN_QUALIFY) {
		core.Qualify = p.parseExpression()
	}
	if p.check(TOKEN_ORDER) {
		p.nextToken()
		p.expect(TOKEN_BY)
		core.OrderBy = p.parseOrderByList()
	}
	if p.match(TOKEN_SAMPLE) {
		core.Sample = p.parseExpression()
	}
	if p.match(TOKEN_LIMIT) {
		core.Limit = p.parseExpression()
	}
	return core
}

// parseSelectList parses the SELECT column list.
func (p *Parser) parseSelectList() []SelectItem {
	var items []SelectItem
	for {
		items = append(items, p.parseSelectItem())
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return items
}

// parseSelectItem parses one item in the SELECT list.
//
//	select_item → "*" | ident "." "*" | expr [[AS] alias]
func (p *Parser) parseSelectItem() SelectItem {
	if p.check(TOKEN_STAR) {
		p.nextToken()
		return SelectItem{Star: true}
	}

	// t.* needs the second lookahead to distinguish from t.col
	if p.identLike(p.token) && p.checkPeek(TOKEN_DOT) && p.checkPeek2(TOKEN_STAR) {
		table := p.token.Literal
		p.nextToken()
		p.nextToken()
		p.nextToken()
		return SelectItem{TableStar: table}
	}

	item := SelectItem{Expr: p.parseExpression()}

	if p.match(TOKEN_AS) {
		if p.identLike(p.token) {
			item.Alias = p.token.Literal
			p.nextToken()
		} else {
			p.addError(fmt.Sprintf(ErrExpectedIdent, p.token.Type))
		}
	} else if p.identLike(p.token) {
		item.Alias = p.token.Literal
		p.nextToken()
	}
	return item
}

// parseFromClause parses the FROM clause including joins.
//
//	from_clause → FROM table_expr (("," | join_spec) table_expr)*
func (p *Parser) parseFromClause() *FromClause {
	p.expect(TOKEN_FROM)
	fc := &FromClause{Source: p.parseTableExpr()}

	for {
		if p.check(TOKEN_COMMA) {
			p.nextToken()
			fc.Joins = append(fc.Joins, &Join{Type: JoinComma, Right: p.parseTableExpr()})
			continue
		}
		if p.isJoinKeyword(p.token) {
			fc.Joins = append(fc.Joins, p.parseJoin())
			continue
		}
		break
	}
	return fc
}

// parseJoin parses one join clause.
//
//	join_spec → [LEFT|RIGHT|FULL [OUTER] | INNER | CROSS | OUTER] JOIN
//	            table_expr [ON expr | USING "(" column_list ")"]
func (p *Parser) parseJoin() *Join {
	j := &Join{Type: JoinInner}

	switch p.token.Type {
	case TOKEN_LEFT:
		j.Type = JoinLeft
		p.nextToken()
		p.match(TOKEN_OUTER)
	case TOKEN_RIGHT:
		j.Type = JoinRight
		p.nextToken()
		p.match(TOKEN_OUTER)
	case TOKEN_FULL:
		j.Type = JoinFull
		p.nextToken()
		p.match(TOKEN_OUTER)
	case TOKEN_INNER:
		p.nextToken()
	case TOKEN_CROSS:
		j.Type = JoinCross
		p.nextToken()
	case TOKEN_OUTER:
		// bare OUTER JOIN is FULL OUTER in Teradata scripts
		j.Type = JoinFull
		p.nextToken()
	}
	p.expect(TOKEN_JOIN)

	j.Right = p.parseTableExpr()

	if p.match(TOKEN_ON) {
		j.Condition = p.parseExpression()
	} else if p.match(TOKEN_USING) {
		p.expect(TOKEN_LPAREN)
		for p.identLike(p.token) {
			j.Using = append(j.Using, p.token.Literal)
			p.nextToken()
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
		p.expect(TOKEN_RPAREN)
	}
	return j
}

// parseTableExpr parses a table reference: a (possibly qualified) table name,
// a derived table, or a parenthesized table reference.
func (p *Parser) parseTableExpr() TableExpr {
	if p.check(TOKEN_LPAREN) {
		if p.checkPeek(TOKEN_SELECT) || p.checkPeek(TOKEN_WITH) || p.checkPeek(TOKEN_LPAREN) {
			return p.parseDerivedTable()
		}
		// Parenthesized plain table reference
		p.nextToken()
		inner := p.parseTableExpr()
		p.expect(TOKEN_RPAREN)
		return inner
	}
	if tn := p.parseTableName(); tn != nil {
		return tn
	}
	return nil
}

// parseDerivedTable parses a subquery in FROM position.
//
//	derived_table → "(" select_stmt ")" [[AS] alias]
func (p *Parser) parseDerivedTable() TableExpr {
	p.expect(TOKEN_LPAREN)
	dt := &DerivedTable{}
	if p.enterNesting() {
		dt.Select = p.parseSelectStmt()
		p.leaveNesting()
	}
	p.expect(TOKEN_RPAREN)
	dt.Alias = p.parseOptionalAlias()
	return dt
}

// parseTableName parses a dotted table name with up to three parts and an
// optional alias.
//
//	table_name → qualified_name [[AS] alias]
func (p *Parser) parseTableName() *TableName {
	tn := p.parseQualifiedName()
	if tn == nil {
		return nil
	}
	tn.Alias = p.parseOptionalAlias()
	return tn
}

// parseQualifiedName parses a dotted name without consuming an alias.
// DDL targets use this directly so a following AS keeps its meaning.
//
//	qualified_name → ident ("." ident){0,2}
func (p *Parser) parseQualifiedName() *TableName {
	if !p.identLike(p.token) {
		p.addError(fmt.Sprintf(ErrExpectedIdent, p.token.Type))
		return nil
	}
	tn := &TableName{Pos: p.token.Pos, Name: p.token.Literal}
	p.nextToken()

	for p.check(TOKEN_DOT) && p.identLike(p.peek) {
		p.nextToken()
		if tn.Schema == "" {
			tn.Schema = tn.Name
		} else if tn.Catalog == "" {
			tn.Catalog = tn.Schema
			tn.Schema = tn.Name
		} else {
			p.addError(fmt.Sprintf(ErrUnexpectedToken, TOKEN_DOT, "end of table name"))
		}
		tn.Name = p.token.Literal
		p.nextToken()
	}
	return tn
}

// parseOptionalAlias consumes an [AS] alias if present.
func (p *Parser) parseOptionalAlias() string {
	if p.match(TOKEN_AS) {
		if p.identLike(p.token) {
			alias := p.token.Literal
			p.nextToken()
			return alias
		}
		p.addError(fmt.Sprintf(ErrExpectedIdent, p.token.Type))
		return ""
	}
	// SAMPLE and TOP bind as clauses here, not aliases
	if p.identLike(p.token) && !p.check(TOKEN_SAMPLE) && !p.check(TOKEN_TOP) {
		alias := p.token.Literal
		p.nextToken()
		return alias
	}
	return ""
}

// parseOrderByList parses ORDER BY items.
func (p *Parser) parseOrderByList() []OrderByItem {
	var items []OrderByItem
	for {
		item := OrderByItem{Expr: p.parseExpression()}
		if p.match(TOKEN_DESC) {
			item.Desc = true
		} else {
			p.match(TOKEN_ASC)
		}
		items = append(items, item)
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return items
}

// parseExpressionList parses a comma-separated expression list.
func (p *Parser) parseExpressionList() []Expr {
	var exprs []Expr
	for {
		exprs = append(exprs, p.parseExpression())
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return exprs
}
