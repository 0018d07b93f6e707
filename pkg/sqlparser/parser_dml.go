package sqlparser

import "fmt"

// parseInsert parses an INSERT statement.
//
//	insert_stmt → INSERT [INTO] table_name [( columns )]
//	              (select_stmt | VALUES "(" expr_list ")" ("," "(" expr_list ")")*)
func (p *Parser) parseInsert() Statement {
	stmt := &InsertStmt{Pos: p.token.Pos}
	p.expect(TOKEN_INSERT)
	p.match(TOKEN_INTO)
	stmt.Table = p.parseTableName()
	if stmt.Table == nil {
		return stmt
	}

	// Optional column list; a parenthesized SELECT is the source query instead
	if p.check(TOKEN_LPAREN) && !p.checkPeek(TOKEN_SELECT) && !p.checkPeek(TOKEN_WITH) {
		p.nextToken()
		for p.identLike(p.token) {
			stmt.Columns = append(stmt.Columns, p.token.Literal)
			p.nextToken()
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
		p.expect(TOKEN_RPAREN)
	}

	switch {
	case p.check(TOKEN_SELECT), p.check(TOKEN_WITH),
		p.check(TOKEN_LPAREN) && (p.checkPeek(TOKEN_SELECT) || p.checkPeek(TOKEN_WITH)):
		stmt.Query = p.parseSelectStmt()
	case p.check(TOKEN_VALUES):
		p.nextToken()
		for {
			p.expect(TOKEN_LPAREN)
			stmt.Values = append(stmt.Values, p.parseExpressionList())
			p.expect(TOKEN_RPAREN)
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, p.token.Type, "SELECT or VALUES"))
	}
	return stmt
}

// parseUpdate parses both UPDATE forms.
//
//	update_stmt → UPDATE table_name FROM from_clause SET assignments [WHERE expr]  (Teradata)
//	            | UPDATE table_name SET assignments [FROM from_clause] [WHERE expr]
func (p *Parser) parseUpdate() Statement {
	stmt := &UpdateStmt{Pos: p.token.Pos}
	p.expect(TOKEN_UPDATE)
	stmt.Table = p.parseTableName()
	if stmt.Table == nil {
		return stmt
	}

	if p.check(TOKEN_FROM) {
		stmt.From = p.parseFromClause()
		stmt.FromBeforeSet = true
	}

	p.expect(TOKEN_SET)
	stmt.Set = p.parseAssignments()

	if p.check(TOKEN_FROM) {
		stmt.From = p.parseFromClause()
	}
	if p.match(TOKEN_WHERE) {
		stmt.Where = p.parseExpression()
	}
	return stmt
}

// parseAssignments parses col = expr ("," col = expr)*.
func (p *Parser) parseAssignments() []Assignment {
	var assigns []Assignment
	for {
		if !p.identLike(p.token) {
			p.addError(fmt.Sprintf(ErrExpectedIdent, p.token.Type))
			break
		}
		a := Assignment{}
		if col, ok := p.parseColumnRef().(*ColumnRef); ok {
			a.Column = col
		}
		p.expect(TOKEN_EQ)
		a.Value = p.parseExpression()
		assigns = append(assigns, a)
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	return assigns
}

// parseDelete parses a DELETE statement.
//
//	delete_stmt → DELETE [FROM] table_name [ALL] [WHERE expr]
func (p *Parser) parseDelete() Statement {
	stmt := &DeleteStmt{Pos: p.token.Pos}
	p.expect(TOKEN_DELETE)
	p.match(TOKEN_FROM)
	stmt.Table = p.parseTableName()
	if stmt.Table == nil {
		return stmt
	}
	if p.match(TOKEN_ALL) {
		stmt.All = true
	}
	if p.match(TOKEN_WHERE) {
		stmt.Where = p.parseExpression()
	}
	return stmt
}

// parseMerge parses a MERGE statement.
//
//	merge_stmt → MERGE [INTO] table_name USING table_expr ON expr when_clause*
//	when_clause → WHEN [NOT] MATCHED [AND expr] THEN
//	              (UPDATE SET assignments | INSERT [( columns )] VALUES "(" expr_list ")" | DELETE)
func (p *Parser) parseMerge() Statement {
	stmt := &MergeStmt{Pos: p.token.Pos}
	p.expect(TOKEN_MERGE)
	p.match(TOKEN_INTO)
	stmt.Target = p.parseTableName()
	if stmt.Target == nil {
		return stmt
	}
	if !p.expect(TOKEN_USING) {
		return stmt
	}
	stmt.Using = p.parseTableExpr()
	if p.match(TOKEN_ON) {
		stmt.On = p.parseExpression()
	}
	for p.check(TOKEN_WHEN) {
		stmt.Whens = append(stmt.Whens, p.parseMergeWhen())
		if len(p.errors) > 0 {
			break
		}
	}
	return stmt
}

// parseMergeWhen parses one WHEN [NOT] MATCHED branch.
func (p *Parser) parseMergeWhen() MergeWhen {
	w := MergeWhen{Matched: true}
	p.expect(TOKEN_WHEN)
	if p.match(TOKEN_NOT) {
		w.Matched = false
	}
	p.expect(TOKEN_MATCHED)
	if p.match(TOKEN_AND) {
		p.parseExpression()
	}
	p.expect(TOKEN_THEN)

	switch p.token.Type {
	case TOKEN_UPDATE:
		p.nextToken()
		p.expect(TOKEN_SET)
		w.Update = p.parseAssignments()
	case TOKEN_INSERT:
		p.nextToken()
		if p.check(TOKEN_LPAREN) && !p.checkPeek(TOKEN_SELECT) {
			p.nextToken()
			for !p.check(TOKEN_RPAREN) && !p.check(TOKEN_EOF) {
				p.nextToken()
			}
			p.expect(TOKEN_RPAREN)
		}
		if p.match(TOKEN_VALUES) {
			p.expect(TOKEN_LPAREN)
			w.Insert = p.parseExpressionList()
			p.expect(TOKEN_RPAREN)
		}
	case TOKEN_DELETE:
		p.nextToken()
	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, p.token.Type, "UPDATE, INSERT or DELETE"))
	}
	return w
}
