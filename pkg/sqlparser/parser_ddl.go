package sqlparser

import "fmt"

// parseCreate parses CREATE TABLE and CREATE [OR REPLACE] VIEW statements.
//
//	create_table → CREATE [SET|MULTISET] [VOLATILE | [GLOBAL] TEMPORARY] TABLE [IF NOT EXISTS] qualified_name
//	               ["(" column_defs ")"] [AS (select | qualified_name)] post_clauses
//
// Post clauses cover the Teradata tail: WITH [NO] DATA, ON COMMIT
// PRESERVE/DELETE ROWS, PRIMARY INDEX and friends. Everything after the
// defining query is consumed permissively because vendors disagree wildly
// about what may appear there.
func (p *Parser) parseCreate() Statement {
	pos := p.token.Pos
	p.expect(TOKEN_CREATE)

	replace := false
	if p.check(TOKEN_OR) && p.checkPeek(TOKEN_REPLACE) {
		p.nextToken()
		p.nextToken()
		replace = true
	}
	if p.check(TOKEN_VIEW) {
		return p.parseCreateViewBody(pos, replace)
	}

	stmt := &CreateTableStmt{Pos: pos}

modifiers:
	for {
		switch p.token.Type {
		case TOKEN_SET:
			stmt.Set = true
			p.nextToken()
		case TOKEN_MULTISET:
			stmt.Multiset = true
			p.nextToken()
		case TOKEN_VOLATILE:
			stmt.Kind = TableVolatile
			p.nextToken()
		case TOKEN_GLOBAL:
			p.nextToken()
		case TOKEN_TEMPORARY:
			if stmt.Kind == TablePermanent {
				stmt.Kind = TableTemporary
			}
			p.nextToken()
		default:
			break modifiers
		}
	}

	if !p.expect(TOKEN_TABLE) {
		return stmt
	}
	if p.check(TOKEN_IF) {
		p.nextToken()
		p.expect(TOKEN_NOT)
		p.expect(TOKEN_EXISTS)
		stmt.IfNotExists = true
	}

	stmt.Table = p.parseQualifiedName()
	if stmt.Table == nil {
		return stmt
	}

	// Table options such as NO FALLBACK or NO BEFORE JOURNAL may sit
	// between the name and the column list. Skip ahead to whichever of
	// "(", AS, or the post clauses comes first.
	for !p.check(TOKEN_EOF) && !p.check(TOKEN_LPAREN) && !p.check(TOKEN_AS) &&
		!p.check(TOKEN_SEMICOLON) && !p.isCreatePostClause() {
		p.nextToken()
	}

	if p.check(TOKEN_LPAREN) {
		p.consumeParenGroup()
	}

	if p.match(TOKEN_AS) {
		switch {
		case p.check(TOKEN_LPAREN) || p.check(TOKEN_SELECT) || p.check(TOKEN_WITH):
			stmt.As = p.parseSelectStmt()
		case p.identLike(p.token):
			stmt.SourceTable = p.parseQualifiedName()
		default:
			p.addError(fmt.Sprintf(ErrUnexpectedToken, p.token.Type, "SELECT or table name"))
			return stmt
		}
	}

	p.parseCreatePostClauses(stmt)
	return stmt
}

// isCreatePostClause reports whether the current token starts one of the
// recognised clauses that follow a CREATE TABLE body.
func (p *Parser) isCreatePostClause() bool {
	switch p.token.Type {
	case TOKEN_WITH, TOKEN_ON, TOKEN_PRIMARY, TOKEN_PARTITION, TOKEN_INDEX:
		return true
	}
	return false
}

// parseCreatePostClauses consumes the tail of a CREATE TABLE statement,
// recording WITH DATA when present. Unrecognised trailing tokens are
// swallowed rather than reported so that storage and distribution options
// never fail a statement whose lineage is already known.
func (p *Parser) parseCreatePostClauses(stmt *CreateTableStmt) {
	for !p.check(TOKEN_EOF) && !p.check(TOKEN_SEMICOLON) {
		switch {
		case p.check(TOKEN_WITH) && p.checkPeek(TOKEN_DATA):
			p.nextToken()
			p.nextToken()
			stmt.WithData = true
		case p.check(TOKEN_ON) && p.checkPeek(TOKEN_COMMIT):
			p.nextToken()
			p.nextToken()
			if p.check(TOKEN_PRESERVE) || p.check(TOKEN_DELETE) {
				p.nextToken()
			}
			p.match(TOKEN_ROWS)
		case p.check(TOKEN_LPAREN):
			p.consumeParenGroup()
		default:
			p.nextToken()
		}
	}
}

// parseCreateView parses the Teradata REPLACE VIEW form, which creates the
// view when it does not exist and replaces it when it does.
//
//	replace_view → REPLACE VIEW qualified_name ["(" columns ")"] AS select
func (p *Parser) parseCreateView(replace bool) Statement {
	pos := p.token.Pos
	p.expect(TOKEN_REPLACE)
	return p.parseCreateViewBody(pos, replace)
}

// parseCreateViewBody parses the remainder of a view definition once the
// leading CREATE [OR REPLACE] or REPLACE has been consumed.
func (p *Parser) parseCreateViewBody(pos Position, replace bool) Statement {
	stmt := &CreateViewStmt{Pos: pos, Replace: replace}
	if !p.expect(TOKEN_VIEW) {
		return stmt
	}
	if p.check(TOKEN_IF) {
		p.nextToken()
		p.expect(TOKEN_NOT)
		p.expect(TOKEN_EXISTS)
	}
	stmt.View = p.parseQualifiedName()
	if stmt.View == nil {
		return stmt
	}
	if p.check(TOKEN_LPAREN) {
		p.consumeParenGroup()
	}
	if p.expect(TOKEN_AS) {
		stmt.As = p.parseSelectStmt()
	}
	return stmt
}

// parseDrop parses DROP TABLE and DROP VIEW statements.
//
//	drop_stmt → DROP (TABLE|VIEW) [IF EXISTS] qualified_name
func (p *Parser) parseDrop() Statement {
	stmt := &DropStmt{Pos: p.token.Pos, Object: "TABLE"}
	p.expect(TOKEN_DROP)
	switch p.token.Type {
	case TOKEN_TABLE:
		p.nextToken()
	case TOKEN_VIEW:
		stmt.Object = "VIEW"
		p.nextToken()
	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, p.token.Type, "TABLE or VIEW"))
		return stmt
	}
	if p.check(TOKEN_IF) {
		p.nextToken()
		p.expect(TOKEN_EXISTS)
		stmt.IfExists = true
	}
	stmt.Target = p.parseQualifiedName()
	return stmt
}

// parseAlter parses ALTER TABLE and ALTER VIEW statements. Only the target
// name matters for lineage, so the body is consumed without interpretation.
//
//	alter_stmt → ALTER (TABLE|VIEW) qualified_name rest
func (p *Parser) parseAlter() Statement {
	stmt := &AlterStmt{Pos: p.token.Pos, Object: "TABLE"}
	p.expect(TOKEN_ALTER)
	switch p.token.Type {
	case TOKEN_TABLE:
		p.nextToken()
	case TOKEN_VIEW:
		stmt.Object = "VIEW"
		p.nextToken()
	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, p.token.Type, "TABLE or VIEW"))
		return stmt
	}
	stmt.Target = p.parseQualifiedName()
	for !p.check(TOKEN_EOF) && !p.check(TOKEN_SEMICOLON) {
		p.nextToken()
	}
	return stmt
}

// consumeParenGroup consumes a balanced parenthesized group, including any
// nested groups, without interpreting its contents.
func (p *Parser) consumeParenGroup() {
	if !p.expect(TOKEN_LPAREN) {
		return
	}
	depth := 1
	for depth > 0 && !p.check(TOKEN_EOF) {
		switch p.token.Type {
		case TOKEN_LPAREN:
			depth++
		case TOKEN_RPAREN:
			depth--
		}
		p.nextToken()
	}
}
