package sqlparser

import "strings"

// parseStatement dispatches on the leading token.
//
//	statement → select_stmt | insert_stmt | update_stmt | delete_stmt
//	          | create_stmt | drop_stmt | alter_stmt | merge_stmt
//	          | LOCKING lock_spec statement
//	          | other_stmt
func (p *Parser) parseStatement() Statement {
	pos := p.token.Pos

	switch p.token.Type {
	case TOKEN_WITH, TOKEN_SELECT:
		return p.parseSelectStmt()
	case TOKEN_LPAREN:
		// Parenthesized SELECT used as a whole statement: (SELECT ...) UNION ...
		if p.checkPeek(TOKEN_SELECT) || p.checkPeek(TOKEN_WITH) || p.checkPeek(TOKEN_LPAREN) {
			return p.parseSelectStmt()
		}
		return p.parseOther(pos)
	case TOKEN_INSERT:
		return p.parseInsert()
	case TOKEN_UPDATE:
		return p.parseUpdate()
	case TOKEN_DELETE:
		return p.parseDelete()
	case TOKEN_CREATE:
		return p.parseCreate()
	case TOKEN_REPLACE:
		// Teradata REPLACE VIEW
		if p.checkPeek(TOKEN_VIEW) {
			return p.parseCreateView(true)
		}
		return p.parseOther(pos)
	case TOKEN_DROP:
		return p.parseDrop()
	case TOKEN_ALTER:
		return p.parseAlter()
	case TOKEN_MERGE:
		return p.parseMerge()
	case TOKEN_LOCKING:
		return p.parseLocking()
	default:
		return p.parseOther(pos)
	}
}

// parseLocking skips a Teradata LOCKING modifier and parses the statement it
// prefixes. Lock targets are not lineage.
//
//	LOCKING ROW FOR ACCESS SELECT ...
//	LOCKING TABLE t FOR ACCESS INSERT ...
func (p *Parser) parseLocking() Statement {
	for !p.check(TOKEN_EOF) {
		switch p.token.Type {
		case TOKEN_SELECT, TOKEN_INSERT, TOKEN_UPDATE, TOKEN_DELETE,
			TOKEN_MERGE, TOKEN_CREATE, TOKEN_WITH:
			return p.parseStatement()
		}
		p.nextToken()
	}
	return &OtherStmt{Pos: p.token.Pos, Keyword: "locking", Raw: p.input}
}

// parseOther consumes an unmodeled statement in full. No error is recorded;
// classification of these statements happens downstream.
func (p *Parser) parseOther(pos Position) *OtherStmt {
	keyword := ""
	if p.token.Literal != "" && !p.token.Quoted && p.token.Type != TOKEN_STRING {
		keyword = strings.ToLower(p.token.Literal)
	}
	for !p.check(TOKEN_EOF) {
		p.nextToken()
	}
	return &OtherStmt{Pos: pos, Keyword: keyword, Raw: p.input}
}
