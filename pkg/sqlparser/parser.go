// Package sqlparser provides lexing and parsing of dialect-flavored SQL into
// a statement AST suitable for table-level lineage extraction.
//
// # Parser Architecture
//
// The parser is split across multiple files for maintainability:
//
//   - parser.go (this file): Public API, Parser struct, token helpers
//   - parser_stmt.go: Statement dispatch, LOCKING modifiers, raw statements
//   - parser_select.go: SELECT body, CTEs, FROM clause, JOINs
//   - parser_expr.go: Expression precedence parsing
//   - parser_dml.go: INSERT, UPDATE, DELETE, MERGE
//   - parser_ddl.go: CREATE TABLE/VIEW, DROP, ALTER
//
// # Usage
//
//	stmt, err := sqlparser.Parse("INSERT INTO t SELECT * FROM s", dialect.Default())
//	if err != nil {
//	    // handle error
//	}
//
// # Grammar Overview
//
// The parser implements recursive descent over one statement at a time:
//
//	statement     → select_stmt | insert_stmt | update_stmt | delete_stmt
//	              | create_stmt | drop_stmt | alter_stmt | merge_stmt | other_stmt
//	select_stmt   → [WITH [RECURSIVE] cte_list] select_body
//	select_body   → select_core [(UNION|INTERSECT|EXCEPT|MINUS) [ALL] select_body]
//	select_core   → SELECT [DISTINCT] [TOP n] select_list [FROM from_clause]
//	                [WHERE expr] [GROUP BY expr_list] [HAVING expr]
//	                [QUALIFY expr] [ORDER BY order_list] [SAMPLE expr] [LIMIT expr]
//	insert_stmt   → INSERT INTO table_name [(columns)] (select_stmt | VALUES rows)
//	update_stmt   → UPDATE table_name [FROM from_clause] SET assignments [WHERE expr]
//	delete_stmt   → DELETE [FROM] table_name [ALL] [WHERE expr]
//	create_stmt   → CREATE [SET|MULTISET] [VOLATILE|[GLOBAL] TEMPORARY] TABLE ...
//	              | CREATE [OR REPLACE] VIEW ... | REPLACE VIEW ...
//	merge_stmt    → MERGE INTO table_name USING table_expr ON expr when_clauses
//
// Statements whose leading keyword is not modeled (session control, utility
// commands) are consumed into OtherStmt without error.
//
// Unknown constructs inside a modeled statement produce a *ParseError; callers
// decide whether to surface it or fall back to pattern-based analysis.
package sqlparser

import (
	"fmt"

	"github.com/tracelight-labs/tracelight/pkg/dialect"
)

// maxNestingDepth bounds subquery nesting so hostile input cannot exhaust the
// stack during parsing.
const maxNestingDepth = 200

// Parser parses SQL into an AST.
type Parser struct {
	lexer   *Lexer
	dialect *dialect.Dialect
	input   string
	token   Token // current token
	peek    Token // lookahead token
	peek2   Token // second lookahead token
	errors  []error
	depth   int // current subquery nesting depth
}

// NewParser creates a new parser for the given SQL input.
// A nil dialect falls back to the registry default.
func NewParser(sql string, d *dialect.Dialect) *Parser {
	if d == nil {
		d = dialect.Default()
	}
	p := &Parser{
		lexer:   NewLexer(sql, d),
		dialect: d,
		input:   sql,
	}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a single SQL statement and returns the AST.
func Parse(sql string, d *dialect.Dialect) (Statement, error) {
	p := NewParser(sql, d)
	return p.ParseStatement()
}

// ParseStatement parses one statement from the input.
func (p *Parser) ParseStatement() (Statement, error) {
	stmt := p.parseStatement()

	// A statement must consume its full input; trailing semicolons are fine.
	for p.check(TOKEN_SEMICOLON) {
		p.nextToken()
	}
	if _, ok := stmt.(*OtherStmt); !ok && !p.check(TOKEN_EOF) && len(p.errors) == 0 {
		p.addError(fmt.Sprintf(ErrTrailingTokens, p.token.Type))
	}

	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return stmt, nil
}

// Errors returns all errors collected during parsing.
func (p *Parser) Errors() []error {
	return p.errors
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t TokenType) bool {
	return p.peek.Type == t
}

// checkPeek2 returns true if the peek2 token is of the given type.
func (p *Parser) checkPeek2(t TokenType) bool {
	return p.peek2.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, p.token.Type, t))
	return false
}

// addError adds a parse error at the current token position.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

// enterNesting tracks subquery depth and reports when the bound is exceeded.
func (p *Parser) enterNesting() bool {
	p.depth++
	if p.depth > maxNestingDepth {
		p.addError(fmt.Sprintf(ErrNestingTooDeep, maxNestingDepth))
		return false
	}
	return true
}

// leaveNesting unwinds one subquery level.
func (p *Parser) leaveNesting() {
	p.depth--
}

// ---------- Keyword Helpers ----------

// identLike returns true when the token can serve as a bare identifier.
// Non-reserved keywords (DATA, ACCESS, INDEX, ...) appear as column and table
// names in real scripts.
func (p *Parser) identLike(tok Token) bool {
	switch tok.Type {
	case TOKEN_IDENT, TOKEN_DATA, TOKEN_ACCESS, TOKEN_INDEX, TOKEN_MATCHED,
		TOKEN_SAMPLE, TOKEN_TOP, TOKEN_GLOBAL, TOKEN_PRESERVE, TOKEN_ROWS,
		TOKEN_COMMIT, TOKEN_TEMPORARY, TOKEN_VOLATILE, TOKEN_MULTISET:
		return true
	}
	return false
}

// isClauseKeyword returns true if token starts a new clause after a FROM item.
func (p *Parser) isClauseKeyword(tok Token) bool {
	switch tok.Type {
	case TOKEN_WHERE, TOKEN_GROUP, TOKEN_HAVING, TOKEN_ORDER, TOKEN_LIMIT,
		TOKEN_UNION, TOKEN_INTERSECT, TOKEN_EXCEPT, TOKEN_MINUS_OP,
		TOKEN_QUALIFY, TOKEN_SAMPLE, TOKEN_SET, TOKEN_WHEN, TOKEN_ON:
		return true
	}
	return false
}

// isJoinKeyword returns true if token starts a join.
func (p *Parser) isJoinKeyword(tok Token) bool {
	switch tok.Type {
	case TOKEN_JOIN, TOKEN_LEFT, TOKEN_RIGHT, TOKEN_INNER, TOKEN_OUTER,
		TOKEN_FULL, TOKEN_CROSS:
		return true
	}
	return false
}
