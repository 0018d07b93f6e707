package sqlparser

import (
	"fmt"
	"strings"
)

// parseExpression parses an expression with standard SQL precedence:
// OR < AND < NOT < comparison < additive < multiplicative < unary < primary.
func (p *Parser) parseExpression() Expr {
	return p.parseOr()
}

func (p *Parser) parseOr() Expr {
	left := p.parseAnd()
	for p.check(TOKEN_OR) {
		p.nextToken()
		left = &BinaryExpr{Left: left, Op: TOKEN_OR, Right: p.parseAnd()}
	}
	return left
}

func (p *Parser) parseAnd() Expr {
	left := p.parseNot()
	for p.check(TOKEN_AND) {
		p.nextToken()
		left = &BinaryExpr{Left: left, Op: TOKEN_AND, Right: p.parseNot()}
	}
	return left
}

func (p *Parser) parseNot() Expr {
	if p.check(TOKEN_NOT) {
		if p.checkPeek(TOKEN_EXISTS) {
			p.nextToken()
			expr := p.parseComparison()
			if ex, ok := expr.(*ExistsExpr); ok {
				ex.Not = true
				return ex
			}
			return &UnaryExpr{Op: TOKEN_NOT, Expr: expr}
		}
		p.nextToken()
		return &UnaryExpr{Op: TOKEN_NOT, Expr: p.parseNot()}
	}
	return p.parseComparison()
}

// parseComparison parses comparison operators and the predicate forms
// IN, BETWEEN, LIKE and IS [NOT] NULL, including their NOT variants.
func (p *Parser) parseComparison() Expr {
	left := p.parseAdditive()
	for {
		switch p.token.Type {
		case TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_GT, TOKEN_LE, TOKEN_GE:
			op := p.token.Type
			p.nextToken()
			left = &BinaryExpr{Left: left, Op: op, Right: p.parseAdditive()}
		case TOKEN_IS:
			left = p.parseIs(left)
		case TOKEN_IN:
			left = p.parseIn(left, false)
		case TOKEN_LIKE:
			left = p.parseLike(left, false)
		case TOKEN_BETWEEN:
			left = p.parseBetween(left, false)
		case TOKEN_NOT:
			switch p.peek.Type {
			case TOKEN_IN:
				p.nextToken()
				left = p.parseIn(left, true)
			case TOKEN_LIKE:
				p.nextToken()
				left = p.parseLike(left, true)
			case TOKEN_BETWEEN:
				p.nextToken()
				left = p.parseBetween(left, true)
			default:
				return left
			}
		default:
			return left
		}
	}
}

// parseIs parses IS [NOT] NULL and IS [NOT] TRUE/FALSE.
func (p *Parser) parseIs(left Expr) Expr {
	p.expect(TOKEN_IS)
	not := p.match(TOKEN_NOT)
	switch p.token.Type {
	case TOKEN_NULL:
		p.nextToken()
		return &IsNullExpr{Expr: left, Not: not}
	case TOKEN_TRUE, TOKEN_FALSE:
		lit := &Literal{Type: LiteralBool, Value: p.token.Literal}
		p.nextToken()
		expr := Expr(&BinaryExpr{Left: left, Op: TOKEN_EQ, Right: lit})
		if not {
			expr = &UnaryExpr{Op: TOKEN_NOT, Expr: expr}
		}
		return expr
	default:
		p.addError(fmt.Sprintf(ErrExpectedExpr, p.token.Type))
		return left
	}
}

// parseIn parses [NOT] IN with either a value list or a subquery.
func (p *Parser) parseIn(left Expr, not bool) Expr {
	p.expect(TOKEN_IN)
	in := &InExpr{Expr: left, Not: not}
	if !p.expect(TOKEN_LPAREN) {
		return in
	}
	if p.check(TOKEN_SELECT) || p.check(TOKEN_WITH) {
		if p.enterNesting() {
			in.Query = p.parseSelectStmt()
			p.leaveNesting()
		}
	} else {
		in.Values = p.parseExpressionList()
	}
	p.expect(TOKEN_RPAREN)
	return in
}

func (p *Parser) parseLike(left Expr, not bool) Expr {
	p.expect(TOKEN_LIKE)
	// Teradata LIKE ANY/ALL ('a%', 'b%')
	if p.check(TOKEN_ALL) || (p.check(TOKEN_IDENT) && strings.EqualFold(p.token.Literal, "any")) {
		p.nextToken()
	}
	return &LikeExpr{Expr: left, Not: not, Pattern: p.parseAdditive()}
}

func (p *Parser) parseBetween(left Expr, not bool) Expr {
	p.expect(TOKEN_BETWEEN)
	be := &BetweenExpr{Expr: left, Not: not}
	be.Low = p.parseAdditive()
	p.expect(TOKEN_AND)
	be.High = p.parseAdditive()
	return be
}

func (p *Parser) parseAdditive() Expr {
	left := p.parseMultiplicative()
	for p.check(TOKEN_PLUS) || p.check(TOKEN_MINUS) || p.check(TOKEN_DPIPE) {
		op := p.token.Type
		p.nextToken()
		left = &BinaryExpr{Left: left, Op: op, Right: p.parseMultiplicative()}
	}
	return left
}

func (p *Parser) parseMultiplicative() Expr {
	left := p.parseUnary()
	for p.check(TOKEN_STAR) || p.check(TOKEN_SLASH) || p.check(TOKEN_PERCENT) {
		op := p.token.Type
		p.nextToken()
		left = &BinaryExpr{Left: left, Op: op, Right: p.parseUnary()}
	}
	return left
}

func (p *Parser) parseUnary() Expr {
	if p.check(TOKEN_MINUS) || p.check(TOKEN_PLUS) {
		op := p.token.Type
		p.nextToken()
		return &UnaryExpr{Op: op, Expr: p.parseUnary()}
	}
	return p.parsePrimary()
}

// parsePrimary parses literals, column references, function calls, CASE,
// CAST, EXISTS, parenthesized expressions, and scalar subqueries.
func (p *Parser) parsePrimary() Expr {
	switch p.token.Type {
	case TOKEN_NUMBER:
		lit := &Literal{Type: LiteralNumber, Value: p.token.Literal}
		p.nextToken()
		return lit
	case TOKEN_STRING:
		lit := &Literal{Type: LiteralString, Value: p.token.Literal}
		p.nextToken()
		return lit
	case TOKEN_TRUE, TOKEN_FALSE:
		lit := &Literal{Type: LiteralBool, Value: p.token.Literal}
		p.nextToken()
		return lit
	case TOKEN_NULL:
		p.nextToken()
		return &Literal{Type: LiteralNull}
	case TOKEN_PARAM:
		param := &ParamRef{Name: p.token.Literal}
		p.nextToken()
		return param
	case TOKEN_CASE:
		return p.parseCase()
	case TOKEN_CAST:
		return p.parseCast()
	case TOKEN_EXISTS:
		return p.parseExists()
	case TOKEN_STAR:
		p.nextToken()
		return &StarExpr{}
	case TOKEN_LPAREN:
		if p.checkPeek(TOKEN_SELECT) || p.checkPeek(TOKEN_WITH) {
			p.nextToken()
			sq := &SubqueryExpr{}
			if p.enterNesting() {
				sq.Select = p.parseSelectStmt()
				p.leaveNesting()
			}
			p.expect(TOKEN_RPAREN)
			return sq
		}
		p.nextToken()
		inner := p.parseExpression()
		p.expect(TOKEN_RPAREN)
		return &ParenExpr{Expr: inner}
	case TOKEN_LEFT, TOKEN_RIGHT:
		// LEFT(s, n) / RIGHT(s, n) string functions
		if p.checkPeek(TOKEN_LPAREN) {
			name := p.token.Literal
			p.nextToken()
			return p.parseFuncCall(name)
		}
		p.addError(fmt.Sprintf(ErrExpectedExpr, p.token.Type))
		return nil
	default:
		if p.identLike(p.token) {
			if p.checkPeek(TOKEN_LPAREN) {
				name := p.token.Literal
				p.nextToken()
				return p.parseFuncCall(name)
			}
			return p.parseColumnRef()
		}
		p.addError(fmt.Sprintf(ErrExpectedExpr, p.token.Type))
		return nil
	}
}

// parseColumnRef parses a dotted column reference; a trailing star yields a
// StarExpr with the qualifier.
func (p *Parser) parseColumnRef() Expr {
	parts := []string{p.token.Literal}
	p.nextToken()

	for p.check(TOKEN_DOT) && (p.identLike(p.peek) || p.checkPeek(TOKEN_STAR)) {
		p.nextToken()
		if p.check(TOKEN_STAR) {
			p.nextToken()
			return &StarExpr{Table: strings.Join(parts, ".")}
		}
		parts = append(parts, p.token.Literal)
		p.nextToken()
	}

	column := parts[len(parts)-1]
	table := strings.Join(parts[:len(parts)-1], ".")
	return &ColumnRef{Table: table, Column: column}
}

// parseFuncCall parses a function call after its name has been consumed.
// FROM and FOR act as argument separators so EXTRACT(YEAR FROM d),
// SUBSTRING(s FROM 1 FOR 2) and TRIM(TRAILING FROM s) parse cleanly.
func (p *Parser) parseFuncCall(name string) Expr {
	fc := &FuncCall{Name: name}
	if !p.expect(TOKEN_LPAREN) {
		return fc
	}

	if p.match(TOKEN_STAR) {
		fc.Star = true
		p.expect(TOKEN_RPAREN)
		return p.parseOverClause(fc)
	}
	if p.match(TOKEN_RPAREN) {
		return p.parseOverClause(fc)
	}

	if p.match(TOKEN_DISTINCT) {
		fc.Distinct = true
	}
	for {
		fc.Args = append(fc.Args, p.parseExpression())
		if p.match(TOKEN_COMMA) || p.match(TOKEN_FROM) || p.match(TOKEN_FOR) {
			continue
		}
		break
	}
	p.expect(TOKEN_RPAREN)
	return p.parseOverClause(fc)
}

// parseOverClause attaches a window specification when OVER follows a call.
//
//	over_clause → OVER "(" [PARTITION BY expr_list] [ORDER BY order_list] [frame] ")"
func (p *Parser) parseOverClause(fc *FuncCall) Expr {
	if !p.check(TOKEN_OVER) {
		return fc
	}
	p.nextToken()
	if !p.expect(TOKEN_LPAREN) {
		return fc
	}

	spec := &WindowSpec{}
	if p.check(TOKEN_PARTITION) {
		p.nextToken()
		p.expect(TOKEN_BY)
		spec.PartitionBy = p.parseExpressionList()
	}
	if p.check(TOKEN_ORDER) {
		p.nextToken()
		p.expect(TOKEN_BY)
		spec.OrderBy = p.parseOrderByList()
	}
	// Frame clause (ROWS/RANGE BETWEEN ...): consume to the closing paren
	depth := 0
	for !p.check(TOKEN_EOF) {
		if p.check(TOKEN_RPAREN) {
			if depth == 0 {
				break
			}
			depth--
		}
		if p.check(TOKEN_LPAREN) {
			depth++
		}
		p.nextToken()
	}
	p.expect(TOKEN_RPAREN)
	fc.Window = spec
	return fc
}

// parseCase parses a CASE expression.
func (p *Parser) parseCase() Expr {
	p.expect(TOKEN_CASE)
	ce := &CaseExpr{}
	if !p.check(TOKEN_WHEN) {
		ce.Operand = p.parseExpression()
	}
	for p.match(TOKEN_WHEN) {
		w := WhenClause{Condition: p.parseExpression()}
		p.expect(TOKEN_THEN)
		w.Result = p.parseExpression()
		ce.Whens = append(ce.Whens, w)
	}
	if p.match(TOKEN_ELSE) {
		ce.Else = p.parseExpression()
	}
	p.expect(TOKEN_END)
	return ce
}

// parseCast parses a CAST expression.
func (p *Parser) parseCast() Expr {
	p.expect(TOKEN_CAST)
	if !p.expect(TOKEN_LPAREN) {
		return nil
	}
	ce := &CastExpr{Expr: p.parseExpression()}
	p.expect(TOKEN_AS)
	ce.TypeName = p.parseTypeName()
	p.expect(TOKEN_RPAREN)
	return ce
}

// parseTypeName consumes a type name including precision arguments and
// Teradata attribute clauses (FORMAT 'YYYY-MM-DD', CHARACTER SET LATIN).
func (p *Parser) parseTypeName() string {
	var sb strings.Builder
	depth := 0
	for !p.check(TOKEN_EOF) {
		if p.check(TOKEN_RPAREN) {
			if depth == 0 {
				break
			}
			depth--
		}
		if p.check(TOKEN_LPAREN) {
			depth++
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(p.token.Literal)
		p.nextToken()
	}
	return sb.String()
}

// parseExists parses an EXISTS subquery.
func (p *Parser) parseExists() Expr {
	p.expect(TOKEN_EXISTS)
	ex := &ExistsExpr{}
	if !p.expect(TOKEN_LPAREN) {
		return ex
	}
	if p.enterNesting() {
		ex.Select = p.parseSelectStmt()
		p.leaveNesting()
	}
	p.expect(TOKEN_RPAREN)
	return ex
}
