package sqlparser

import "fmt"

// Error message templates.
const (
	// ErrUnexpectedToken is used when the parser encounters an unexpected token.
	ErrUnexpectedToken = "unexpected token %s, expected %s"
	// ErrExpectedIdent is used when an identifier was expected.
	ErrExpectedIdent = "expected identifier, got %s"
	// ErrExpectedExpr is used when an expression was expected.
	ErrExpectedExpr = "expected expression, got %s"
	// ErrTrailingTokens is used when tokens remain after a complete statement.
	ErrTrailingTokens = "unexpected token %s after end of statement"
	// ErrNestingTooDeep is used when subquery nesting exceeds the parser limit.
	ErrNestingTooDeep = "subquery nesting exceeds %d levels"
)

// ParseError represents a parsing error with position information.
type ParseError struct {
	Pos     Position
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}
