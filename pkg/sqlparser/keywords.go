package sqlparser

import "github.com/tracelight-labs/tracelight/pkg/dialect"

// keywords maps lowercase keyword strings to their token types.
var keywords = map[string]TokenType{
	"access":    TOKEN_ACCESS,
	"all":       TOKEN_ALL,
	"alter":     TOKEN_ALTER,
	"and":       TOKEN_AND,
	"as":        TOKEN_AS,
	"asc":       TOKEN_ASC,
	"between":   TOKEN_BETWEEN,
	"by":        TOKEN_BY,
	"case":      TOKEN_CASE,
	"cast":      TOKEN_CAST,
	"commit":    TOKEN_COMMIT,
	"create":    TOKEN_CREATE,
	"cross":     TOKEN_CROSS,
	"data":      TOKEN_DATA,
	"delete":    TOKEN_DELETE,
	"desc":      TOKEN_DESC,
	"distinct":  TOKEN_DISTINCT,
	"drop":      TOKEN_DROP,
	"else":      TOKEN_ELSE,
	"end":       TOKEN_END,
	"except":    TOKEN_EXCEPT,
	"exists":    TOKEN_EXISTS,
	"false":     TOKEN_FALSE,
	"for":       TOKEN_FOR,
	"from":      TOKEN_FROM,
	"full":      TOKEN_FULL,
	"global":    TOKEN_GLOBAL,
	"group":     TOKEN_GROUP,
	"having":    TOKEN_HAVING,
	"if":        TOKEN_IF,
	"in":        TOKEN_IN,
	"index":     TOKEN_INDEX,
	"inner":     TOKEN_INNER,
	"insert":    TOKEN_INSERT,
	"intersect": TOKEN_INTERSECT,
	"into":      TOKEN_INTO,
	"is":        TOKEN_IS,
	"join":      TOKEN_JOIN,
	"left":      TOKEN_LEFT,
	"like":      TOKEN_LIKE,
	"limit":     TOKEN_LIMIT,
	"locking":   TOKEN_LOCKING,
	"matched":   TOKEN_MATCHED,
	"merge":     TOKEN_MERGE,
	"minus":     TOKEN_MINUS_OP,
	"multiset":  TOKEN_MULTISET,
	"not":       TOKEN_NOT,
	"null":      TOKEN_NULL,
	"on":        TOKEN_ON,
	"or":        TOKEN_OR,
	"order":     TOKEN_ORDER,
	"outer":     TOKEN_OUTER,
	"over":      TOKEN_OVER,
	"partition": TOKEN_PARTITION,
	"preserve":  TOKEN_PRESERVE,
	"primary":   TOKEN_PRIMARY,
	"qualify":   TOKEN_QUALIFY,
	"recursive": TOKEN_RECURSIVE,
	"replace":   TOKEN_REPLACE,
	"right":     TOKEN_RIGHT,
	"rows":      TOKEN_ROWS,
	"sample":    TOKEN_SAMPLE,
	"select":    TOKEN_SELECT,
	"set":       TOKEN_SET,
	"table":     TOKEN_TABLE,
	"temporary": TOKEN_TEMPORARY,
	"then":      TOKEN_THEN,
	"top":       TOKEN_TOP,
	"true":      TOKEN_TRUE,
	"union":     TOKEN_UNION,
	"update":    TOKEN_UPDATE,
	"using":     TOKEN_USING,
	"values":    TOKEN_VALUES,
	"view":      TOKEN_VIEW,
	"volatile":  TOKEN_VOLATILE,
	"when":      TOKEN_WHEN,
	"where":     TOKEN_WHERE,
	"with":      TOKEN_WITH,
}

// LookupIdent returns the token type for the given lowercase identifier.
// If the identifier is a keyword, the keyword token type is returned.
// Otherwise, TOKEN_IDENT is returned.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TOKEN_IDENT
}

// LookupWord resolves a lowercase identifier against a dialect's statement
// abbreviations before falling through to the keyword table. Teradata scripts
// write SEL, INS, UPD and DEL for their full statement keywords.
func LookupWord(ident string, d *dialect.Dialect) TokenType {
	if d != nil {
		if full, ok := d.ExpandAbbreviation(ident); ok {
			ident = full
		}
	}
	return LookupIdent(ident)
}
