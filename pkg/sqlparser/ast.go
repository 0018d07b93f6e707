package sqlparser

// Statement represents a SQL statement.
type Statement interface {
	stmtNode()
}

// Expr represents an expression in SQL.
type Expr interface {
	exprNode()
}

// TableExpr represents a table reference in a FROM clause.
type TableExpr interface {
	tableExprNode()
}

// ---------- Statement Types ----------

// SelectStmt represents a complete SELECT statement with optional WITH clause.
type SelectStmt struct {
	Pos  Position
	With *WithClause
	Body *SelectBody
}

func (*SelectStmt) stmtNode() {}

// WithClause represents a WITH clause with CTEs.
type WithClause struct {
	Recursive bool
	CTEs      []*CTE
}

// CTE represents a Common Table Expression.
type CTE struct {
	Name   string
	Select *SelectStmt
}

// SelectBody represents the body of a SELECT with possible set operations.
type SelectBody struct {
	Left  *SelectCore
	Op    SetOpType   // UNION, INTERSECT, EXCEPT, MINUS, or empty
	All   bool        // UNION ALL
	Right *SelectBody // For chained set operations
}

// SetOpType represents the type of set operation.
type SetOpType string

// SetOpType constants for set operations in queries.
const (
	SetOpNone      SetOpType = ""
	SetOpUnion     SetOpType = "UNION"
	SetOpIntersect SetOpType = "INTERSECT"
	SetOpExcept    SetOpType = "EXCEPT"
	SetOpMinus     SetOpType = "MINUS"
)

// SelectCore represents the core SELECT clause.
type SelectCore struct {
	Distinct bool
	Top      Expr // Teradata TOP n
	Columns  []SelectItem
	From     *FromClause
	Where    Expr
	GroupBy  []Expr
	Having   Expr
	Qualify  Expr // Teradata window function filter
	OrderBy  []OrderByItem
	Sample   Expr // Teradata SAMPLE n
	Limit    Expr
}

// SelectItem represents an item in the SELECT list.
type SelectItem struct {
	Star      bool   // SELECT *
	TableStar string // SELECT t.*
	Expr      Expr   // Expression
	Alias     string // AS alias
}

// OrderByItem represents an item in an ORDER BY clause.
type OrderByItem struct {
	Expr Expr
	Desc bool
}

// InsertStmt represents an INSERT statement.
type InsertStmt struct {
	Pos     Position
	Table   *TableName
	Columns []string    // optional column list
	Query   *SelectStmt // INSERT ... SELECT
	Values  [][]Expr    // INSERT ... VALUES (...), (...)
}

func (*InsertStmt) stmtNode() {}

// Assignment represents col = expr in a SET clause.
type Assignment struct {
	Column *ColumnRef
	Value  Expr
}

// UpdateStmt represents an UPDATE statement.
//
// Standard form:  UPDATE t SET ... [FROM src, ...] [WHERE ...]
// Teradata form:  UPDATE alias FROM real_table alias, ... SET ... [WHERE ...]
// In the Teradata form the named table is an alias that the FROM clause binds
// to a real table; FromBeforeSet records which form was parsed.
type UpdateStmt struct {
	Pos           Position
	Table         *TableName
	From          *FromClause
	FromBeforeSet bool // true for the Teradata UPDATE alias FROM ... SET form
	Set           []Assignment
	Where         Expr
}

func (*UpdateStmt) stmtNode() {}

// DeleteStmt represents a DELETE statement.
type DeleteStmt struct {
	Pos   Position
	Table *TableName
	All   bool // Teradata DELETE t ALL
	Where Expr
}

func (*DeleteStmt) stmtNode() {}

// TableKind distinguishes persistent tables from session-scoped ones.
type TableKind int

// TableKind constants for CREATE TABLE variants.
const (
	TablePermanent TableKind = iota
	TableVolatile            // Teradata CREATE VOLATILE TABLE
	TableTemporary           // CREATE [GLOBAL] TEMPORARY TABLE
)

// CreateTableStmt represents a CREATE TABLE statement.
type CreateTableStmt struct {
	Pos         Position
	Kind        TableKind
	Set         bool // Teradata CREATE SET TABLE
	Multiset    bool // Teradata CREATE MULTISET TABLE
	IfNotExists bool
	Table       *TableName
	As          *SelectStmt // CREATE TABLE ... AS (SELECT ...)
	WithData    bool        // Teradata WITH DATA
	SourceTable *TableName  // CREATE TABLE ... AS other_table (copy definition)
}

func (*CreateTableStmt) stmtNode() {}

// CreateViewStmt represents CREATE VIEW and Teradata REPLACE VIEW.
type CreateViewStmt struct {
	Pos     Position
	Replace bool // REPLACE VIEW / CREATE OR REPLACE VIEW
	View    *TableName
	As      *SelectStmt
}

func (*CreateViewStmt) stmtNode() {}

// DropStmt represents a DROP TABLE/VIEW statement.
type DropStmt struct {
	Pos      Position
	Object   string // "TABLE" or "VIEW"
	IfExists bool
	Target   *TableName
}

func (*DropStmt) stmtNode() {}

// AlterStmt represents an ALTER TABLE statement. The body after the target
// name is consumed without interpretation; lineage only needs the target.
type AlterStmt struct {
	Pos    Position
	Object string // "TABLE" or "VIEW"
	Target *TableName
}

func (*AlterStmt) stmtNode() {}

// MergeWhen represents one WHEN [NOT] MATCHED THEN ... branch.
type MergeWhen struct {
	Matched bool
	Update  []Assignment // WHEN MATCHED THEN UPDATE SET ...
	Insert  []Expr       // WHEN NOT MATCHED THEN INSERT [cols] VALUES (...)
}

// MergeStmt represents a MERGE INTO statement.
type MergeStmt struct {
	Pos    Position
	Target *TableName
	Using  TableExpr
	On     Expr
	Whens  []MergeWhen
}

func (*MergeStmt) stmtNode() {}

// OtherStmt represents a statement the grammar does not model. The raw text
// is preserved so session-control and utility statements (BT, ET, COLLECT
// STATISTICS, SET QUERY_BAND, CALL, ...) pass through without parse errors.
type OtherStmt struct {
	Pos     Position
	Keyword string // lowercase leading word, "" when the statement starts with punctuation
	Raw     string
}

func (*OtherStmt) stmtNode() {}

// ---------- Table Reference Types ----------

// TableName represents a table name reference.
type TableName struct {
	Pos     Position
	Catalog string // optional catalog (3-part names)
	Schema  string // optional schema/database qualifier
	Name    string
	Alias   string
}

func (*TableName) tableExprNode() {}

// QualifiedName returns the dotted name without the alias.
func (t *TableName) QualifiedName() string {
	name := t.Name
	if t.Schema != "" {
		name = t.Schema + "." + name
	}
	if t.Catalog != "" {
		name = t.Catalog + "." + name
	}
	return name
}

// DerivedTable represents a subquery in a FROM clause.
type DerivedTable struct {
	Select *SelectStmt
	Alias  string
}

func (*DerivedTable) tableExprNode() {}

// FromClause represents the FROM clause.
type FromClause struct {
	Source TableExpr
	Joins  []*Join
}

// JoinType represents the type of join; the value is the SQL keyword.
type JoinType string

// JoinType constants for join clauses.
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
	JoinCross JoinType = "CROSS"
	JoinComma JoinType = ","
)

// Join represents a JOIN clause.
type Join struct {
	Type      JoinType
	Right     TableExpr
	Condition Expr     // ON clause (mutually exclusive with Using)
	Using     []string // USING (col1, col2) columns
}

// ---------- Expression Types ----------

// ColumnRef represents a column reference (possibly qualified).
type ColumnRef struct {
	Table  string // optional table/alias qualifier
	Column string
}

func (*ColumnRef) exprNode() {}

// LiteralType represents the type of a literal.
type LiteralType int

// LiteralType constants for SQL literal value types.
const (
	LiteralNumber LiteralType = iota
	LiteralString
	LiteralBool
	LiteralNull
)

// Literal represents a literal value.
type Literal struct {
	Type  LiteralType
	Value string
}

func (*Literal) exprNode() {}

// ParamRef represents a bind parameter (? or :name).
type ParamRef struct {
	Name string
}

func (*ParamRef) exprNode() {}

// BinaryExpr represents a binary expression.
type BinaryExpr struct {
	Left  Expr
	Op    TokenType
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr represents a unary expression.
type UnaryExpr struct {
	Op   TokenType
	Expr Expr
}

func (*UnaryExpr) exprNode() {}

// FuncCall represents a function call.
type FuncCall struct {
	Name     string
	Distinct bool
	Args     []Expr
	Star     bool        // COUNT(*)
	Window   *WindowSpec // OVER clause
}

func (*FuncCall) exprNode() {}

// WindowSpec represents a window specification (OVER clause). Frame clauses
// are consumed but not modeled.
type WindowSpec struct {
	PartitionBy []Expr
	OrderBy     []OrderByItem
}

// WhenClause represents a WHEN clause in a CASE expression.
type WhenClause struct {
	Condition Expr
	Result    Expr
}

// CaseExpr represents a CASE expression.
type CaseExpr struct {
	Operand Expr // CASE operand WHEN ... (optional)
	Whens   []WhenClause
	Else    Expr
}

func (*CaseExpr) exprNode() {}

// CastExpr represents a CAST expression.
type CastExpr struct {
	Expr     Expr
	TypeName string
}

func (*CastExpr) exprNode() {}

// InExpr represents an IN expression.
type InExpr struct {
	Expr   Expr
	Not    bool
	Values []Expr      // IN (1, 2, 3)
	Query  *SelectStmt // IN (SELECT ...)
}

func (*InExpr) exprNode() {}

// BetweenExpr represents a BETWEEN expression.
type BetweenExpr struct {
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

func (*BetweenExpr) exprNode() {}

// IsNullExpr represents an IS [NOT] NULL expression.
type IsNullExpr struct {
	Expr Expr
	Not  bool
}

func (*IsNullExpr) exprNode() {}

// LikeExpr represents a LIKE expression.
type LikeExpr struct {
	Expr    Expr
	Not     bool
	Pattern Expr
}

func (*LikeExpr) exprNode() {}

// ParenExpr represents a parenthesized expression.
type ParenExpr struct {
	Expr Expr
}

func (*ParenExpr) exprNode() {}

// StarExpr represents a * expression (for SELECT *).
type StarExpr struct {
	Table string // optional table qualifier for t.*
}

func (*StarExpr) exprNode() {}

// SubqueryExpr represents a subquery used as an expression.
type SubqueryExpr struct {
	Select *SelectStmt
}

func (*SubqueryExpr) exprNode() {}

// ExistsExpr represents an EXISTS expression.
type ExistsExpr struct {
	Not    bool
	Select *SelectStmt
}

func (*ExistsExpr) exprNode() {}
