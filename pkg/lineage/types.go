// Package lineage extracts table-level lineage from SQL scripts.
//
// A script is segmented into statements, each statement is analyzed into an
// Operation (what it writes, what it reads), and the operations are
// aggregated into a Result describing the script's overall data flow.
// Statements that cannot be analyzed produce warnings, never hard failures;
// batch scripts are expected to carry vendor noise.
package lineage

import "fmt"

// TableRef is a reference to a table found in a statement.
type TableRef struct {
	Schema     string `json:"schema,omitempty"`
	Name       string `json:"name"`
	Alias      string `json:"alias,omitempty"`
	IsSubquery bool   `json:"is_subquery,omitempty"`
}

// Qualified returns the schema-qualified table name.
func (r TableRef) Qualified() string {
	if r.Schema != "" {
		return r.Schema + "." + r.Name
	}
	return r.Name
}

// OpKind classifies what a statement does to its target.
type OpKind int

const (
	OpSelect OpKind = iota
	OpInsert
	OpUpdate
	OpDelete
	OpCreate
	OpCreateVolatile
	OpCreateView
	OpDrop
	OpAlter
	OpMerge
	OpOther
)

var opKindNames = map[OpKind]string{
	OpSelect:         "select",
	OpInsert:         "insert",
	OpUpdate:         "update",
	OpDelete:         "delete",
	OpCreate:         "create",
	OpCreateVolatile: "create_volatile",
	OpCreateView:     "create_view",
	OpDrop:           "drop",
	OpAlter:          "alter",
	OpMerge:          "merge",
	OpOther:          "other",
}

func (k OpKind) String() string {
	if name, ok := opKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// Writes reports whether the operation kind modifies its target.
func (k OpKind) Writes() bool {
	switch k {
	case OpInsert, OpUpdate, OpDelete, OpCreate, OpCreateVolatile,
		OpCreateView, OpMerge:
		return true
	}
	return false
}

// Operation is the lineage of a single statement.
type Operation struct {
	Kind    OpKind     `json:"kind"`
	Target  *TableRef  `json:"target,omitempty"`
	Sources []TableRef `json:"sources,omitempty"`
	Line    int        `json:"line"`
	RawText string     `json:"raw_text"`
}

// Warning records a non-fatal problem found while analyzing a script.
type Warning struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s", w.Line, w.Message)
}

// Result is the aggregated lineage of a whole script.
//
// Table lists preserve first-seen order. Relationships map each written
// table to the ordered tables it was derived from; a source repeated across
// statements appears repeatedly. A table may be both source and target.
type Result struct {
	SourceTables   []string            `json:"source_tables"`
	TargetTables   []string            `json:"target_tables"`
	VolatileTables []string            `json:"volatile_tables"`
	StatementCount int                 `json:"statement_count"`
	Operations     []Operation         `json:"operations"`
	Relationships  map[string][]string `json:"relationships"`
	Warnings       []Warning           `json:"warnings"`
}
