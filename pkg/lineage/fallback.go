package lineage

import (
	"regexp"
	"strings"

	"github.com/tracelight-labs/tracelight/pkg/dialect"
)

// Statement shape patterns for the pattern analyzer. Comments are already
// stripped by segmentation, so matching over the raw statement text is safe.
var (
	reCreateVolatile = regexp.MustCompile(`(?is)^\s*CREATE\s+(?:SET\s+|MULTISET\s+)?(?:VOLATILE|GLOBAL\s+TEMPORARY)\s+TABLE\s+([\w.]+)`)
	reCreateView     = regexp.MustCompile(`(?is)^\s*(?:CREATE\s+(?:OR\s+REPLACE\s+)?|REPLACE\s+)VIEW\s+([\w.]+)`)
	reCreateTable    = regexp.MustCompile(`(?is)^\s*CREATE\s+(?:SET\s+|MULTISET\s+)?TABLE\s+([\w.]+)`)
	reInsertInto     = regexp.MustCompile(`(?is)^\s*(?:LOCKING\b.*?)?INSERT\s+INTO\s+([\w.]+)`)
	reUpdateAlias    = regexp.MustCompile(`(?is)^\s*UPDATE\s+(\w+)\s+FROM\s+([\w.]+)`)
	reUpdate         = regexp.MustCompile(`(?is)^\s*UPDATE\s+([\w.]+)`)
	reDelete         = regexp.MustCompile(`(?is)^\s*DELETE\s+(?:FROM\s+)?([\w.]+)`)
	reDrop           = regexp.MustCompile(`(?is)^\s*DROP\s+(?:TABLE|VIEW)\s+(?:IF\s+EXISTS\s+)?([\w.]+)`)
	reAlter          = regexp.MustCompile(`(?is)^\s*ALTER\s+(?:TABLE|VIEW)\s+([\w.]+)`)
	reMerge          = regexp.MustCompile(`(?is)^\s*MERGE\s+(?:INTO\s+)?([\w.]+).*?\bUSING\s+([\w.]+)?`)
	reSelect         = regexp.MustCompile(`(?is)^\s*(?:LOCKING\b.*?)?(?:SELECT|SEL)\b`)
	reWith           = regexp.MustCompile(`(?is)^\s*WITH\b`)
	reFromJoin       = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([A-Za-z_][\w.]*)`)
)

// regexAnalyzer classifies statements by pattern scanning instead of
// parsing. It trades precision for resilience: any text yields an operation,
// so it serves as the recovery path when parsing fails and as a standalone
// strategy for hopeless scripts.
type regexAnalyzer struct {
	dialect *dialect.Dialect
}

func newRegexAnalyzer(d *dialect.Dialect) *regexAnalyzer {
	return &regexAnalyzer{dialect: d}
}

func (a *regexAnalyzer) Name() string { return "regex" }

func (a *regexAnalyzer) Analyze(seg Segment) (*Operation, []Warning, error) {
	op := &Operation{Kind: OpOther, Line: seg.Line, RawText: seg.SQL}
	sql := seg.SQL

	switch {
	case reCreateVolatile.MatchString(sql):
		op.Kind = OpCreateVolatile
		op.Target = refFromString(reCreateVolatile.FindStringSubmatch(sql)[1])
		op.Sources = a.scanSources(sql, op.Target)

	case reCreateView.MatchString(sql):
		op.Kind = OpCreateView
		op.Target = refFromString(reCreateView.FindStringSubmatch(sql)[1])
		op.Sources = a.scanSources(sql, op.Target)

	case reCreateTable.MatchString(sql):
		op.Kind = OpCreate
		op.Target = refFromString(reCreateTable.FindStringSubmatch(sql)[1])
		op.Sources = a.scanSources(sql, op.Target)

	case reMerge.MatchString(sql):
		op.Kind = OpMerge
		m := reMerge.FindStringSubmatch(sql)
		op.Target = refFromString(m[1])
		if m[2] != "" && ValidTableName(m[2]) {
			op.Sources = []TableRef{*refFromString(m[2])}
		} else {
			// USING (subquery): fall back to scanning its FROM clauses.
			op.Sources = a.scanSources(sql, op.Target)
		}

	case a.dialect.AllowsUpdateFromAlias() && reUpdateAlias.MatchString(sql):
		// UPDATE alias FROM real_table: the FROM table is the target and
		// reads itself.
		op.Kind = OpUpdate
		op.Target = refFromString(reUpdateAlias.FindStringSubmatch(sql)[2])
		op.Sources = append(a.scanSources(sql, nil), *op.Target)

	case reUpdate.MatchString(sql):
		op.Kind = OpUpdate
		op.Target = refFromString(reUpdate.FindStringSubmatch(sql)[1])
		op.Sources = append(a.scanSources(sql, op.Target), *op.Target)

	case reInsertInto.MatchString(sql):
		op.Kind = OpInsert
		op.Target = refFromString(reInsertInto.FindStringSubmatch(sql)[1])
		op.Sources = a.scanSources(sql, op.Target)

	case reDelete.MatchString(sql):
		op.Kind = OpDelete
		op.Target = refFromString(reDelete.FindStringSubmatch(sql)[1])
		op.Sources = a.scanSources(sql, op.Target)

	case reDrop.MatchString(sql):
		op.Kind = OpDrop
		op.Target = refFromString(reDrop.FindStringSubmatch(sql)[1])

	case reAlter.MatchString(sql):
		op.Kind = OpAlter
		op.Target = refFromString(reAlter.FindStringSubmatch(sql)[1])

	case reSelect.MatchString(sql), reWith.MatchString(sql):
		op.Kind = OpSelect
		op.Sources = a.scanSources(sql, nil)
	}

	op.Sources = filterValid(op.Sources)
	if op.Target != nil && !validRef(*op.Target) {
		op.Target = nil
	}
	return op, nil, nil
}

// scanSources collects FROM and JOIN table captures, validated and
// deduplicated in first-seen order. Occurrences of the statement target are
// skipped so DELETE FROM t does not read t.
func (a *regexAnalyzer) scanSources(sql string, target *TableRef) []TableRef {
	var refs []TableRef
	seen := make(map[string]struct{})
	for _, m := range reFromJoin.FindAllStringSubmatch(sql, -1) {
		name := m[1]
		if !ValidTableName(name) {
			continue
		}
		if target != nil && strings.EqualFold(name, target.Qualified()) {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		refs = append(refs, *refFromString(name))
	}
	return refs
}

// refFromString splits a dotted capture into schema and name parts.
func refFromString(name string) *TableRef {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return &TableRef{Schema: name[:idx], Name: name[idx+1:]}
	}
	return &TableRef{Name: name}
}
