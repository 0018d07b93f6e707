package lineage

import (
	"regexp"
	"strings"
	"unicode"
)

// scanNoiseWords are words pattern scanning captures in table position that
// the reserved word reference does not carry: BTEQ statement abbreviations
// and clause tails like WITH DATA or PRESERVE ROWS.
var scanNoiseWords = []string{
	"SEL", "INS", "UPD", "DEL",
	"DATA", "PRESERVE", "CHARACTERS", "SUBSTR",
}

// sqlKeywords holds words that pattern scanning can capture in table
// position but that are never table names.
var sqlKeywords = buildKeywordSet()

func buildKeywordSet() map[string]struct{} {
	set := make(map[string]struct{}, len(reservedWords)+len(scanNoiseWords))
	for _, w := range reservedWords {
		set[w] = struct{}{}
	}
	for _, w := range scanNoiseWords {
		set[w] = struct{}{}
	}
	return set
}

// tableNameShape matches a dotted identifier chain of up to three parts.
// Two dots cover catalog-qualified Spark names.
var tableNameShape = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*){0,2}$`)

// ValidTableName reports whether name is plausible as a real table name.
// Besides structural checks it rejects SQL keywords and the single-letter
// names that are almost always dangling aliases, so that sloppy scripts do
// not leak noise into lineage results.
func ValidTableName(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	if strings.ContainsAny(name, " -,") {
		return false
	}

	upper := strings.ToUpper(name)
	if _, kw := sqlKeywords[upper]; kw {
		return false
	}
	if len(name) == 1 && upper[0] >= 'A' && upper[0] <= 'Z' {
		return false
	}
	if len(name) < 2 {
		return false
	}

	hasLetter := false
	for _, r := range name {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return false
	}

	return tableNameShape.MatchString(name)
}

// validRef reports whether the qualified form of a reference passes
// validation. Subquery-resolved references carry real table names and are
// checked the same way.
func validRef(ref TableRef) bool {
	return ValidTableName(ref.Qualified())
}
