// Package dialect provides SQL dialect configuration for the lexer, parser,
// and lineage analyzer.
//
// A Dialect is a pure value: identifier quoting rules, a case-normalization
// strategy, and feature flags for vendor grammar extensions (volatile tables,
// UPDATE ... FROM retargeting, statement-keyword abbreviations). Concrete
// dialects register themselves in init() via the package registry.
package dialect

import "strings"

// NormalizationStrategy controls how unquoted identifiers are folded.
type NormalizationStrategy int

const (
	// NormCaseInsensitive folds identifiers to lowercase for comparison.
	NormCaseInsensitive NormalizationStrategy = iota
	// NormUppercase folds identifiers to uppercase.
	NormUppercase
	// NormLowercase folds identifiers to lowercase.
	NormLowercase
	// NormCaseSensitive preserves identifiers exactly as written.
	NormCaseSensitive
)

// String returns the string representation of a NormalizationStrategy.
func (n NormalizationStrategy) String() string {
	switch n {
	case NormCaseInsensitive:
		return "case_insensitive"
	case NormUppercase:
		return "uppercase"
	case NormLowercase:
		return "lowercase"
	case NormCaseSensitive:
		return "case_sensitive"
	default:
		return "unknown"
	}
}

// IdentifierConfig describes how a dialect quotes and folds identifiers.
type IdentifierConfig struct {
	Quote         string // Opening quote, e.g. `"` or "`"
	QuoteEnd      string // Closing quote
	Escape        string // Escape sequence for the quote inside a quoted identifier
	Normalization NormalizationStrategy
}

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name        string
	Identifiers IdentifierConfig

	// Grammar feature flags
	volatileTables  bool              // CREATE VOLATILE TABLE (Teradata)
	updateFromAlias bool              // UPDATE alias FROM real_table (Teradata)
	abbreviations   map[string]string // statement keyword shorthand, e.g. "sel" -> "select"
}

// NormalizeName normalizes an identifier according to dialect rules.
// Quoted identifiers should be unquoted with Unquote before normalization.
func (d *Dialect) NormalizeName(name string) string {
	switch d.Identifiers.Normalization {
	case NormUppercase:
		return strings.ToUpper(name)
	case NormLowercase, NormCaseInsensitive:
		return strings.ToLower(name)
	default: // NormCaseSensitive
		return name
	}
}

// Unquote strips the dialect's identifier quotes and unescapes embedded
// quote characters. Unquoted input is returned unchanged.
func (d *Dialect) Unquote(name string) string {
	q, qe := d.Identifiers.Quote, d.Identifiers.QuoteEnd
	if q == "" || len(name) < len(q)+len(qe) {
		return name
	}
	if !strings.HasPrefix(name, q) || !strings.HasSuffix(name, qe) {
		return name
	}
	inner := name[len(q) : len(name)-len(qe)]
	if d.Identifiers.Escape != "" {
		inner = strings.ReplaceAll(inner, d.Identifiers.Escape, qe)
	}
	return inner
}

// AllowsVolatileTables reports whether the dialect supports
// CREATE VOLATILE TABLE (or an equivalent session-scoped temporary table).
func (d *Dialect) AllowsVolatileTables() bool {
	return d.volatileTables
}

// AllowsUpdateFromAlias reports whether UPDATE may name an alias that is
// bound to a real table by a following FROM clause.
func (d *Dialect) AllowsUpdateFromAlias() bool {
	return d.updateFromAlias
}

// ExpandAbbreviation maps a statement-keyword shorthand (already lowercased)
// to its full form. Returns the input and false when no abbreviation applies.
func (d *Dialect) ExpandAbbreviation(word string) (string, bool) {
	if full, ok := d.abbreviations[word]; ok {
		return full, true
	}
	return word, false
}

// GetName returns the dialect name.
func (d *Dialect) GetName() string {
	return d.Name
}

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
}

// NewDialect creates a new dialect builder with the given name.
func NewDialect(name string) *Builder {
	return &Builder{
		dialect: &Dialect{
			Name: name,
			Identifiers: IdentifierConfig{
				Quote:         `"`,
				QuoteEnd:      `"`,
				Escape:        `""`,
				Normalization: NormCaseInsensitive,
			},
			abbreviations: make(map[string]string),
		},
	}
}

// Identifiers configures identifier quoting and normalization.
func (b *Builder) Identifiers(quote, quoteEnd, escape string, norm NormalizationStrategy) *Builder {
	b.dialect.Identifiers = IdentifierConfig{
		Quote:         quote,
		QuoteEnd:      quoteEnd,
		Escape:        escape,
		Normalization: norm,
	}
	return b
}

// VolatileTables enables CREATE VOLATILE TABLE support.
func (b *Builder) VolatileTables() *Builder {
	b.dialect.volatileTables = true
	return b
}

// UpdateFromAlias enables the UPDATE alias FROM real_table grammar form.
func (b *Builder) UpdateFromAlias() *Builder {
	b.dialect.updateFromAlias = true
	return b
}

// Abbreviations registers statement-keyword shorthand forms.
// Keys and values must be lowercase.
func (b *Builder) Abbreviations(abbrevs map[string]string) *Builder {
	for k, v := range abbrevs {
		b.dialect.abbreviations[k] = v
	}
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	return b.dialect
}
