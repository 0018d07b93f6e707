package dialect

// builtinTeradata is the Teradata dialect configuration, the default for
// batch scripts extracted from BTEQ sessions.
// This is registered automatically when the package is loaded.
var builtinTeradata = NewDialect("teradata").
	Identifiers(`"`, `"`, `""`, NormCaseInsensitive).
	VolatileTables().
	UpdateFromAlias().
	Abbreviations(map[string]string{
		// Teradata statement keyword shorthand
		"sel": "select",
		"ins": "insert",
		"upd": "update",
		"del": "delete",
	}).
	Build()

// builtinSpark is the Spark SQL dialect configuration.
var builtinSpark = NewDialect("spark").
	Identifiers("`", "`", "``", NormCaseInsensitive).
	Build()

// builtinSpark2 covers Spark 2.x scripts. Identifier and statement handling
// match spark; the name is kept distinct so scripts can pin the older engine.
var builtinSpark2 = NewDialect("spark2").
	Identifiers("`", "`", "``", NormCaseInsensitive).
	Build()

func init() {
	// Register the builtin dialects and set Teradata as default
	Register(builtinTeradata)
	Register(builtinSpark)
	Register(builtinSpark2)
	SetDefault(builtinTeradata)
}
