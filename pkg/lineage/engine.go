package lineage

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tracelight-labs/tracelight/pkg/bteq"
	"github.com/tracelight-labs/tracelight/pkg/dialect"
	"github.com/tracelight-labs/tracelight/pkg/sqlparser"
)

// Strategy selects how statements are turned into operations.
type Strategy int

const (
	// StrategyAuto parses each statement and falls back to pattern analysis
	// for statements the parser rejects.
	StrategyAuto Strategy = iota
	// StrategyParser uses the parser alone. Rejected statements are skipped
	// with a warning.
	StrategyParser
	// StrategyRegex uses pattern analysis alone.
	StrategyRegex
)

func (s Strategy) String() string {
	switch s {
	case StrategyAuto:
		return "auto"
	case StrategyParser:
		return "parser"
	case StrategyRegex:
		return "regex"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy converts a flag value into a Strategy. The empty string
// selects StrategyAuto.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return StrategyAuto, nil
	case "parser":
		return StrategyParser, nil
	case "regex":
		return StrategyRegex, nil
	}
	return StrategyAuto, fmt.Errorf("unknown strategy %q (known: auto, parser, regex)", s)
}

// NormalizeMode controls how table name case is folded before aggregation.
// Folding applies to schema and table names only; aliases keep their source
// spelling.
type NormalizeMode int

const (
	// NormalizeInherit folds names the way the dialect resolves them. This
	// is the default: two spellings of one table collapse exactly when the
	// database would treat them as the same object.
	NormalizeInherit NormalizeMode = iota
	// NormalizePreserve keeps names exactly as written.
	NormalizePreserve
	// NormalizeUpper folds names to upper case.
	NormalizeUpper
	// NormalizeLower folds names to lower case.
	NormalizeLower
)

func (n NormalizeMode) String() string {
	switch n {
	case NormalizeInherit:
		return "inherit"
	case NormalizePreserve:
		return "preserve"
	case NormalizeUpper:
		return "upper"
	case NormalizeLower:
		return "lower"
	}
	return fmt.Sprintf("NormalizeMode(%d)", int(n))
}

// ParseNormalizeMode converts a flag value into a NormalizeMode. The empty
// string selects NormalizeInherit.
func ParseNormalizeMode(s string) (NormalizeMode, error) {
	switch strings.ToLower(s) {
	case "", "inherit":
		return NormalizeInherit, nil
	case "preserve":
		return NormalizePreserve, nil
	case "upper":
		return NormalizeUpper, nil
	case "lower":
		return NormalizeLower, nil
	}
	return NormalizeInherit, fmt.Errorf("unknown normalize mode %q (known: inherit, preserve, upper, lower)", s)
}

// DefaultMaxDepth bounds subquery recursion during source resolution.
const DefaultMaxDepth = 200

// ErrNoStatements is returned when a script contains no SQL statements
// after comments and BTEQ control lines are removed.
var ErrNoStatements = errors.New("no statements found in script")

// Options configure an Engine. The zero value selects the default dialect,
// automatic strategy, dialect-inherited normalization and a discard logger.
type Options struct {
	// Dialect names the SQL dialect (empty for the registry default).
	Dialect string
	// Strategy selects parser, regex or automatic analysis.
	Strategy Strategy
	// Normalize controls table name case folding.
	Normalize NormalizeMode
	// MaxDepth bounds subquery recursion (0 for DefaultMaxDepth).
	MaxDepth int
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Engine extracts lineage from scripts under a fixed dialect and strategy.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	dialect   *dialect.Dialect
	strategy  Strategy
	normalize NormalizeMode
	logger    *slog.Logger

	parser Analyzer
	regex  Analyzer
}

// New builds an engine from options.
func New(opts Options) (*Engine, error) {
	var d *dialect.Dialect
	if opts.Dialect == "" {
		d = dialect.Default()
	} else {
		var err error
		d, err = dialect.MustGet(opts.Dialect)
		if err != nil {
			return nil, err
		}
	}

	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Engine{
		dialect:   d,
		strategy:  opts.Strategy,
		normalize: opts.Normalize,
		logger:    logger,
		parser:    newParserAnalyzer(d, maxDepth),
		regex:     newRegexAnalyzer(d),
	}, nil
}

// Dialect returns the dialect the engine analyzes under.
func (e *Engine) Dialect() *dialect.Dialect { return e.dialect }

// AnalyzeScript extracts lineage from a SQL or BTEQ script. Control lines
// are blanked before segmentation, so reported line numbers match the input
// text. The only fatal condition is a script with no statements at all;
// every other problem degrades to a warning on the result.
func (e *Engine) AnalyzeScript(script string) (*Result, error) {
	ops, warns, n := e.analyzeText(script, 0)
	if n == 0 {
		return nil, ErrNoStatements
	}
	res := Aggregate(ops, warns)
	res.StatementCount = n
	e.logger.Info("script analyzed",
		"dialect", e.dialect.Name,
		"statements", n,
		"sources", len(res.SourceTables),
		"targets", len(res.TargetTables),
		"warnings", len(res.Warnings))
	return res, nil
}

// AnalyzeBlocks analyzes SQL blocks lifted out of a shell wrapper and merges
// them into a single result. Line numbers are reported in the coordinates of
// the enclosing file.
func (e *Engine) AnalyzeBlocks(blocks []bteq.Block) (*Result, error) {
	var (
		ops   []Operation
		warns []Warning
		total int
	)
	for _, b := range blocks {
		o, w, n := e.analyzeText(b.SQL, b.Line-1)
		ops = append(ops, o...)
		warns = append(warns, w...)
		total += n
	}
	if total == 0 {
		return nil, ErrNoStatements
	}
	res := Aggregate(ops, warns)
	res.StatementCount = total
	e.logger.Info("blocks analyzed",
		"dialect", e.dialect.Name,
		"blocks", len(blocks),
		"statements", total,
		"warnings", len(res.Warnings))
	return res, nil
}

// AnalyzeStatement analyzes a single statement, for interactive use. Inputs
// holding several statements return the first operation. A nil operation
// with a nil error means the statement was skipped; the warnings say why.
func (e *Engine) AnalyzeStatement(sql string) (*Operation, []Warning, error) {
	ops, warns, n := e.analyzeText(sql, 0)
	if n == 0 {
		return nil, warns, ErrNoStatements
	}
	if len(ops) == 0 {
		return nil, warns, nil
	}
	return &ops[0], warns, nil
}

// analyzeText cleans, segments and analyzes one stretch of SQL. offset is
// added to every line number, for SQL embedded mid-file. The segment count
// comes back so callers can tell an empty script from one whose statements
// all failed.
func (e *Engine) analyzeText(text string, offset int) ([]Operation, []Warning, int) {
	segs := SplitStatements(bteq.StripCommands(text))

	var (
		ops   []Operation
		warns []Warning
	)
	for _, seg := range segs {
		seg.Line += offset
		op, w := e.analyzeSegment(seg)
		warns = append(warns, w...)
		if op != nil {
			e.normalizeOp(op)
			ops = append(ops, *op)
		}
	}
	return ops, warns, len(segs)
}

// analyzeSegment dispatches one statement according to the strategy. It
// never fails: parser rejections either fall back to pattern analysis or
// turn into warnings.
func (e *Engine) analyzeSegment(seg Segment) (*Operation, []Warning) {
	switch e.strategy {
	case StrategyRegex:
		op, warns, _ := e.regex.Analyze(seg)
		return op, warns

	case StrategyParser:
		op, warns, err := e.parser.Analyze(seg)
		if err != nil {
			warns = append(warns, Warning{
				Line:    errorLine(seg, err),
				Message: fmt.Sprintf("statement skipped: %s", errorDetail(err)),
			})
			e.logger.Debug("statement skipped", "line", seg.Line, "error", err)
			return nil, warns
		}
		return op, warns

	default:
		op, warns, err := e.parser.Analyze(seg)
		if err == nil {
			return op, warns
		}
		warns = append(warns, Warning{
			Line:    errorLine(seg, err),
			Message: fmt.Sprintf("statement parse failed (%s); recovered with pattern analysis", errorDetail(err)),
		})
		e.logger.Debug("parser rejected statement, using pattern analysis",
			"line", seg.Line, "error", err)
		op, rwarns, _ := e.regex.Analyze(seg)
		return op, append(warns, rwarns...)
	}
}

// normalizeOp folds table name case according to the engine's mode.
func (e *Engine) normalizeOp(op *Operation) {
	fold := e.foldFunc()
	if fold == nil {
		return
	}
	if op.Target != nil {
		op.Target.Schema = fold(op.Target.Schema)
		op.Target.Name = fold(op.Target.Name)
	}
	for i := range op.Sources {
		op.Sources[i].Schema = fold(op.Sources[i].Schema)
		op.Sources[i].Name = fold(op.Sources[i].Name)
	}
}

func (e *Engine) foldFunc() func(string) string {
	switch e.normalize {
	case NormalizePreserve:
		return nil
	case NormalizeUpper:
		return strings.ToUpper
	case NormalizeLower:
		return strings.ToLower
	default:
		return e.dialect.NormalizeName
	}
}

// errorLine maps a parser error position into file coordinates. Statements
// start at seg.Line, so a parser line is an offset within the statement.
func errorLine(seg Segment, err error) int {
	var pe *sqlparser.ParseError
	if errors.As(err, &pe) && pe.Pos.Line > 0 {
		return seg.Line + pe.Pos.Line - 1
	}
	return seg.Line
}

// errorDetail strips the position prefix from parser errors. The warning
// carries the absolute line itself; repeating a statement-relative position
// inside the message would only mislead.
func errorDetail(err error) string {
	var pe *sqlparser.ParseError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}
