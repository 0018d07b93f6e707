package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/tracelight-labs/tracelight/internal/config"
	"github.com/tracelight-labs/tracelight/internal/report"
	"github.com/tracelight-labs/tracelight/pkg/dialect"
	"github.com/tracelight-labs/tracelight/pkg/lineage"
)

// replSession holds the mutable analysis settings of one REPL.
type replSession struct {
	engine    *lineage.Engine
	strategy  lineage.Strategy
	normalize lineage.NormalizeMode
	format    string
}

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Analyze statements interactively",
		Long: `Start an interactive session. Each statement you finish with a
semicolon is analyzed immediately, showing the classified operation,
its target and the tables it reads.

Dot-commands switch settings mid-session: .dialect, .strategy and
.format. Type .help inside the session for details.`,
		Example: `  # Start a session
  tracelight repl

  # Start under a specific dialect
  tracelight repl --dialect spark`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd)
		},
	}
}

func runREPL(cmd *cobra.Command) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	strategy, err := lineage.ParseStrategy(cfg.Strategy)
	if err != nil {
		return err
	}
	normalize, err := lineage.ParseNormalizeMode(cfg.Normalize)
	if err != nil {
		return err
	}

	sess := &replSession{strategy: strategy, normalize: normalize, format: cfg.Format}
	switch sess.format {
	case "table", "json", "yaml":
	default:
		sess.format = "table"
	}
	if err := sess.rebuild(cfg.Dialect, logger); err != nil {
		return err
	}

	// Keep the statement history beside the state database.
	historyFile := ""
	if dir := filepath.Dir(cfg.StatePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err == nil {
			historyFile = filepath.Join(dir, "repl_history")
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "tracelight> ",
		HistoryFile:     historyFile,
		AutoComplete:    newReplCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Tracelight REPL (dialect: %s, strategy: %s)\n",
		sess.engine.Dialect().Name, sess.strategy)
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	var multiLineBuffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			multiLineBuffer.Reset()
			rl.SetPrompt("tracelight> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if handled := sess.handleDotCommand(cmd, line, logger); handled {
				if line == ".quit" || line == ".exit" {
					break
				}
				continue
			}
		}

		// Accumulate multi-line SQL until semicolon
		multiLineBuffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			multiLineBuffer.WriteString(" ")
			rl.SetPrompt("       ...> ")
			continue
		}
		rl.SetPrompt("tracelight> ")

		stmt := multiLineBuffer.String()
		multiLineBuffer.Reset()

		if err := sess.analyzeOne(out, stmt); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(out)
	}

	return nil
}

// rebuild swaps the engine after a settings change. dialectName may be
// empty for the registry default.
func (s *replSession) rebuild(dialectName string, logger *slog.Logger) error {
	eng, err := lineage.New(lineage.Options{
		Dialect:   dialectName,
		Strategy:  s.strategy,
		Normalize: s.normalize,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	s.engine = eng
	return nil
}

// analyzeOne runs a single statement and renders its lineage.
func (s *replSession) analyzeOne(w io.Writer, stmt string) error {
	op, warns, err := s.engine.AnalyzeStatement(stmt)
	if errors.Is(err, lineage.ErrNoStatements) {
		fmt.Fprintln(w, "No SQL in input")
		return nil
	}
	if err != nil {
		return err
	}

	if op == nil {
		fmt.Fprintln(w, "Statement skipped")
		printReplWarnings(w, warns)
		return nil
	}

	switch s.format {
	case "json":
		if err := report.WriteJSON(w, op); err != nil {
			return err
		}
	case "yaml":
		if err := report.WriteYAML(w, op); err != nil {
			return err
		}
	default:
		fmt.Fprintf(w, "operation  %s\n", op.Kind)
		if op.Target != nil {
			target := op.Target.Qualified()
			if op.Kind == lineage.OpCreateVolatile {
				target += " (volatile)"
			}
			fmt.Fprintf(w, "target     %s\n", target)
		}
		if len(op.Sources) > 0 {
			names := make([]string, 0, len(op.Sources))
			for _, src := range op.Sources {
				names = append(names, src.Qualified())
			}
			fmt.Fprintf(w, "sources    %s\n", strings.Join(names, ", "))
		}
	}

	printReplWarnings(w, warns)
	return nil
}

func printReplWarnings(w io.Writer, warns []lineage.Warning) {
	for _, warn := range warns {
		fmt.Fprintf(w, "warning    %s\n", warn.Message)
	}
}

func (s *replSession) handleDotCommand(cmd *cobra.Command, line string, logger *slog.Logger) bool {
	out := cmd.OutOrStdout()
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printReplHelp(out)
		return true

	case ".dialect":
		if len(parts) < 2 {
			fmt.Fprintf(out, "dialect: %s (available: %s)\n",
				s.engine.Dialect().Name, strings.Join(dialect.List(), ", "))
			return true
		}
		if err := s.rebuild(parts[1], logger); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return true
		}
		fmt.Fprintf(out, "dialect set to %s\n", s.engine.Dialect().Name)
		return true

	case ".strategy":
		if len(parts) < 2 {
			fmt.Fprintf(out, "strategy: %s\n", s.strategy)
			return true
		}
		strategy, err := lineage.ParseStrategy(parts[1])
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return true
		}
		s.strategy = strategy
		if err := s.rebuild(s.engine.Dialect().Name, logger); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return true
		}
		fmt.Fprintf(out, "strategy set to %s\n", s.strategy)
		return true

	case ".format":
		if len(parts) < 2 {
			fmt.Fprintf(out, "format: %s\n", s.format)
			return true
		}
		switch parts[1] {
		case "table", "json", "yaml":
			s.format = parts[1]
			fmt.Fprintf(out, "format set to %s\n", s.format)
		default:
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: unknown format %q (known: table, json, yaml)\n", parts[1])
		}
		return true

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", command)
		return true
	}
}

func printReplHelp(w io.Writer) {
	help := `
Commands:
  .help             Show this help message
  .dialect [name]   Show or switch the SQL dialect
  .strategy [name]  Show or switch the analysis strategy (auto, parser, regex)
  .format [name]    Show or switch the output format (table, json, yaml)
  .quit / .exit     Exit the REPL

Tips:
  - Statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - BTEQ dot commands and session control lines are skipped, not errors
`
	_, _ = fmt.Fprintln(w, help)
}

// newReplCompleter builds completion for dot-commands and statement openers.
func newReplCompleter() *readline.PrefixCompleter {
	dialectItems := make([]readline.PrefixCompleterInterface, 0, len(dialect.List()))
	for _, name := range dialect.List() {
		dialectItems = append(dialectItems, readline.PcItem(name))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".dialect", dialectItems...),
		readline.PcItem(".strategy",
			readline.PcItem("auto"),
			readline.PcItem("parser"),
			readline.PcItem("regex"),
		),
		readline.PcItem(".format",
			readline.PcItem("table"),
			readline.PcItem("json"),
			readline.PcItem("yaml"),
		),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
		readline.PcItem("SELECT"),
		readline.PcItem("INSERT INTO"),
		readline.PcItem("UPDATE"),
		readline.PcItem("DELETE FROM"),
		readline.PcItem("CREATE TABLE"),
		readline.PcItem("CREATE VOLATILE TABLE"),
		readline.PcItem("MERGE INTO"),
	)
}
