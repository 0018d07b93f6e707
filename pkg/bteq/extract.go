// Package bteq handles Teradata BTEQ script conventions: dot commands,
// session control statements, and SQL embedded in shell heredocs. It works
// on raw text so the lineage engine can clean a script before segmenting it.
package bteq

import (
	"regexp"
	"strings"
)

// Block is one SQL body pulled out of a shell heredoc. Line is the 1-based
// line in the original file where the SQL begins.
type Block struct {
	SQL  string
	Line int
}

var (
	// bteq <<EOF ... EOF with optional quotes around the delimiter.
	heredocRe = regexp.MustCompile(`(?is)bteq\s*<<\s*['"]?EOF['"]?\s*\n(.*?)\nEOF`)

	// Statements BTEQ accepts without a leading dot.
	bareCommandRe = regexp.MustCompile(`(?i)^\s*(?:BT|ET|SLEEP\b[^;]*)\s*;?\s*$`)
)

// ExtractHeredocs returns the SQL bodies of every `bteq <<EOF` heredoc in a
// shell script. Scripts without heredocs return nil; callers usually fall
// back to treating the whole input as SQL.
func ExtractHeredocs(text string) []Block {
	matches := heredocRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	blocks := make([]Block, 0, len(matches))
	for _, m := range matches {
		start, end := m[2], m[3]
		blocks = append(blocks, Block{
			SQL:  text[start:end],
			Line: strings.Count(text[:start], "\n") + 1,
		})
	}
	return blocks
}

// StripCommands blanks BTEQ control lines out of a script while preserving
// its line layout, so statement line numbers survive the cleanup. Dot
// commands (.LOGON, .IF ERRORCODE, .QUIT and the rest) are recognized by
// their leading dot; BT, ET and SLEEP are blanked by name since BTEQ takes
// them without one.
func StripCommands(script string) string {
	lines := strings.Split(script, "\n")
	for i, line := range lines {
		if isControlLine(line) {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

func isControlLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, ".") || bareCommandRe.MatchString(line)
}

// IsBTEQScript reports whether content carries BTEQ batch markers: a bteq
// heredoc, dot commands, or bare session-control statements.
func IsBTEQScript(content string) bool {
	if heredocRe.MatchString(content) {
		return true
	}
	for _, line := range strings.Split(content, "\n") {
		if isControlLine(line) {
			return true
		}
	}
	return false
}

// ExtractResult is the outcome of lifting SQL out of a batch script.
type ExtractResult struct {
	SQL     string   // cleaned SQL ready for handoff
	Blocks  int      // heredoc blocks found, 0 when the input was taken whole
	Skipped []string // control lines removed, logon credentials scrubbed
}

// Extract pulls analyzable SQL out of a batch script. Heredoc bodies are
// joined when present, otherwise the whole input is taken as SQL; control
// lines are removed and reported. Plain SQL comes back unchanged.
func Extract(script string) *ExtractResult {
	res := &ExtractResult{}

	text := script
	if blocks := ExtractHeredocs(script); len(blocks) > 0 {
		res.Blocks = len(blocks)
		parts := make([]string, len(blocks))
		for i, b := range blocks {
			parts[i] = b.SQL
		}
		text = strings.Join(parts, "\n")
	}

	var keep []string
	for _, line := range strings.Split(text, "\n") {
		if !isControlLine(line) {
			keep = append(keep, line)
			continue
		}
		trimmed := strings.TrimSpace(line)
		if len(trimmed) >= 6 && strings.EqualFold(trimmed[:6], ".LOGON") {
			// Logon lines carry credentials; record the command alone.
			trimmed = ".LOGON"
		}
		res.Skipped = append(res.Skipped, trimmed)
	}
	res.SQL = strings.Join(keep, "\n")
	return res
}
