package lineage

import "strings"

// Segment is one statement cut out of a script.
type Segment struct {
	SQL  string // statement text with comments stripped
	Line int    // 1-based line of the statement's first character in the script
}

// SplitStatements strips comments and splits the script into statements on
// semicolons at parenthesis depth zero. Semicolons inside parentheses,
// string literals and quoted identifiers do not split. A trailing fragment
// without a terminating semicolon is emitted as a statement of its own.
func SplitStatements(script string) []Segment {
	stripped := StripComments(script)

	var segs []Segment
	depth := 0
	start := 0

	var inString, inQuoted, inBacktick bool
	for i := 0; i < len(stripped); i++ {
		ch := stripped[i]
		switch {
		case inString:
			if ch == '\'' {
				if i+1 < len(stripped) && stripped[i+1] == '\'' {
					i++
				} else {
					inString = false
				}
			}
		case inQuoted:
			if ch == '"' {
				if i+1 < len(stripped) && stripped[i+1] == '"' {
					i++
				} else {
					inQuoted = false
				}
			}
		case inBacktick:
			if ch == '`' {
				inBacktick = false
			}
		case ch == '\'':
			inString = true
		case ch == '"':
			inQuoted = true
		case ch == '`':
			inBacktick = true
		case ch == '(':
			depth++
		case ch == ')':
			if depth > 0 {
				depth--
			}
		case ch == ';' && depth == 0:
			segs = appendSegment(segs, stripped, start, i)
			start = i + 1
		}
	}
	return appendSegment(segs, stripped, start, len(stripped))
}

// appendSegment adds the span [start, end) as a segment unless it is blank.
// The line number is that of the first non-whitespace character.
func appendSegment(segs []Segment, text string, start, end int) []Segment {
	span := text[start:end]
	trimmed := strings.TrimSpace(span)
	if trimmed == "" {
		return segs
	}
	lead := start + (len(span) - len(strings.TrimLeft(span, " \t\r\n")))
	line := strings.Count(text[:lead], "\n") + 1
	return append(segs, Segment{SQL: trimmed, Line: line})
}

// StripComments blanks out SQL comments while preserving the byte layout of
// the input. Every comment character becomes a space and newlines survive,
// so offsets and line numbers computed on the output hold for the original.
// Comment markers inside string literals and quoted identifiers are left
// alone.
func StripComments(sql string) string {
	out := []byte(sql)

	const (
		stateCode = iota
		stateString
		stateQuoted
		stateBacktick
		stateLineComment
		stateBlockComment
	)
	state := stateCode

	for i := 0; i < len(out); i++ {
		ch := out[i]
		switch state {
		case stateCode:
			switch {
			case ch == '\'':
				state = stateString
			case ch == '"':
				state = stateQuoted
			case ch == '`':
				state = stateBacktick
			case ch == '-' && i+1 < len(out) && out[i+1] == '-':
				state = stateLineComment
				out[i] = ' '
			case ch == '/' && i+1 < len(out) && out[i+1] == '*':
				state = stateBlockComment
				out[i] = ' '
			}
		case stateString:
			if ch == '\'' {
				if i+1 < len(out) && out[i+1] == '\'' {
					i++
				} else {
					state = stateCode
				}
			}
		case stateQuoted:
			if ch == '"' {
				if i+1 < len(out) && out[i+1] == '"' {
					i++
				} else {
					state = stateCode
				}
			}
		case stateBacktick:
			if ch == '`' {
				state = stateCode
			}
		case stateLineComment:
			if ch == '\n' {
				state = stateCode
			} else {
				out[i] = ' '
			}
		case stateBlockComment:
			if ch == '*' && i+1 < len(out) && out[i+1] == '/' {
				out[i] = ' '
				out[i+1] = ' '
				i++
				state = stateCode
			} else if ch != '\n' {
				out[i] = ' '
			}
		}
	}
	return string(out)
}
