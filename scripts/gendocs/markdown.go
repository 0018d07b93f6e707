package main

import (
	"fmt"
	"strings"
)

// MarkdownWriter builds a markdown document section by section.
type MarkdownWriter struct {
	sb strings.Builder
}

// NewMarkdownWriter creates an empty markdown document.
func NewMarkdownWriter() *MarkdownWriter {
	return &MarkdownWriter{}
}

// Frontmatter writes a YAML frontmatter block with title and description.
func (w *MarkdownWriter) Frontmatter(title, description string) {
	w.sb.WriteString("---\n")
	fmt.Fprintf(&w.sb, "title: %s\n", title)
	fmt.Fprintf(&w.sb, "description: %s\n", description)
	w.sb.WriteString("---\n\n")
}

// GeneratedMarker writes a comment telling readers not to edit by hand.
func (w *MarkdownWriter) GeneratedMarker() {
	w.sb.WriteString("<!-- Code generated by scripts/gendocs. DO NOT EDIT. -->\n\n")
}

// Header writes a markdown header at the given level.
func (w *MarkdownWriter) Header(level int, text string) {
	fmt.Fprintf(&w.sb, "%s %s\n\n", strings.Repeat("#", level), text)
}

// Paragraph writes a paragraph followed by a blank line.
func (w *MarkdownWriter) Paragraph(text string) {
	w.sb.WriteString(text)
	w.sb.WriteString("\n\n")
}

// CodeBlock writes a fenced code block with a language tag.
func (w *MarkdownWriter) CodeBlock(lang, code string) {
	fmt.Fprintf(&w.sb, "```%s\n%s\n```\n\n", lang, strings.TrimRight(code, "\n"))
}

// Table writes a markdown table. Cell text must already be escaped.
func (w *MarkdownWriter) Table(headers []string, rows [][]string) {
	w.sb.WriteString("| " + strings.Join(headers, " | ") + " |\n")

	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}
	w.sb.WriteString("| " + strings.Join(sep, " | ") + " |\n")

	for _, row := range rows {
		w.sb.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	w.sb.WriteString("\n")
}

// BulletList writes one bullet per item.
func (w *MarkdownWriter) BulletList(items []string) {
	for _, item := range items {
		fmt.Fprintf(&w.sb, "- %s\n", item)
	}
	w.sb.WriteString("\n")
}

// Bytes returns the document built so far.
func (w *MarkdownWriter) Bytes() []byte {
	return []byte(w.sb.String())
}

// InlineCode wraps text in backticks.
func InlineCode(s string) string {
	return "`" + s + "`"
}

// cleanDescription makes free-form help text safe for a table cell: one
// line, pipes escaped, first letter capitalized.
func cleanDescription(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
