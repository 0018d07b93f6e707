// Package main provides a web scraper that extracts SQL reserved words from
// a public reference table and generates the keyword table for the lineage
// package. Pattern scanning uses the table to reject captures that can never
// be table names.
//
// Usage:
//
//	go run ./scripts/genkeywords -out=pkg/lineage/keywords_gen.go
//	go run ./scripts/genkeywords -column=Teradata -min=80
//
// The reference page carries one big table: a keyword per row, one column
// per SQL implementation, each cell saying whether the word is reserved
// there. Only words marked reserved in the selected column are emitted.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"go/format"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const defaultURL = "https://en.wikipedia.org/wiki/List_of_SQL_reserved_words"

var (
	urlFlag    = flag.String("url", defaultURL, "reserved words reference page")
	columnFlag = flag.String("column", "Teradata", "implementation column to read")
	outFlag    = flag.String("out", "pkg/lineage/keywords_gen.go", "output file path")
	minFlag    = flag.Int("min", 80, "fail when fewer words are found")
)

func main() {
	flag.Parse()

	log.Printf("Fetching reserved words from %s", *urlFlag)
	body, err := fetchURL(*urlFlag)
	if err != nil {
		log.Fatalf("failed to fetch reference page: %v", err)
	}

	words, err := parseReservedWords(body, *columnFlag)
	if err != nil {
		log.Fatalf("failed to parse reference page: %v", err)
	}
	if len(words) < *minFlag {
		log.Fatalf("only %d reserved words found, expected at least %d; page layout may have changed", len(words), *minFlag)
	}
	log.Printf("Extracted %d reserved words for %s", len(words), *columnFlag)

	code := generateKeywordsCode(words)
	writeFormattedCode(*outFlag, code)
}

func fetchURL(url string) ([]byte, error) {
	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	req, err := http.NewRequestWithContext(context.Background(), "GET", url, nil)
	if err != nil {
		return nil, err
	}

	// Set headers to appear as a browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Tracelight/1.0; +https://github.com/tracelight-labs/tracelight)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// keywordShape keeps plain identifiers and drops footnote markers, ranges
// and compound entries the reference table mixes in.
var keywordShape = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

func parseReservedWords(body []byte, column string) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var words []string

	var walkTables func(*html.Node)
	walkTables = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			if w := parseTable(n, column); len(w) > 0 {
				for _, word := range w {
					if !seen[word] {
						seen[word] = true
						words = append(words, word)
					}
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walkTables(c)
		}
	}
	walkTables(doc)

	if len(words) == 0 {
		return nil, fmt.Errorf("no table with a %q column found", column)
	}
	sort.Strings(words)
	return words, nil
}

// parseTable reads one table. The first row names the implementations; each
// later row is a keyword followed by its status per implementation. Returns
// nil when the wanted column is missing, so the caller can try other tables.
func parseTable(table *html.Node, column string) []string {
	rows := collectRows(table)
	if len(rows) < 2 {
		return nil
	}

	colIdx := -1
	for i, cell := range cellsOf(rows[0]) {
		if strings.EqualFold(strings.TrimSpace(nodeText(cell)), column) {
			colIdx = i
			break
		}
	}
	if colIdx < 1 {
		return nil
	}

	var words []string
	for _, row := range rows[1:] {
		cells := cellsOf(row)
		if len(cells) <= colIdx {
			continue
		}
		status := strings.ToLower(strings.TrimSpace(nodeText(cells[colIdx])))
		if !strings.HasPrefix(status, "reserved") {
			continue
		}
		word := strings.ToUpper(strings.TrimSpace(nodeText(cells[0])))
		if keywordShape.MatchString(word) {
			words = append(words, word)
		}
	}
	return words
}

func collectRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			rows = append(rows, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return rows
}

func cellsOf(tr *html.Node) []*html.Node {
	var cells []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, c)
		}
	}
	return cells
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func generateKeywordsCode(words []string) string {
	var buf bytes.Buffer

	buf.WriteString("// Code generated by scripts/genkeywords. DO NOT EDIT.\n")
	fmt.Fprintf(&buf, "// Source: %s\n", *urlFlag)
	fmt.Fprintf(&buf, "// Generated: %s\n\n", time.Now().Format("2006-01-02"))
	buf.WriteString("package lineage\n\n")

	fmt.Fprintf(&buf, "// reservedWords lists words reserved in %s or the SQL standard.\n", *columnFlag)
	buf.WriteString("// Pattern scanning treats them as never being table names.\n")
	buf.WriteString("var reservedWords = []string{\n")
	writeStringSlice(&buf, words)
	buf.WriteString("}\n")

	return buf.String()
}

func writeStringSlice(buf *bytes.Buffer, items []string) {
	const itemsPerLine = 5
	for i, item := range items {
		if i%itemsPerLine == 0 {
			buf.WriteString("\t")
		}
		fmt.Fprintf(buf, "%q, ", item)
		if (i+1)%itemsPerLine == 0 {
			buf.WriteString("\n")
		}
	}
	if len(items)%itemsPerLine != 0 {
		buf.WriteString("\n")
	}
}

func writeFormattedCode(outPath, code string) {
	formatted, err := format.Source([]byte(code))
	if err != nil {
		log.Printf("Warning: failed to format generated code: %v", err)
		formatted = []byte(code)
	}

	if err := os.WriteFile(outPath, formatted, 0o600); err != nil {
		log.Fatalf("failed to write output: %v", err)
	}

	log.Printf("Generated %s", outPath)
}
