// Package loader discovers SQL and BTEQ scripts on disk and prepares them
// for lineage analysis. Shell wrappers (.ksh, .sh) are routed through the
// bteq package so only their heredoc bodies reach the analyzer, and an
// optional frontmatter block can override analysis settings per script.
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tracelight-labs/tracelight/pkg/bteq"
)

// scriptExtensions lists the file types the loader picks up during discovery.
var scriptExtensions = map[string]bool{
	".sql":  true,
	".bteq": true,
	".ksh":  true,
	".sh":   true,
}

// shellExtensions marks wrapper scripts whose SQL lives inside bteq heredocs.
var shellExtensions = map[string]bool{
	".ksh": true,
	".sh":  true,
}

// Script is one analyzable unit of work.
type Script struct {
	// Path is the file path as discovered.
	Path string

	// Name identifies the script in reports. It defaults to the file stem
	// and can be overridden by a name directive.
	Name string

	// SQL is the script text to analyze when Blocks is empty. Frontmatter
	// is blanked in place so statement line numbers still match the file.
	SQL string

	// Blocks holds bteq heredoc bodies with their original line numbers.
	// When non-empty, analysis should go block by block instead of
	// through SQL.
	Blocks []bteq.Block

	// Directives are the per-script overrides from the frontmatter block.
	Directives Directives
}

// Loader reads script files and applies frontmatter directives.
type Loader struct{}

// New creates a Loader.
func New() *Loader {
	return &Loader{}
}

// Load reads and prepares a single script file.
func (l *Loader) Load(path string) (*Script, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	script, err := l.Parse(path, string(raw))
	if err != nil {
		return nil, err
	}
	return script, nil
}

// Parse prepares script content that has already been read. The path is
// used for naming and error context only.
func (l *Loader) Parse(path, content string) (*Script, error) {
	script := &Script{
		Path: path,
		Name: stem(path),
	}

	fm, err := extractFrontmatter(content)
	if err != nil {
		return nil, decorate(err, path)
	}
	script.Directives = fm.Directives
	if fm.Directives.Name != "" {
		script.Name = fm.Directives.Name
	}

	body := fm.SQL
	if blocks := bteq.ExtractHeredocs(body); len(blocks) > 0 {
		script.Blocks = blocks
		parts := make([]string, len(blocks))
		for i, b := range blocks {
			parts[i] = b.SQL
		}
		script.SQL = strings.Join(parts, "\n")
	} else if shellExtensions[strings.ToLower(filepath.Ext(path))] {
		// A wrapper script with no embedded bteq carries no SQL.
		script.SQL = ""
	} else {
		script.SQL = body
	}
	return script, nil
}

// IsScript reports whether the path has a loadable script extension.
func IsScript(path string) bool {
	return scriptExtensions[strings.ToLower(filepath.Ext(path))]
}

// Discover walks root and returns the paths of all loadable scripts in
// lexical order. Hidden files and directories are skipped.
func (l *Loader) Discover(root string) ([]string, error) {
	var paths []string

	err := filepath.Walk(root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") {
			return nil
		}
		if !IsScript(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return paths, nil
}

// LoadDir discovers and loads every script under root, failing on the
// first unreadable or malformed file. Callers that need per-script error
// isolation should combine Discover and Load themselves.
func (l *Loader) LoadDir(root string) ([]*Script, error) {
	paths, err := l.Discover(root)
	if err != nil {
		return nil, err
	}

	scripts := make([]*Script, 0, len(paths))
	for _, path := range paths {
		script, err := l.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		scripts = append(scripts, script)
	}
	return scripts, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func decorate(err error, path string) error {
	switch e := err.(type) {
	case *DirectiveError:
		e.File = path
	case *UnknownDirectiveError:
		e.File = path
	}
	return err
}
