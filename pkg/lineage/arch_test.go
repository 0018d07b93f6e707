package lineage_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestLineageImportsOnly verifies pkg/lineage only imports allowed packages.
// The Golden Rule: pkg/lineage imports ONLY the pkg library layer and stdlib,
// so embedders never inherit CLI or storage dependencies.
func TestLineageImportsOnly(t *testing.T) {
	// Allowed imports for pkg/lineage
	allowedExternal := map[string]bool{
		"github.com/tracelight-labs/tracelight/pkg/bteq":      true,
		"github.com/tracelight-labs/tracelight/pkg/dialect":   true,
		"github.com/tracelight-labs/tracelight/pkg/sqlparser": true,
	}

	fset := token.NewFileSet()

	// Find the lineage package directory relative to test location
	lineageDir := "."

	entries, err := os.ReadDir(lineageDir)
	if err != nil {
		t.Fatalf("Failed to read lineage directory: %v", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") {
			continue
		}
		// Skip test files
		if strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}

		path := filepath.Join(lineageDir, entry.Name())
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			t.Errorf("Failed to parse %s: %v", path, err)
			continue
		}

		for _, imp := range f.Imports {
			importPath := strings.Trim(imp.Path.Value, `"`)

			// Allow stdlib (no dots in path)
			if !strings.Contains(importPath, ".") {
				continue
			}

			// Check if external import is allowed
			if !allowedExternal[importPath] {
				t.Errorf("%s imports forbidden package: %s", entry.Name(), importPath)
			}
		}
	}
}

// TestLineageDoesNotImportInternal verifies pkg/lineage doesn't import any
// internal packages.
func TestLineageDoesNotImportInternal(t *testing.T) {
	fset := token.NewFileSet()
	lineageDir := "."

	entries, err := os.ReadDir(lineageDir)
	if err != nil {
		t.Fatalf("Failed to read lineage directory: %v", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") {
			continue
		}
		if strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}

		path := filepath.Join(lineageDir, entry.Name())
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			t.Errorf("Failed to parse %s: %v", path, err)
			continue
		}

		for _, imp := range f.Imports {
			importPath := strings.Trim(imp.Path.Value, `"`)

			if strings.Contains(importPath, "/internal/") {
				t.Errorf("%s imports internal package: %s (lineage must not import internal packages)", entry.Name(), importPath)
			}
		}
	}
}

// TestLibraryLayerHasNoThirdPartyDeps verifies no package under pkg/ pulls
// in a module outside this repository. Display, storage, and config deps
// belong to internal/.
func TestLibraryLayerHasNoThirdPartyDeps(t *testing.T) {
	const modulePrefix = "github.com/tracelight-labs/tracelight/"

	fset := token.NewFileSet()

	for _, dir := range []string{".", "../bteq", "../dialect", "../sqlparser"} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", dir, err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") {
				continue
			}
			if strings.HasSuffix(entry.Name(), "_test.go") {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
			if err != nil {
				t.Errorf("Failed to parse %s: %v", path, err)
				continue
			}

			for _, imp := range f.Imports {
				importPath := strings.Trim(imp.Path.Value, `"`)

				if !strings.Contains(importPath, ".") {
					continue
				}
				if !strings.HasPrefix(importPath, modulePrefix) {
					t.Errorf("%s imports third-party package: %s", path, importPath)
				}
			}
		}
	}
}
