package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// generateConfigDocs generates the configuration reference.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	// Create output directory
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := generateConfigurationDoc(outDir); err != nil {
		return fmt.Errorf("failed to generate configuration.md: %w", err)
	}
	log.Printf("  Generated configuration.md")

	return nil
}

// ConfigField represents a configuration field definition.
type ConfigField struct {
	Name        string
	Type        string
	Default     string
	Description string
	Category    string // "analysis", "paths", "output", "serve"
}

// getConfigSchema returns the configuration schema definition.
// This is based on internal/config/config.go Config.
func getConfigSchema() []ConfigField {
	return []ConfigField{
		// Analysis settings
		{Name: "dialect", Type: "string", Default: "teradata", Description: "SQL dialect used for parsing and name folding", Category: "analysis"},
		{Name: "strategy", Type: "string", Default: "auto", Description: "Analysis strategy: auto, parser, regex", Category: "analysis"},
		{Name: "normalize", Type: "string", Default: "", Description: "Override the dialect's name folding: uppercase, lowercase, case_insensitive, case_sensitive", Category: "analysis"},
		{Name: "workers", Type: "int", Default: "0", Description: "Parallel workers for folder analysis (0 = one per CPU)", Category: "analysis"},
		{Name: "fail_on_warnings", Type: "bool", Default: "false", Description: "Exit non-zero when any script produces warnings", Category: "analysis"},

		// Paths
		{Name: "scripts_dir", Type: "string", Default: ".", Description: "Directory scanned when no path argument is given", Category: "paths"},
		{Name: "state_path", Type: "string", Default: ".tracelight/history.db", Description: "SQLite database recording saved runs", Category: "paths"},

		// Output
		{Name: "format", Type: "string", Default: "table", Description: "Report format: table, json, yaml, dot", Category: "output"},
		{Name: "log_level", Type: "string", Default: "info", Description: "Log verbosity: debug, info, warn, error", Category: "output"},

		// Viewer server
		{Name: "serve.addr", Type: "string", Default: ":8080", Description: "Listen address for the lineage viewer", Category: "serve"},
		{Name: "serve.watch", Type: "bool", Default: "true", Description: "Re-analyze when scripts change on disk", Category: "serve"},
	}
}

// generateConfigurationDoc generates the configuration reference page.
func generateConfigurationDoc(outDir string) error {
	w := NewMarkdownWriter()

	// Frontmatter
	w.Frontmatter("Configuration", "Tracelight configuration reference")
	w.GeneratedMarker()

	// Title and intro
	w.Header(1, "Configuration")
	w.Paragraph("Tracelight is configured via `tracelight.yaml`, searched upward from the working directory. Relative paths in the file resolve against the directory it was found in, so runs behave the same from any subdirectory.")

	fields := getConfigSchema()
	sections := []struct {
		category string
		title    string
		intro    string
	}{
		{"analysis", "Analysis Settings", "How scripts are parsed and lineage is extracted:"},
		{"paths", "Paths", "Where scripts live and where state is kept:"},
		{"output", "Output", "Report rendering and logging:"},
		{"serve", "Viewer Server", "Settings for `tracelight serve`:"},
	}

	headers := []string{"Field", "Type", "Default", "Description"}
	for _, section := range sections {
		w.Header(2, section.title)
		w.Paragraph(section.intro)

		var rows [][]string
		for _, f := range fields {
			if f.Category != section.category {
				continue
			}
			defVal := f.Default
			if defVal == "" {
				defVal = "-"
			} else {
				defVal = InlineCode(defVal)
			}
			rows = append(rows, []string{
				InlineCode(f.Name),
				f.Type,
				defVal,
				f.Description,
			})
		}
		w.Table(headers, rows)
	}

	// Full example
	w.Header(2, "Full Configuration Example")
	w.CodeBlock("yaml", `# Tracelight Configuration
# tracelight.yaml

dialect: teradata
strategy: auto
workers: 8

scripts_dir: etl/scripts
state_path: .tracelight/history.db

format: table
log_level: info

serve:
  addr: :9090
  watch: true`)

	// Environment variables
	w.Header(2, "Environment Variables")
	w.Paragraph("Every key can be set through the environment with a `TRACELIGHT_` prefix, for example:")
	w.CodeBlock("bash", `export TRACELIGHT_DIALECT=spark
export TRACELIGHT_STATE_PATH=/var/lib/tracelight/history.db`)
	w.Paragraph("Precedence from highest to lowest: command-line flags, environment variables, config file, built-in defaults.")

	// Write file
	filename := filepath.Join(outDir, "configuration.md")
	return os.WriteFile(filename, w.Bytes(), 0600)
}
