package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tracelight-labs/tracelight/internal/loader"
	"github.com/tracelight-labs/tracelight/pkg/bteq"
)

// ExtractOptions holds options for the extract command.
type ExtractOptions struct {
	Output string
	Stats  bool
}

// NewExtractCommand creates the extract command.
func NewExtractCommand() *cobra.Command {
	opts := &ExtractOptions{}

	cmd := &cobra.Command{
		Use:   "extract [path]",
		Short: "Pull clean SQL out of BTEQ scripts",
		Long: `Extract the SQL from BTEQ scripts and shell wrappers, dropping dot
commands, session control statements, and heredoc plumbing.

A single file prints its SQL to stdout; a folder requires --output and
writes one .sql file per script. Logon lines are scrubbed before any
control line is reported.`,
		Example: `  # Print the SQL inside a wrapper script
  tracelight extract nightly_load.sh

  # Extract a whole folder
  tracelight extract etl/ --output extracted/

  # Show what was removed
  tracelight extract nightly_load.sh --stats`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "folder for extracted .sql files")
	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "report heredoc blocks and removed control lines")

	return cmd
}

func runExtract(cmd *cobra.Command, args []string, opts *ExtractOptions) error {
	cfg := getConfig()
	root := resolveRoot(cfg, args)

	info, err := os.Stat(root)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return extractOne(cmd, root, opts)
	}

	if opts.Output == "" {
		return fmt.Errorf("--output is required when extracting a folder")
	}
	if err := os.MkdirAll(opts.Output, 0750); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}

	paths, err := loader.New().Discover(root)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no scripts found under %s", root)
	}

	for _, path := range paths {
		res, err := extractFile(path)
		if err != nil {
			return err
		}

		name := stem(path) + ".sql"
		outPath := filepath.Join(opts.Output, name)
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", outPath, err)
		}
		werr := writeExtracted(f, filepath.Base(path), res)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return fmt.Errorf("failed to write %s: %w", outPath, werr)
		}

		if opts.Stats {
			printStats(cmd.OutOrStdout(), filepath.Base(path), res)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d scripts to %s\n", len(paths), opts.Output)
	return nil
}

// extractOne handles single-file mode: SQL to stdout so the output can be
// piped, stats to stderr.
func extractOne(cmd *cobra.Command, path string, opts *ExtractOptions) error {
	res, err := extractFile(path)
	if err != nil {
		return err
	}

	if opts.Output != "" {
		if err := os.MkdirAll(opts.Output, 0750); err != nil {
			return fmt.Errorf("failed to create output folder: %w", err)
		}
		outPath := filepath.Join(opts.Output, stem(path)+".sql")
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", outPath, err)
		}
		werr := writeExtracted(f, filepath.Base(path), res)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return fmt.Errorf("failed to write %s: %w", outPath, werr)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Extracted to %s\n", outPath)
	} else {
		if _, err := io.WriteString(cmd.OutOrStdout(), res.SQL); err != nil {
			return err
		}
	}

	if opts.Stats {
		printStats(cmd.ErrOrStderr(), filepath.Base(path), res)
	}
	return nil
}

func extractFile(path string) (*bteq.ExtractResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return bteq.Extract(string(raw)), nil
}

// writeExtracted writes the cleaned SQL with a provenance header.
func writeExtracted(w io.Writer, source string, res *bteq.ExtractResult) error {
	if _, err := fmt.Fprintf(w, "-- Extracted from: %s\n", source); err != nil {
		return err
	}
	if res.Blocks > 0 {
		if _, err := fmt.Fprintf(w, "-- Heredoc blocks: %d\n", res.Blocks); err != nil {
			return err
		}
	}
	if len(res.Skipped) > 0 {
		if _, err := fmt.Fprintf(w, "-- Control lines removed: %d\n", len(res.Skipped)); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	_, err := io.WriteString(w, res.SQL)
	return err
}

func printStats(w io.Writer, name string, res *bteq.ExtractResult) {
	fmt.Fprintf(w, "%s: %d heredoc blocks, %d control lines removed\n", name, res.Blocks, len(res.Skipped))
	for _, line := range res.Skipped {
		fmt.Fprintf(w, "  - %s\n", line)
	}
}

// stem returns the file name without its extension.
func stem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
