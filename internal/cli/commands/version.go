package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display Tracelight version and build information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Tracelight v%s (commit %s, built %s)\n", version, commit, date)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "SQL lineage extraction engine")
		},
	}
}
