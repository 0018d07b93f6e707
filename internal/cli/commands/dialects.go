package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tracelight-labs/tracelight/pkg/dialect"
)

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List registered SQL dialects",
		Long: `List the SQL dialects the engine knows about, with the identifier
and grammar rules each one applies. The default dialect is marked.`,
		Example: `  # Show all dialects
  tracelight dialects`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDialects(cmd)
		},
	}
}

func runDialects(cmd *cobra.Command) error {
	title := cases.Title(language.English)
	def := dialect.Default()

	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Dialect", "Identifiers", "Case Folding", "Volatile Tables", "Update From Alias"})

	for _, name := range dialect.List() {
		d, err := dialect.MustGet(name)
		if err != nil {
			return err
		}

		label := title.String(name)
		if def != nil && name == def.Name {
			label += " (default)"
		}

		quote := "none"
		if d.Identifiers.Quote != "" {
			quote = d.Identifiers.Quote + "name" + d.Identifiers.QuoteEnd
		}

		tw.AppendRow(table.Row{
			label,
			quote,
			d.Identifiers.Normalization.String(),
			yesNo(d.AllowsVolatileTables()),
			yesNo(d.AllowsUpdateFromAlias()),
		})
	}
	tw.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "(%d dialects)\n", len(dialect.List()))

	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return ""
}
