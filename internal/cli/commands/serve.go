package commands

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tracelight-labs/tracelight/internal/server"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Addr  string
	Watch bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve [path]",
		Short: "Serve the lineage viewer",
		Long: `Analyze the scripts once and serve the results as a small web UI
with a JSON API underneath it.

With --watch (the default) the scripts are re-analyzed whenever a file
changes, and the page picks up the new run on its next poll.`,
		Example: `  # Serve the current folder
  tracelight serve

  # Serve a script folder on another port
  tracelight serve etl/ --addr :9000

  # Serve a fixed snapshot
  tracelight serve etl/ --watch=false`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "re-analyze when scripts change")

	return cmd
}

func runServe(cmd *cobra.Command, args []string, opts *ServeOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Cfg
	root := resolveRoot(cfg, args)

	if _, err := os.Stat(root); os.IsNotExist(err) {
		return fmt.Errorf("script path does not exist: %s", root)
	}

	// CLI flags override config file
	addr := cfg.Serve.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}
	watch := cfg.Serve.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	srv := server.NewServer(server.Config{
		Addr:   addr,
		Root:   root,
		Watch:  watch,
		Runner: cmdCtx.Runner,
		Logger: cmdCtx.Logger,
	})

	httpAddr := addr
	if strings.HasPrefix(httpAddr, ":") {
		httpAddr = "localhost" + httpAddr
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Starting lineage viewer on http://%s\n", httpAddr)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Serve(ctx)
}
