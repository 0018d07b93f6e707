package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tracelight-labs/tracelight/internal/batch"
	"github.com/tracelight-labs/tracelight/internal/config"
	"github.com/tracelight-labs/tracelight/internal/state"
	"github.com/tracelight-labs/tracelight/pkg/lineage"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Runner *batch.Runner
}

// NewCommandContext builds the shared dependencies from the loaded
// configuration and the logger stored in the command context.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	strategy, err := lineage.ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	normalize, err := lineage.ParseNormalizeMode(cfg.Normalize)
	if err != nil {
		return nil, err
	}

	runner := batch.NewRunner(batch.Options{
		Dialect:   cfg.Dialect,
		Strategy:  strategy,
		Normalize: normalize,
		Workers:   cfg.Workers,
		Logger:    logger,
	})

	return &CommandContext{
		Cfg:    cfg,
		Logger: logger,
		Runner: runner,
	}, nil
}

// getConfig returns the current configuration. It uses
// config.GetCurrentConfig() if available, otherwise falls back to
// environment variables. The fallback keeps commands usable when invoked
// outside the cobra tree, for example from tests.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	workers := 0
	if v := os.Getenv("TRACELIGHT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			workers = n
		}
	}

	return &config.Config{
		ScriptsDir: getEnvOrDefault("TRACELIGHT_SCRIPTS_DIR", config.DefaultScriptsDir),
		Dialect:    os.Getenv("TRACELIGHT_DIALECT"),
		Strategy:   getEnvOrDefault("TRACELIGHT_STRATEGY", config.DefaultStrategy),
		Normalize:  os.Getenv("TRACELIGHT_NORMALIZE"),
		Workers:    workers,
		Format:     getEnvOrDefault("TRACELIGHT_FORMAT", config.DefaultFormat),
		StatePath:  getEnvOrDefault("TRACELIGHT_STATE_PATH", config.DefaultStateFile),
		LogLevel:   getEnvOrDefault("TRACELIGHT_LOG_LEVEL", config.DefaultLogLevel),
		Verbose:    os.Getenv("TRACELIGHT_VERBOSE") == "true",
		Serve: config.ServeConfig{
			Addr:  getEnvOrDefault("TRACELIGHT_SERVE_ADDR", config.DefaultServeAddr),
			Watch: true,
		},
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// openStore opens the run history database, creating its directory and
// schema on first use. Callers must Close it.
func openStore(cfg *config.Config, logger *slog.Logger) (state.Store, error) {
	stateDir := filepath.Dir(cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}
	return store, nil
}

// resolveRoot picks the analysis root: the positional argument when given,
// the configured scripts directory otherwise.
func resolveRoot(cfg *config.Config, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.ScriptsDir
}
