package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
}

func TestLoad_Defaults(t *testing.T) {
	ResetConfig()
	tmpDir := t.TempDir()
	chdir(t, tmpDir)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "auto", cfg.Strategy)
	assert.Equal(t, "table", cfg.Format)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.Serve.Addr)
	assert.True(t, cfg.Serve.Watch)
	assert.Empty(t, cfg.Dialect)
	assert.Equal(t, 0, cfg.Workers)
	assert.Empty(t, GetConfigFileUsed())
}

func TestLoad_ConfigFile(t *testing.T) {
	ResetConfig()
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "tracelight.yaml")
	cfgContent := `dialect: teradata
workers: 4
scripts_dir: etl
serve:
  addr: ":9000"
  watch: false
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgContent), 0600))

	cfg, err := Load(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "teradata", cfg.Dialect)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, ":9000", cfg.Serve.Addr)
	assert.False(t, cfg.Serve.Watch)
	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Equal(t, tmpDir, cfg.ProjectRoot)

	// Relative paths resolve against the config file's directory.
	assert.Equal(t, filepath.Join(tmpDir, "etl"), cfg.ScriptsDir)
	assert.Equal(t, filepath.Join(tmpDir, DefaultStateFile), cfg.StatePath)
}

func TestLoad_UpwardSearch(t *testing.T) {
	ResetConfig()
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "tracelight.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("dialect: ansi\n"), 0600))

	nested := filepath.Join(tmpDir, "etl", "monthly")
	require.NoError(t, os.MkdirAll(nested, 0750))
	chdir(t, nested)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "ansi", cfg.Dialect)
	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Equal(t, tmpDir, cfg.ProjectRoot)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	ResetConfig()
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "tracelight.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("dialect: teradata\n"), 0600))

	require.NoError(t, os.Setenv("TRACELIGHT_DIALECT", "ansi"))
	defer func() { _ = os.Unsetenv("TRACELIGHT_DIALECT") }()

	cfg, err := Load(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "ansi", cfg.Dialect, "env var should override config file")
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	ResetConfig()

	require.NoError(t, os.Setenv("TRACELIGHT_DIALECT", "ansi"))
	defer func() { _ = os.Unsetenv("TRACELIGHT_DIALECT") }()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("dialect", "", "SQL dialect")
	require.NoError(t, flags.Set("dialect", "teradata"))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "teradata", cfg.Dialect, "flag value should override env var")
}

func TestLoad_UnsetFlagFallsThrough(t *testing.T) {
	ResetConfig()

	require.NoError(t, os.Setenv("TRACELIGHT_DIALECT", "ansi"))
	defer func() { _ = os.Unsetenv("TRACELIGHT_DIALECT") }()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("dialect", "", "SQL dialect")

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "ansi", cfg.Dialect, "unset flag should fall back to env var")
}

func TestLoad_StateFlagMapsToStatePath(t *testing.T) {
	ResetConfig()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("state", "", "state database path")
	require.NoError(t, flags.Set("state", "custom.db"))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cfg.ProjectRoot, "custom.db"), cfg.StatePath)
}

func TestLoad_EnvCoercesNumbers(t *testing.T) {
	ResetConfig()

	require.NoError(t, os.Setenv("TRACELIGHT_WORKERS", "8"))
	defer func() { _ = os.Unsetenv("TRACELIGHT_WORKERS") }()

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Workers)
}

func TestLoad_InvalidFormat(t *testing.T) {
	ResetConfig()
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "tracelight.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("format: csv\n"), 0600))

	_, err := Load(cfgPath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:      "bad strategy",
			mutate:    func(c *Config) { c.Strategy = "guess" },
			errSubstr: "unknown strategy",
		},
		{
			name:      "bad normalize",
			mutate:    func(c *Config) { c.Normalize = "title" },
			errSubstr: "unknown normalize mode",
		},
		{
			name:      "bad format",
			mutate:    func(c *Config) { c.Format = "xml" },
			errSubstr: "unknown output format",
		},
		{
			name:      "bad log level",
			mutate:    func(c *Config) { c.LogLevel = "trace" },
			errSubstr: "unknown log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Strategy: DefaultStrategy,
				Format:   DefaultFormat,
				LogLevel: DefaultLogLevel,
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errSubstr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "trace", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestGetLogger(t *testing.T) {
	// Without a logger in context, a discard logger comes back.
	logger := GetLogger(context.Background())
	require.NotNil(t, logger)

	// With one stored under the key, the same instance comes back.
	want := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.WithValue(context.Background(), LoggerKey(), want)
	assert.Same(t, want, GetLogger(ctx))
}
