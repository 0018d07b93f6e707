package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelight-labs/tracelight/internal/config"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "tracelight", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)

	flags := []string{"config", "dialect", "strategy", "normalize", "workers", "state", "log-level", "verbose"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "persistent flag %q should exist", flag)
	}

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"analyze", "extract", "graph", "dialects", "history", "repl", "serve", "version", "completion"} {
		assert.True(t, names[want], "subcommand %q should be registered", want)
	}
}

func TestRootVersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "tracelight "+Version)
	assert.Contains(t, out.String(), "SQL lineage extraction engine")
}

func TestRootRunsAnalyze(t *testing.T) {
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer func() { _ = os.Chdir(oldWd) }()

	sql := "INSERT INTO mart.weekly_sum SELECT * FROM edw.weekly_rollup;\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "weekly.sql"), []byte(sql), 0600))

	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"analyze", "weekly.sql"})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Script: weekly (teradata)")
	assert.Contains(t, out.String(), "mart.weekly_sum")
}

func TestRootDialectFlagReachesAnalysis(t *testing.T) {
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer func() { _ = os.Chdir(oldWd) }()

	sql := "INSERT INTO mart.weekly_sum SELECT * FROM edw.weekly_rollup;\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "weekly.sql"), []byte(sql), 0600))

	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--dialect", "spark", "analyze", "weekly.sql"})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Script: weekly (spark)")
}

func TestRootRejectsBadStrategy(t *testing.T) {
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer func() { _ = os.Chdir(oldWd) }()

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--strategy", "guess", "dialects"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy")
}

func TestNewCompletionCommand(t *testing.T) {
	cmd := NewCompletionCommand()

	assert.Contains(t, cmd.Use, "completion")
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.ElementsMatch(t, []string{"bash", "zsh", "fish", "powershell"}, cmd.ValidArgs)
}
