package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// savedRun records one analyzed run in a fresh working directory and
// returns its id. The caller is chdir'd into the directory.
func savedRun(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })

	scriptsDir := filepath.Join(tmpDir, "scripts")
	require.NoError(t, os.MkdirAll(scriptsDir, 0750))
	writeScript(t, scriptsDir, "daily.sql", dailySQL)

	cmd := NewAnalyzeCommand()
	errOut := new(bytes.Buffer)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"scripts", "--save"})
	require.NoError(t, cmd.Execute())

	line := strings.TrimSpace(errOut.String())
	id := strings.TrimPrefix(line, "Saved run ")
	require.NotEmpty(t, id, "save should report the run id")
	return id
}

func runHistoryCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewHistoryCommand()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHistoryCommand_List(t *testing.T) {
	resetConfig(t)
	id := savedRun(t)

	out, err := runHistoryCommand(t)
	require.NoError(t, err)

	assert.Contains(t, out, id)
	assert.Contains(t, out, "scripts")
	assert.Contains(t, out, "(1 runs)")
}

func TestHistoryCommand_Empty(t *testing.T) {
	resetConfig(t)
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer func() { _ = os.Chdir(oldWd) }()

	out, err := runHistoryCommand(t)
	require.NoError(t, err)

	assert.Contains(t, out, "No saved runs")
}

func TestHistoryCommand_Run(t *testing.T) {
	resetConfig(t)
	id := savedRun(t)

	out, err := runHistoryCommand(t, "--run", id)
	require.NoError(t, err)

	assert.Contains(t, out, "Run "+id)
	assert.Contains(t, out, "daily")
	assert.Contains(t, out, "Tables:")
	assert.Contains(t, out, "Data movements:")
	assert.Contains(t, out, "vt_sales -> mart.sales_sum")
}

func TestHistoryCommand_RunNotFound(t *testing.T) {
	resetConfig(t)
	savedRun(t)

	_, err := runHistoryCommand(t, "--run", "not-a-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestHistoryCommand_TableSearch(t *testing.T) {
	resetConfig(t)
	id := savedRun(t)

	out, err := runHistoryCommand(t, "--table", "mart.sales_sum")
	require.NoError(t, err)

	assert.Contains(t, out, id)
	assert.Contains(t, out, "mart.sales_sum")
	assert.Contains(t, out, "target")
	assert.Contains(t, out, "(1 sightings)")
}

func TestHistoryCommand_TableSearchMiss(t *testing.T) {
	resetConfig(t)
	savedRun(t)

	out, err := runHistoryCommand(t, "--table", "edw.not_there")
	require.NoError(t, err)

	assert.Contains(t, out, "No runs mention edw.not_there")
}
