package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chainDir writes a three-table chain: raw.orders -> stage.orders -> mart.orders.
func chainDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeScript(t, dir, "stage.sql",
		"CREATE TABLE stage.orders AS (SELECT * FROM raw.orders) WITH DATA;\n")
	writeScript(t, dir, "mart.sql",
		"INSERT INTO mart.orders SELECT * FROM stage.orders;\n")
	return dir
}

func runGraphCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewGraphCommand()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGraphCommand_Table(t *testing.T) {
	resetConfig(t)
	dir := chainDir(t)

	out, err := runGraphCommand(t, dir)
	require.NoError(t, err)

	assert.Contains(t, out, "raw.orders")
	assert.Contains(t, out, "stage.orders")
	assert.Contains(t, out, "mart.orders")
	assert.Contains(t, out, "(3 tables, 2 edges)")
}

func TestGraphCommand_Impact(t *testing.T) {
	resetConfig(t)
	dir := chainDir(t)

	out, err := runGraphCommand(t, dir, "--impact", "raw.orders")
	require.NoError(t, err)

	assert.Contains(t, out, "2 tables downstream of raw.orders")
	assert.Contains(t, out, "stage.orders")
	assert.Contains(t, out, "mart.orders")
}

func TestGraphCommand_ImpactLeaf(t *testing.T) {
	resetConfig(t)
	dir := chainDir(t)

	out, err := runGraphCommand(t, dir, "--impact", "mart.orders")
	require.NoError(t, err)

	assert.Contains(t, out, "No tables downstream of mart.orders")
}

func TestGraphCommand_Upstream(t *testing.T) {
	resetConfig(t)
	dir := chainDir(t)

	out, err := runGraphCommand(t, dir, "--upstream", "mart.orders")
	require.NoError(t, err)

	assert.Contains(t, out, "2 tables upstream of mart.orders")
	assert.Contains(t, out, "raw.orders")
	assert.Contains(t, out, "stage.orders")
}

func TestGraphCommand_UnknownTable(t *testing.T) {
	resetConfig(t)
	dir := chainDir(t)

	_, err := runGraphCommand(t, dir, "--impact", "nope.missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table not found in graph")
}

func TestGraphCommand_Levels(t *testing.T) {
	resetConfig(t)
	dir := chainDir(t)

	out, err := runGraphCommand(t, dir, "--levels")
	require.NoError(t, err)

	assert.Contains(t, out, "Level 0:")
	assert.Contains(t, out, "Level 2:")
	assert.Contains(t, out, "3 tables in 3 levels")

	// Load order: sources before the tables built from them.
	require.Less(t, strings.Index(out, "raw.orders"), strings.Index(out, "stage.orders"))
	require.Less(t, strings.Index(out, "stage.orders"), strings.Index(out, "mart.orders"))
}

func TestGraphCommand_JSON(t *testing.T) {
	resetConfig(t)
	dir := chainDir(t)

	out, err := runGraphCommand(t, dir, "--format", "json")
	require.NoError(t, err)

	var doc struct {
		Nodes []struct {
			Name  string   `json:"name"`
			Roles []string `json:"roles"`
		} `json:"nodes"`
		Edges []struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"edges"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Len(t, doc.Nodes, 3)
	assert.Len(t, doc.Edges, 2)
}

func TestGraphCommand_ImpactJSON(t *testing.T) {
	resetConfig(t)
	dir := chainDir(t)

	out, err := runGraphCommand(t, dir, "--impact", "raw.orders", "--format", "json")
	require.NoError(t, err)

	var doc struct {
		Table     string   `json:"table"`
		Direction string   `json:"direction"`
		Tables    []string `json:"tables"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "raw.orders", doc.Table)
	assert.Equal(t, "downstream", doc.Direction)
	assert.Equal(t, []string{"mart.orders", "stage.orders"}, doc.Tables)
}

func TestGraphCommand_Dot(t *testing.T) {
	resetConfig(t)
	dir := chainDir(t)

	out, err := runGraphCommand(t, dir, "--format", "dot")
	require.NoError(t, err)

	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, "raw.orders")
}

func TestGraphCommand_DotRejectsFocus(t *testing.T) {
	resetConfig(t)
	dir := chainDir(t)

	_, err := runGraphCommand(t, dir, "--impact", "raw.orders", "--format", "dot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dot format renders the full graph")
}
