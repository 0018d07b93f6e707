package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelight-labs/tracelight/internal/batch"
	"github.com/tracelight-labs/tracelight/internal/report"
)

func writeScript(t *testing.T, root, name, sql string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, name), []byte(sql), 0o644); err != nil {
		t.Fatal(err)
	}
}

func setupTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	writeScript(t, root, "daily.sql",
		"CREATE VOLATILE TABLE vt_sales AS (SELECT * FROM edw.daily_sales) WITH DATA;\n"+
			"INSERT INTO mart.sales_sum SELECT * FROM vt_sales;\n")
	writeScript(t, root, "weekly.sql", "SELECT * FROM edw.weekly_rollup;\n")

	s := NewServer(Config{
		Addr:   ":0",
		Root:   root,
		Runner: batch.NewRunner(batch.Options{Workers: 1}),
	})
	require.NoError(t, s.Refresh(context.Background()))
	return s, root
}

func getJSON(t *testing.T, ts *httptest.Server, path string, status int, out any) {
	t.Helper()
	res, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, status, res.StatusCode)
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
}

func TestHealthz(t *testing.T) {
	s, _ := setupTestServer(t)
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	var body map[string]string
	getJSON(t, ts, "/healthz", http.StatusOK, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestSummaryEndpoint(t *testing.T) {
	s, root := setupTestServer(t)
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	var got summaryResponse
	getJSON(t, ts, "/api/summary", http.StatusOK, &got)

	assert.NotEmpty(t, got.RunID)
	assert.Equal(t, root, got.Root)
	assert.Equal(t, "teradata", got.Dialect)
	assert.Equal(t, 2, got.Summary.Scripts)
	assert.Equal(t, 0, got.Summary.Failed)
	assert.Equal(t, 3, got.Summary.Statements)
}

func TestScriptsEndpoint(t *testing.T) {
	s, _ := setupTestServer(t)
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	var got []scriptListing
	getJSON(t, ts, "/api/scripts", http.StatusOK, &got)

	require.Len(t, got, 2)
	assert.Equal(t, "daily", got[0].Name)
	assert.Equal(t, "weekly", got[1].Name)
	assert.Equal(t, 2, got[0].Summary.Statements)
	assert.Equal(t, 1, got[0].Summary.Volatile)
	assert.Empty(t, got[0].Error)
}

func TestScriptEndpoint(t *testing.T) {
	s, _ := setupTestServer(t)
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	var got report.ScriptReport
	getJSON(t, ts, "/api/scripts/daily", http.StatusOK, &got)

	assert.Equal(t, "daily", got.ScriptName)
	require.Contains(t, got.Tables, "vt_sales")
	assert.True(t, got.Tables["vt_sales"].IsVolatile)
	require.Contains(t, got.Tables, "mart.sales_sum")
	require.Len(t, got.Tables["mart.sales_sum"].Source, 1)
	assert.Equal(t, "vt_sales", got.Tables["mart.sales_sum"].Source[0].Name)
}

func TestScriptEndpointNotFound(t *testing.T) {
	s, _ := setupTestServer(t)
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	var body map[string]string
	getJSON(t, ts, "/api/scripts/nope", http.StatusNotFound, &body)
	assert.Equal(t, "script not found: nope", body["error"])
}

func TestGraphEndpoint(t *testing.T) {
	s, _ := setupTestServer(t)
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	var got report.Graph
	getJSON(t, ts, "/api/graph", http.StatusOK, &got)

	names := make(map[string]string)
	for _, n := range got.Nodes {
		names[n.Name] = n.Type
	}
	assert.Equal(t, "source", names["edw.daily_sales"])
	assert.Equal(t, "source", names["edw.weekly_rollup"])
	assert.Equal(t, "target", names["mart.sales_sum"])
	assert.Equal(t, "volatile", names["vt_sales"])

	require.Len(t, got.Edges, 2)
	assert.Equal(t, "create_volatile", got.Edges[0].Operation)
	assert.Equal(t, "insert", got.Edges[1].Operation)
}

func TestIndexServesViewer(t *testing.T) {
	s, _ := setupTestServer(t)
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/html")
}

func TestBeforeFirstRefresh(t *testing.T) {
	s := NewServer(Config{
		Root:   t.TempDir(),
		Runner: batch.NewRunner(batch.Options{}),
	})
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	for _, path := range []string{"/api/summary", "/api/scripts", "/api/scripts/x", "/api/graph"} {
		var body map[string]string
		getJSON(t, ts, path, http.StatusServiceUnavailable, &body)
		assert.Equal(t, "no analysis available yet", body["error"], path)
	}
}

func TestRefreshSwapsSnapshot(t *testing.T) {
	s, root := setupTestServer(t)

	first := s.current()
	require.NotNil(t, first)

	writeScript(t, root, "weekly.sql",
		"INSERT INTO mart.weekly_sum SELECT * FROM edw.weekly_rollup;\n")
	require.NoError(t, s.Refresh(context.Background()))

	second := s.current()
	require.NotNil(t, second)
	assert.NotEqual(t, first.report.RunID, second.report.RunID)

	names := make(map[string]string)
	for _, n := range second.graph.Nodes {
		names[n.Name] = n.Type
	}
	assert.Equal(t, "target", names["mart.weekly_sum"])
}

func TestRefreshBadRoot(t *testing.T) {
	s := NewServer(Config{
		Root:   filepath.Join(t.TempDir(), "missing"),
		Runner: batch.NewRunner(batch.Options{}),
	})
	assert.Error(t, s.Refresh(context.Background()))
}
