package state

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tracelight-labs/tracelight/internal/batch"
	"github.com/tracelight-labs/tracelight/pkg/lineage"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewStore(nil)
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return store
}

func sampleBatch() *batch.Result {
	return &batch.Result{
		RunID:     "run-1",
		Root:      "etl",
		Dialect:   "teradata",
		StartedAt: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		Scripts: []batch.ScriptResult{
			{
				Path:      "etl/daily_sales.sql",
				Name:      "daily_sales",
				Dialect:   "teradata",
				ElapsedMS: 3,
				Result: &lineage.Result{
					SourceTables:   []string{"edw.daily_sales", "vt_sales"},
					TargetTables:   []string{"mart.sales_sum", "vt_sales"},
					VolatileTables: []string{"vt_sales"},
					StatementCount: 2,
					Operations: []lineage.Operation{
						{
							Kind:    lineage.OpCreateVolatile,
							Target:  &lineage.TableRef{Name: "vt_sales"},
							Sources: []lineage.TableRef{{Schema: "edw", Name: "daily_sales"}},
							Line:    1,
							RawText: "create volatile table vt_sales as (select * from edw.daily_sales) with data",
						},
						{
							Kind:    lineage.OpInsert,
							Target:  &lineage.TableRef{Schema: "mart", Name: "sales_sum"},
							Sources: []lineage.TableRef{{Name: "vt_sales"}},
							Line:    4,
							RawText: "insert into mart.sales_sum select * from vt_sales",
						},
					},
					Warnings: []lineage.Warning{{Line: 7, Message: "unsupported statement"}},
				},
			},
			{
				Path:    "etl/broken.sql",
				Name:    "broken",
				Dialect: "teradata",
				Err:     "read script: no such file",
			},
		},
		Summary: batch.Summary{
			Scripts: 2, Failed: 1, Statements: 2, Operations: 2,
			Sources: 2, Targets: 2, Volatile: 1, Warnings: 1, ElapsedMS: 9,
		},
	}
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewStore(nil)

	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)

	// Verify tables exist by querying them.
	tables := []string{"runs", "scripts", "script_tables", "edges", "warnings"}
	for _, table := range tables {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		if err != nil {
			t.Errorf("table %s does not exist: %v", table, err)
		} else {
			rows.Close()
		}
	}

	version, err := store.MigrationVersion()
	if err != nil {
		t.Fatalf("failed to get migration version: %v", err)
	}
	if version != 2 {
		t.Errorf("expected migration version 2, got %d", version)
	}
}

func TestSQLiteStore_SaveBatch(t *testing.T) {
	store := setupTestStore(t)

	id, err := store.SaveBatch(sampleBatch())
	if err != nil {
		t.Fatalf("failed to save batch: %v", err)
	}
	if id != "run-1" {
		t.Errorf("expected run id run-1, got %q", id)
	}

	runs, err := store.ListRuns(10)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.Root != "etl" || run.Dialect != "teradata" {
		t.Errorf("unexpected run fields: %+v", run)
	}
	if run.Scripts != 2 || run.Failed != 1 || run.Statements != 2 {
		t.Errorf("unexpected run tallies: %+v", run)
	}
	if !run.StartedAt.Equal(time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("unexpected started_at: %v", run.StartedAt)
	}
}

func TestSQLiteStore_SaveBatch_ReplacesRun(t *testing.T) {
	store := setupTestStore(t)

	if _, err := store.SaveBatch(sampleBatch()); err != nil {
		t.Fatalf("failed to save batch: %v", err)
	}

	res := sampleBatch()
	res.Summary.Warnings = 5
	if _, err := store.SaveBatch(res); err != nil {
		t.Fatalf("failed to re-save batch: %v", err)
	}

	runs, err := store.ListRuns(10)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected the re-save to replace the run, got %d runs", len(runs))
	}
	if runs[0].Warnings != 5 {
		t.Errorf("expected updated warnings tally 5, got %d", runs[0].Warnings)
	}

	detail, err := store.GetRun("run-1")
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if len(detail.Scripts) != 2 {
		t.Errorf("expected 2 scripts after replace, got %d", len(detail.Scripts))
	}
}

func TestSQLiteStore_GetRun(t *testing.T) {
	store := setupTestStore(t)
	if _, err := store.SaveBatch(sampleBatch()); err != nil {
		t.Fatalf("failed to save batch: %v", err)
	}

	detail, err := store.GetRun("run-1")
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if detail.Run.ID != "run-1" || detail.Run.Scripts != 2 {
		t.Errorf("unexpected run: %+v", detail.Run)
	}
	if len(detail.Scripts) != 2 {
		t.Fatalf("expected 2 scripts, got %d", len(detail.Scripts))
	}

	// Scripts come back in path order.
	broken := detail.Scripts[0]
	if broken.Name != "broken" {
		t.Fatalf("expected broken first, got %q", broken.Name)
	}
	if broken.Error != "read script: no such file" {
		t.Errorf("unexpected script error: %q", broken.Error)
	}
	if len(broken.Warnings) != 0 {
		t.Errorf("failed script should carry no warnings, got %v", broken.Warnings)
	}

	daily := detail.Scripts[1]
	if daily.Name != "daily_sales" || daily.Error != "" {
		t.Errorf("unexpected script: %+v", daily)
	}
	if daily.Statements != 2 || daily.Operations != 2 {
		t.Errorf("unexpected script tallies: %+v", daily)
	}
	if len(daily.Warnings) != 1 || daily.Warnings[0].Line != 7 {
		t.Errorf("unexpected warnings: %v", daily.Warnings)
	}
}

func TestSQLiteStore_GetRun_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetRun("missing")
	if err == nil {
		t.Fatal("expected error for missing run")
	}
	if !strings.Contains(err.Error(), "run not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSQLiteStore_TablesForRun(t *testing.T) {
	store := setupTestStore(t)
	if _, err := store.SaveBatch(sampleBatch()); err != nil {
		t.Fatalf("failed to save batch: %v", err)
	}

	tables, err := store.TablesForRun("run-1")
	if err != nil {
		t.Fatalf("failed to get tables: %v", err)
	}

	want := []TableRole{
		{ScriptName: "daily_sales", Table: "edw.daily_sales", Role: "source"},
		{ScriptName: "daily_sales", Table: "mart.sales_sum", Role: "target"},
		{ScriptName: "daily_sales", Table: "vt_sales", Role: "source"},
		{ScriptName: "daily_sales", Table: "vt_sales", Role: "target"},
		{ScriptName: "daily_sales", Table: "vt_sales", Role: "volatile"},
	}
	if len(tables) != len(want) {
		t.Fatalf("expected %d table roles, got %d: %v", len(want), len(tables), tables)
	}
	for i, tr := range tables {
		if tr != want[i] {
			t.Errorf("table role %d: expected %+v, got %+v", i, want[i], tr)
		}
	}
}

func TestSQLiteStore_EdgesForRun(t *testing.T) {
	store := setupTestStore(t)
	if _, err := store.SaveBatch(sampleBatch()); err != nil {
		t.Fatalf("failed to save batch: %v", err)
	}

	edges, err := store.EdgesForRun("run-1")
	if err != nil {
		t.Fatalf("failed to get edges: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(edges))
	}

	first := Edge{ScriptName: "daily_sales", Source: "edw.daily_sales", Target: "vt_sales", Operation: "create_volatile", Line: 1}
	if edges[0] != first {
		t.Errorf("expected %+v, got %+v", first, edges[0])
	}
	second := Edge{ScriptName: "daily_sales", Source: "vt_sales", Target: "mart.sales_sum", Operation: "insert", Line: 4}
	if edges[1] != second {
		t.Errorf("expected %+v, got %+v", second, edges[1])
	}
}

func TestSQLiteStore_SearchTable(t *testing.T) {
	store := setupTestStore(t)
	if _, err := store.SaveBatch(sampleBatch()); err != nil {
		t.Fatalf("failed to save batch: %v", err)
	}

	later := sampleBatch()
	later.RunID = "run-2"
	later.StartedAt = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	if _, err := store.SaveBatch(later); err != nil {
		t.Fatalf("failed to save second batch: %v", err)
	}

	sightings, err := store.SearchTable("vt_sales")
	if err != nil {
		t.Fatalf("failed to search: %v", err)
	}
	// Three roles per run, newest run first.
	if len(sightings) != 6 {
		t.Fatalf("expected 6 sightings, got %d", len(sightings))
	}
	if sightings[0].RunID != "run-2" {
		t.Errorf("expected newest run first, got %q", sightings[0].RunID)
	}
	if sightings[3].RunID != "run-1" {
		t.Errorf("expected older run second, got %q", sightings[3].RunID)
	}

	none, err := store.SearchTable("not_a_table")
	if err != nil {
		t.Fatalf("failed to search: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no sightings, got %v", none)
	}
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewStore(nil)

	if err := store.Migrate(); err == nil || !strings.Contains(err.Error(), "database not opened") {
		t.Errorf("Migrate: expected not-opened error, got %v", err)
	}
	if _, err := store.SaveBatch(sampleBatch()); err == nil || !strings.Contains(err.Error(), "database not opened") {
		t.Errorf("SaveBatch: expected not-opened error, got %v", err)
	}
	if _, err := store.ListRuns(5); err == nil || !strings.Contains(err.Error(), "database not opened") {
		t.Errorf("ListRuns: expected not-opened error, got %v", err)
	}
	if _, err := store.GetRun("x"); err == nil || !strings.Contains(err.Error(), "database not opened") {
		t.Errorf("GetRun: expected not-opened error, got %v", err)
	}
	if _, err := store.TablesForRun("x"); err == nil || !strings.Contains(err.Error(), "database not opened") {
		t.Errorf("TablesForRun: expected not-opened error, got %v", err)
	}
	if _, err := store.EdgesForRun("x"); err == nil || !strings.Contains(err.Error(), "database not opened") {
		t.Errorf("EdgesForRun: expected not-opened error, got %v", err)
	}
	if _, err := store.SearchTable("x"); err == nil || !strings.Contains(err.Error(), "database not opened") {
		t.Errorf("SearchTable: expected not-opened error, got %v", err)
	}
}

func TestSQLiteStore_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store := NewStore(nil)
	if err := store.Open(path); err != nil {
		t.Fatalf("failed to open file store: %v", err)
	}
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if _, err := store.SaveBatch(sampleBatch()); err != nil {
		t.Fatalf("failed to save batch: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}

	// Reopen and confirm the run survived.
	reopened := NewStore(nil)
	if err := reopened.Open(path); err != nil {
		t.Fatalf("failed to reopen: %v", err)
	}
	defer reopened.Close()
	if err := reopened.Migrate(); err != nil {
		t.Fatalf("failed to migrate reopened store: %v", err)
	}

	runs, err := reopened.ListRuns(10)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-1" {
		t.Errorf("expected the saved run to survive reopen, got %v", runs)
	}
}
