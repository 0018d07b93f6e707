package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelight-labs/tracelight/internal/batch"
	"github.com/tracelight-labs/tracelight/pkg/lineage"
)

// sampleResult mimics a small staging script: a volatile staging table is
// built from a warehouse table, loaded into a mart twice, and a reference
// table is only read.
func sampleResult() *lineage.Result {
	return &lineage.Result{
		SourceTables:   []string{"edw.daily_sales", "edw.ref_dim", "vt_sales"},
		TargetTables:   []string{"mart.sales_sum", "vt_sales"},
		VolatileTables: []string{"vt_sales"},
		StatementCount: 4,
		Operations: []lineage.Operation{
			{
				Kind:    lineage.OpCreateVolatile,
				Target:  &lineage.TableRef{Name: "vt_sales"},
				Sources: []lineage.TableRef{{Schema: "edw", Name: "daily_sales"}},
				Line:    2,
				RawText: "create volatile table vt_sales as (select * from edw.daily_sales) with data",
			},
			{
				Kind:    lineage.OpInsert,
				Target:  &lineage.TableRef{Schema: "mart", Name: "sales_sum"},
				Sources: []lineage.TableRef{{Name: "vt_sales"}},
				Line:    5,
				RawText: "insert into mart.sales_sum select region, sum(amt) from vt_sales group by region",
			},
			{
				Kind:    lineage.OpInsert,
				Target:  &lineage.TableRef{Schema: "mart", Name: "sales_sum"},
				Sources: []lineage.TableRef{{Name: "vt_sales"}},
				Line:    8,
				RawText: "INSERT INTO mart.sales_sum\n  SELECT region, sum(amt)\n  FROM vt_sales\n  GROUP BY region",
			},
			{
				Kind:    lineage.OpSelect,
				Sources: []lineage.TableRef{{Schema: "edw", Name: "ref_dim"}},
				Line:    11,
				RawText: "select * from edw.ref_dim",
			},
		},
		Warnings: []lineage.Warning{{Line: 9, Message: "unsupported statement"}},
	}
}

func TestBuildScript(t *testing.T) {
	rep := BuildScript("daily_sales", sampleResult())

	assert.Equal(t, "daily_sales", rep.ScriptName)
	assert.Equal(t, ScriptSummary{
		Statements: 4,
		Operations: 4,
		Sources:    3,
		Targets:    2,
		Volatile:   1,
		Warnings:   1,
	}, rep.Summary)
	assert.Equal(t, []string{"line 9: unsupported statement"}, rep.Warnings)
}

func TestBuildScript_StatementTableDedupes(t *testing.T) {
	rep := BuildScript("daily_sales", sampleResult())

	// Four operations, but the two inserts canonicalize to the same text.
	require.Len(t, rep.Statements, 3)
	assert.Equal(t,
		"CREATE VOLATILE TABLE vt_sales AS (SELECT * FROM edw.daily_sales) WITH DATA",
		rep.Statements[0])
	assert.Equal(t,
		"INSERT INTO mart.sales_sum SELECT region, sum(amt) FROM vt_sales GROUP BY region",
		rep.Statements[1])
	assert.Equal(t, "SELECT * FROM edw.ref_dim", rep.Statements[2])
}

func TestBuildScript_TableFlows(t *testing.T) {
	rep := BuildScript("daily_sales", sampleResult())

	require.Len(t, rep.Tables, 4)

	vt := rep.Tables["vt_sales"]
	require.NotNil(t, vt)
	assert.True(t, vt.IsVolatile)
	assert.Equal(t, []TableFlow{{Name: "edw.daily_sales", Operations: []int{0}}}, vt.Source)
	assert.Equal(t, []TableFlow{{Name: "mart.sales_sum", Operations: []int{1}}}, vt.Target)

	// Both inserts land on statement index 1, so the mart keeps one flow
	// with one index.
	mart := rep.Tables["mart.sales_sum"]
	require.NotNil(t, mart)
	assert.False(t, mart.IsVolatile)
	assert.Equal(t, []TableFlow{{Name: "vt_sales", Operations: []int{1}}}, mart.Source)
	assert.Empty(t, mart.Target)

	// Read-only tables still get an entry.
	ref := rep.Tables["edw.ref_dim"]
	require.NotNil(t, ref)
	assert.Empty(t, ref.Source)
	assert.Empty(t, ref.Target)
}

func TestBuildScript_NilResult(t *testing.T) {
	rep := BuildScript("broken", nil)

	assert.Equal(t, "broken", rep.ScriptName)
	assert.NotNil(t, rep.Statements)
	assert.NotNil(t, rep.Tables)
	assert.NotNil(t, rep.Warnings)
	assert.Zero(t, rep.Summary)
}

func TestBuildScript_DistinctIndicesMerge(t *testing.T) {
	res := &lineage.Result{
		SourceTables:   []string{"src_t"},
		TargetTables:   []string{"dst_t"},
		StatementCount: 2,
		Operations: []lineage.Operation{
			{
				Kind:    lineage.OpInsert,
				Target:  &lineage.TableRef{Name: "dst_t"},
				Sources: []lineage.TableRef{{Name: "src_t"}},
				Line:    1,
				RawText: "insert into dst_t select * from src_t",
			},
			{
				Kind:    lineage.OpInsert,
				Target:  &lineage.TableRef{Name: "dst_t"},
				Sources: []lineage.TableRef{{Name: "src_t"}},
				Line:    4,
				RawText: "insert into dst_t select * from src_t where ins_dt = current_date",
			},
		},
	}
	rep := BuildScript("incremental", res)

	require.Len(t, rep.Statements, 2)
	assert.Equal(t, []TableFlow{{Name: "src_t", Operations: []int{0, 1}}},
		rep.Tables["dst_t"].Source)
	assert.Equal(t, []TableFlow{{Name: "dst_t", Operations: []int{0, 1}}},
		rep.Tables["src_t"].Target)
}

func TestBuildScript_SkipsSubquerySources(t *testing.T) {
	res := &lineage.Result{
		SourceTables:   []string{"src_t"},
		TargetTables:   []string{"dst_t"},
		StatementCount: 1,
		Operations: []lineage.Operation{
			{
				Kind:   lineage.OpInsert,
				Target: &lineage.TableRef{Name: "dst_t"},
				Sources: []lineage.TableRef{
					{Name: "src_t"},
					{Alias: "dt", IsSubquery: true},
				},
				Line:    1,
				RawText: "insert into dst_t select * from src_t, (select 1) dt",
			},
		},
	}
	rep := BuildScript("subq", res)

	require.NotNil(t, rep.Tables["dst_t"])
	assert.Equal(t, []TableFlow{{Name: "src_t", Operations: []int{0}}},
		rep.Tables["dst_t"].Source)
}

func TestBuildBatch(t *testing.T) {
	br := &batch.Result{
		RunID:   "run-1",
		Root:    "etl",
		Dialect: "teradata",
		Scripts: []batch.ScriptResult{
			{
				Path:    "etl/daily_sales.sql",
				Name:    "daily_sales",
				Dialect: "teradata",
				Tags:    []string{"finance"},
				Result:  sampleResult(),
			},
			{
				Path:    "etl/broken.sql",
				Name:    "broken",
				Dialect: "teradata",
				Err:     "load failed",
			},
		},
		Summary: batch.Summary{
			Scripts:    2,
			Failed:     1,
			Statements: 4,
			Operations: 4,
			Sources:    3,
			Targets:    2,
			Volatile:   1,
			Warnings:   1,
			ElapsedMS:  12,
		},
	}

	rep := BuildBatch(br)

	assert.Equal(t, "run-1", rep.RunID)
	assert.Equal(t, "etl", rep.Root)
	assert.Equal(t, "teradata", rep.Dialect)
	assert.Equal(t, RunSummary{
		Scripts:    2,
		Failed:     1,
		Statements: 4,
		Operations: 4,
		Sources:    3,
		Targets:    2,
		Volatile:   1,
		Warnings:   1,
		ElapsedMS:  12,
	}, rep.Summary)

	require.Len(t, rep.Scripts, 2)
	ok := rep.Scripts[0]
	assert.Equal(t, "daily_sales", ok.ScriptName)
	assert.Equal(t, "etl/daily_sales.sql", ok.Path)
	assert.Equal(t, []string{"finance"}, ok.Tags)
	assert.Empty(t, ok.Error)
	assert.Len(t, ok.Tables, 4)

	failed := rep.Scripts[1]
	assert.Equal(t, "broken", failed.ScriptName)
	assert.Equal(t, "load failed", failed.Error)
	assert.Empty(t, failed.Tables)
	assert.NotNil(t, failed.Statements)
}

func TestFormatStatement(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "keywords fold upper",
			in:   "select * from t1",
			want: "SELECT * FROM t1",
		},
		{
			name: "whitespace collapses",
			in:   "SeLeCt x, y\nFROM   t\n WHERE x = 1",
			want: "SELECT x, y FROM t WHERE x = 1",
		},
		{
			name: "single quotes pass through",
			in:   "select 'It''s  here' from t",
			want: "SELECT 'It''s  here' FROM t",
		},
		{
			name: "double quoted identifiers pass through",
			in:   "update t set c = \"Weird  Name\"",
			want: "UPDATE t SET c = \"Weird  Name\"",
		},
		{
			name: "identifiers keep their case",
			in:   "insert into Mart.Sales select * from Stg",
			want: "INSERT INTO Mart.Sales SELECT * FROM Stg",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "  select 1  ",
			want: "SELECT 1",
		},
		{
			name: "unterminated quote keeps the rest",
			in:   "select 'open from t",
			want: "SELECT 'open from t",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatStatement(tt.in))
		})
	}
}
