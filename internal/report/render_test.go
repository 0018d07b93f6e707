package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelight-labs/tracelight/internal/batch"
)

func TestWriteJSON(t *testing.T) {
	rep := BuildScript("daily_sales", sampleResult())
	rep.Dialect = "teradata"

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, rep))

	out := buf.String()
	assert.Contains(t, out, `"script_name": "daily_sales"`)
	assert.Contains(t, out, `"dialect": "teradata"`)
	assert.Contains(t, out, `"is_volatile": true`)
	assert.Contains(t, out, `"operation"`)

	// The document must decode back into the same shape.
	var decoded ScriptReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, rep.Statements, decoded.Statements)
	assert.Equal(t, rep.Summary, decoded.Summary)
}

func TestWriteYAML(t *testing.T) {
	rep := BuildScript("daily_sales", sampleResult())

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, rep))

	out := buf.String()
	assert.Contains(t, out, "script_name: daily_sales")
	assert.Contains(t, out, "is_volatile: true")
	assert.Contains(t, out, "vt_sales:")
}

func TestRenderScript(t *testing.T) {
	rep := BuildScript("daily_sales", sampleResult())
	rep.Dialect = "teradata"

	var buf bytes.Buffer
	RenderScript(&buf, rep)

	out := buf.String()
	assert.Contains(t, out, "Script: daily_sales (teradata)")
	assert.Contains(t, out, "4 statements, 4 operations")
	assert.Contains(t, out, "vt_sales")
	assert.Contains(t, out, "edw.daily_sales")
	assert.Contains(t, out, "(4 tables)")
	assert.Contains(t, out, "Warnings:")
	assert.Contains(t, out, "line 9: unsupported statement")
}

func TestRenderScript_Failed(t *testing.T) {
	rep := BuildScript("broken", nil)
	rep.Error = "read script: no such file"

	var buf bytes.Buffer
	RenderScript(&buf, rep)

	out := buf.String()
	assert.Contains(t, out, "Script: broken")
	assert.Contains(t, out, "Error: read script: no such file")
	assert.NotContains(t, out, "tables")
}

func TestRenderBatch(t *testing.T) {
	br := &batch.Result{
		RunID:   "run-7",
		Root:    "etl",
		Dialect: "teradata",
		Scripts: []batch.ScriptResult{
			{Path: "etl/ok.sql", Name: "ok", Dialect: "teradata", Result: sampleResult()},
			{Path: "etl/broken.sql", Name: "broken", Dialect: "teradata", Err: "load failed"},
		},
		Summary: batch.Summary{Scripts: 2, Failed: 1, Statements: 4, Operations: 4},
	}
	rep := BuildBatch(br)

	var buf bytes.Buffer
	RenderBatch(&buf, rep)

	out := buf.String()
	assert.Contains(t, out, "Run run-7 over etl")
	assert.Contains(t, out, "(2 scripts, 1 failed)")
	assert.Contains(t, out, "Totals: 4 statements, 4 operations")
	assert.Contains(t, out, "Failures:")
	assert.Contains(t, out, "broken: load failed")
}
