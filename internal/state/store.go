// Package state persists analysis runs to SQLite so lineage history can be
// queried across invocations.
package state

import (
	"time"

	"github.com/tracelight-labs/tracelight/internal/batch"
	"github.com/tracelight-labs/tracelight/pkg/lineage"
)

// Run is one saved batch run with its summary tallies.
type Run struct {
	ID         string
	Root       string
	Dialect    string
	StartedAt  time.Time
	ElapsedMS  int64
	Scripts    int
	Failed     int
	Statements int
	Operations int
	Sources    int
	Targets    int
	Volatile   int
	Warnings   int
}

// ScriptRecord is one saved script result.
type ScriptRecord struct {
	ID         string
	Path       string
	Name       string
	Dialect    string
	Error      string
	ElapsedMS  int64
	Statements int
	Operations int
	Warnings   []lineage.Warning
}

// RunDetail is a run with its scripts loaded.
type RunDetail struct {
	Run     Run
	Scripts []ScriptRecord
}

// TableRole records which role a table played in a script.
type TableRole struct {
	ScriptName string
	Table      string
	Role       string
}

// Sighting locates a table in run history.
type Sighting struct {
	RunID      string
	StartedAt  time.Time
	ScriptName string
	Table      string
	Role       string
}

// Edge is one saved data movement.
type Edge struct {
	ScriptName string
	Source     string
	Target     string
	Operation  string
	Line       int
}

// Store persists analysis runs.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error
	SaveBatch(res *batch.Result) (string, error)
	ListRuns(limit int) ([]*Run, error)
	GetRun(id string) (*RunDetail, error)
	TablesForRun(runID string) ([]TableRole, error)
	EdgesForRun(runID string) ([]Edge, error)
	SearchTable(name string) ([]Sighting, error)
}
