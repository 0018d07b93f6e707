package state

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/tracelight-labs/tracelight/pkg/lineage"
)

// ListRuns retrieves the most recent runs up to the given limit.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, root, dialect, started_at, elapsed_ms, scripts, failed,
			statements, operations, sources, targets, volatile, warnings
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		if err := rows.Scan(
			&run.ID, &run.Root, &run.Dialect, &run.StartedAt, &run.ElapsedMS,
			&run.Scripts, &run.Failed, &run.Statements, &run.Operations,
			&run.Sources, &run.Targets, &run.Volatile, &run.Warnings,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun retrieves one run with its scripts and their warnings.
func (s *SQLiteStore) GetRun(id string) (*RunDetail, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	detail := &RunDetail{}
	run := &detail.Run
	err := s.db.QueryRow(
		`SELECT id, root, dialect, started_at, elapsed_ms, scripts, failed,
			statements, operations, sources, targets, volatile, warnings
		 FROM runs WHERE id = ?`, id,
	).Scan(
		&run.ID, &run.Root, &run.Dialect, &run.StartedAt, &run.ElapsedMS,
		&run.Scripts, &run.Failed, &run.Statements, &run.Operations,
		&run.Sources, &run.Targets, &run.Volatile, &run.Warnings,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT id, path, name, dialect, error, elapsed_ms, statements, operations
		 FROM scripts WHERE run_id = ? ORDER BY path`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get scripts: %w", err)
	}
	defer rows.Close()

	scriptIdx := make(map[string]int)
	for rows.Next() {
		var sc ScriptRecord
		var errMsg sql.NullString
		if err := rows.Scan(
			&sc.ID, &sc.Path, &sc.Name, &sc.Dialect, &errMsg,
			&sc.ElapsedMS, &sc.Statements, &sc.Operations,
		); err != nil {
			return nil, fmt.Errorf("failed to scan script: %w", err)
		}
		if errMsg.Valid {
			sc.Error = errMsg.String
		}
		scriptIdx[sc.ID] = len(detail.Scripts)
		detail.Scripts = append(detail.Scripts, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	warnRows, err := s.db.Query(
		`SELECT w.script_id, w.line, w.message
		 FROM warnings w JOIN scripts s ON s.id = w.script_id
		 WHERE s.run_id = ? ORDER BY s.path, w.line`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get warnings: %w", err)
	}
	defer warnRows.Close()

	for warnRows.Next() {
		var scriptID string
		var warn lineage.Warning
		if err := warnRows.Scan(&scriptID, &warn.Line, &warn.Message); err != nil {
			return nil, fmt.Errorf("failed to scan warning: %w", err)
		}
		if idx, ok := scriptIdx[scriptID]; ok {
			detail.Scripts[idx].Warnings = append(detail.Scripts[idx].Warnings, warn)
		}
	}
	return detail, warnRows.Err()
}

// TablesForRun lists every table role recorded for a run.
func (s *SQLiteStore) TablesForRun(runID string) ([]TableRole, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT s.name, t.table_name, t.role
		 FROM script_tables t JOIN scripts s ON s.id = t.script_id
		 WHERE s.run_id = ? ORDER BY t.table_name, s.name, t.role`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	defer rows.Close()

	var tables []TableRole
	for rows.Next() {
		var tr TableRole
		if err := rows.Scan(&tr.ScriptName, &tr.Table, &tr.Role); err != nil {
			return nil, fmt.Errorf("failed to scan table role: %w", err)
		}
		tables = append(tables, tr)
	}
	return tables, rows.Err()
}

// EdgesForRun lists every data movement recorded for a run.
func (s *SQLiteStore) EdgesForRun(runID string) ([]Edge, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT s.name, e.source_table, e.target_table, e.operation, e.line
		 FROM edges e JOIN scripts s ON s.id = e.script_id
		 WHERE s.run_id = ? ORDER BY s.name, e.line`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get edges: %w", err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.ScriptName, &e.Source, &e.Target, &e.Operation, &e.Line); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// SearchTable finds every run and script that touched the named table. The
// name is matched as stored, after the run's normalization.
func (s *SQLiteStore) SearchTable(name string) ([]Sighting, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT r.id, r.started_at, s.name, t.table_name, t.role
		 FROM script_tables t
		 JOIN scripts s ON s.id = t.script_id
		 JOIN runs r ON r.id = s.run_id
		 WHERE t.table_name = ?
		 ORDER BY r.started_at DESC, s.name, t.role`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to search table: %w", err)
	}
	defer rows.Close()

	var sightings []Sighting
	for rows.Next() {
		var sg Sighting
		if err := rows.Scan(&sg.RunID, &sg.StartedAt, &sg.ScriptName, &sg.Table, &sg.Role); err != nil {
			return nil, fmt.Errorf("failed to scan sighting: %w", err)
		}
		sightings = append(sightings, sg)
	}
	return sightings, rows.Err()
}
