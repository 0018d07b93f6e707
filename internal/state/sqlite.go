package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tracelight-labs/tracelight/internal/batch"
	"github.com/tracelight-labs/tracelight/pkg/lineage"
)

// SQLiteStore implements Store on a SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewStore creates an unopened store. A nil logger discards.
func NewStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(wal)", path)
	} else {
		dsn = ":memory:?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// A pooled second connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// SaveBatch persists a whole run. Saving the same run ID again replaces the
// earlier record.
func (s *SQLiteStore) SaveBatch(res *batch.Result) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// The cascade clears any children of a previously saved copy.
	if _, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, res.RunID); err != nil {
		return "", fmt.Errorf("failed to clear existing run: %w", err)
	}

	sum := res.Summary
	if _, err := tx.Exec(
		`INSERT INTO runs (id, root, dialect, started_at, elapsed_ms, scripts, failed,
			statements, operations, sources, targets, volatile, warnings)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.Root, res.Dialect, res.StartedAt.UTC(), sum.ElapsedMS,
		sum.Scripts, sum.Failed, sum.Statements, sum.Operations,
		sum.Sources, sum.Targets, sum.Volatile, sum.Warnings,
	); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for i := range res.Scripts {
		sc := &res.Scripts[i]
		scriptID := generateID()

		var errMsg sql.NullString
		if sc.Err != "" {
			errMsg = sql.NullString{String: sc.Err, Valid: true}
		}
		stmts, ops := 0, 0
		if sc.Result != nil {
			stmts = sc.Result.StatementCount
			ops = len(sc.Result.Operations)
		}

		if _, err := tx.Exec(
			`INSERT INTO scripts (id, run_id, path, name, dialect, error, elapsed_ms, statements, operations)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			scriptID, res.RunID, sc.Path, sc.Name, sc.Dialect, errMsg, sc.ElapsedMS, stmts, ops,
		); err != nil {
			return "", fmt.Errorf("failed to insert script %s: %w", sc.Name, err)
		}

		if sc.Result == nil {
			continue
		}
		if err := insertLineage(tx, scriptID, sc.Result); err != nil {
			return "", fmt.Errorf("failed to insert lineage for %s: %w", sc.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}

	s.logger.Debug("run saved",
		slog.String("id", res.RunID),
		slog.Int("scripts", len(res.Scripts)))
	return res.RunID, nil
}

func insertLineage(tx *sql.Tx, scriptID string, res *lineage.Result) error {
	roles := []struct {
		role  string
		names []string
	}{
		{"source", res.SourceTables},
		{"target", res.TargetTables},
		{"volatile", res.VolatileTables},
	}
	for _, r := range roles {
		for _, name := range r.names {
			if _, err := tx.Exec(
				`INSERT INTO script_tables (script_id, table_name, role) VALUES (?, ?, ?)`,
				scriptID, name, r.role,
			); err != nil {
				return fmt.Errorf("failed to insert table role: %w", err)
			}
		}
	}

	for _, op := range res.Operations {
		if op.Target == nil {
			continue
		}
		target := op.Target.Qualified()
		kind := op.Kind.String()
		for _, src := range op.Sources {
			if src.IsSubquery {
				continue
			}
			if _, err := tx.Exec(
				`INSERT INTO edges (script_id, source_table, target_table, operation, line)
				 VALUES (?, ?, ?, ?, ?)`,
				scriptID, src.Qualified(), target, kind, op.Line,
			); err != nil {
				return fmt.Errorf("failed to insert edge: %w", err)
			}
		}
	}

	for _, w := range res.Warnings {
		if _, err := tx.Exec(
			`INSERT INTO warnings (script_id, line, message) VALUES (?, ?, ?)`,
			scriptID, w.Line, w.Message,
		); err != nil {
			return fmt.Errorf("failed to insert warning: %w", err)
		}
	}
	return nil
}
