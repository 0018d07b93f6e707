// Package batch fans lineage analysis out over a tree of scripts. Scripts
// are analyzed concurrently but reported in discovery order, and one broken
// script never takes down the run.
package batch

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tracelight-labs/tracelight/internal/loader"
	"github.com/tracelight-labs/tracelight/pkg/dialect"
	"github.com/tracelight-labs/tracelight/pkg/lineage"
)

// Options configure a batch run.
type Options struct {
	// Dialect is the default SQL dialect. Scripts can override it with a
	// frontmatter directive. Empty means the registry default.
	Dialect string

	// Strategy selects the analysis strategy for every script.
	Strategy lineage.Strategy

	// Normalize is the default name normalization. Scripts can override
	// it with a frontmatter directive.
	Normalize lineage.NormalizeMode

	// Workers caps concurrent script analysis. Zero means NumCPU.
	Workers int

	// Logger receives run progress. Nil discards.
	Logger *slog.Logger
}

// ScriptResult is the outcome for a single script.
type ScriptResult struct {
	Path      string          `json:"path"`
	Name      string          `json:"name"`
	Dialect   string          `json:"dialect"`
	Tags      []string        `json:"tags,omitempty"`
	Result    *lineage.Result `json:"result,omitempty"`
	Err       string          `json:"error,omitempty"`
	ElapsedMS int64           `json:"elapsed_ms"`
}

// Failed reports whether the script could not be analyzed at all. Scripts
// with statement-level warnings still count as succeeded.
func (s *ScriptResult) Failed() bool {
	return s.Err != ""
}

// Summary tallies a whole run. Table counts are distinct across scripts.
type Summary struct {
	Scripts    int   `json:"scripts"`
	Failed     int   `json:"failed"`
	Statements int   `json:"statements"`
	Operations int   `json:"operations"`
	Sources    int   `json:"sources"`
	Targets    int   `json:"targets"`
	Volatile   int   `json:"volatile"`
	Warnings   int   `json:"warnings"`
	ElapsedMS  int64 `json:"elapsed_ms"`
}

// Result is the outcome of one batch run.
type Result struct {
	RunID     string         `json:"run_id"`
	Root      string         `json:"root"`
	Dialect   string         `json:"dialect"`
	StartedAt time.Time      `json:"started_at"`
	Scripts   []ScriptResult `json:"scripts"`
	Summary   Summary        `json:"summary"`
}

// Runner analyzes script trees. It is safe for concurrent use.
type Runner struct {
	opts   Options
	loader *loader.Loader
	logger *slog.Logger

	mu      sync.Mutex
	engines map[engineKey]*lineage.Engine
}

type engineKey struct {
	dialect   string
	normalize lineage.NormalizeMode
}

// NewRunner creates a Runner with the given options.
func NewRunner(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		opts:    opts,
		loader:  loader.New(),
		logger:  logger,
		engines: make(map[engineKey]*lineage.Engine),
	}
}

// Run analyzes every script under root, which may also be a single file.
// Script failures are recorded per script; Run itself fails only when root
// cannot be read or the context is cancelled.
func (r *Runner) Run(ctx context.Context, root string) (*Result, error) {
	started := time.Now()

	paths, err := r.discover(root)
	if err != nil {
		return nil, err
	}

	defaultDialect := r.opts.Dialect
	if defaultDialect == "" {
		defaultDialect = dialect.Default().Name
	}

	res := &Result{
		RunID:     uuid.New().String(),
		Root:      root,
		Dialect:   defaultDialect,
		StartedAt: started.UTC(),
		Scripts:   make([]ScriptResult, len(paths)),
	}

	workers := r.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res.Scripts[i] = r.analyzeOne(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.summarize(res, time.Since(started))
	r.logger.Info("batch analyzed",
		"run_id", res.RunID,
		"root", root,
		"scripts", res.Summary.Scripts,
		"failed", res.Summary.Failed,
		"elapsed_ms", res.Summary.ElapsedMS,
	)
	return res, nil
}

// discover resolves root into the ordered list of script paths.
func (r *Runner) discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	return r.loader.Discover(root)
}

func (r *Runner) analyzeOne(path string) ScriptResult {
	started := time.Now()
	sr := ScriptResult{Path: path, Name: path}

	script, err := r.loader.Load(path)
	if err != nil {
		return r.fail(sr, started, err)
	}
	sr.Name = script.Name
	sr.Tags = script.Directives.Tags

	dialectName := r.opts.Dialect
	if script.Directives.Dialect != "" {
		dialectName = script.Directives.Dialect
	}

	normalize := r.opts.Normalize
	if script.Directives.Normalize != "" {
		mode, err := lineage.ParseNormalizeMode(script.Directives.Normalize)
		if err != nil {
			return r.fail(sr, started, err)
		}
		normalize = mode
	}

	engine, err := r.engineFor(dialectName, normalize)
	if err != nil {
		return r.fail(sr, started, err)
	}
	sr.Dialect = engine.Dialect().Name

	var result *lineage.Result
	if len(script.Blocks) > 0 {
		result, err = engine.AnalyzeBlocks(script.Blocks)
	} else {
		result, err = engine.AnalyzeScript(script.SQL)
	}
	if err != nil {
		return r.fail(sr, started, err)
	}

	sr.Result = result
	sr.ElapsedMS = time.Since(started).Milliseconds()
	r.logger.Debug("script analyzed",
		"path", path,
		"dialect", sr.Dialect,
		"operations", len(result.Operations),
		"warnings", len(result.Warnings),
	)
	return sr
}

func (r *Runner) fail(sr ScriptResult, started time.Time, err error) ScriptResult {
	sr.Err = err.Error()
	sr.ElapsedMS = time.Since(started).Milliseconds()
	r.logger.Warn("script failed", "path", sr.Path, "error", err)
	return sr
}

// engineFor returns a cached engine for the dialect and normalization pair.
func (r *Runner) engineFor(dialectName string, normalize lineage.NormalizeMode) (*lineage.Engine, error) {
	key := engineKey{dialect: dialectName, normalize: normalize}

	r.mu.Lock()
	defer r.mu.Unlock()
	if engine, ok := r.engines[key]; ok {
		return engine, nil
	}

	engine, err := lineage.New(lineage.Options{
		Dialect:   dialectName,
		Strategy:  r.opts.Strategy,
		Normalize: normalize,
		Logger:    r.logger,
	})
	if err != nil {
		return nil, err
	}
	r.engines[key] = engine
	return engine, nil
}

func (r *Runner) summarize(res *Result, elapsed time.Duration) {
	sources := make(map[string]struct{})
	targets := make(map[string]struct{})
	volatile := make(map[string]struct{})

	s := &res.Summary
	s.Scripts = len(res.Scripts)
	s.ElapsedMS = elapsed.Milliseconds()

	for i := range res.Scripts {
		sr := &res.Scripts[i]
		if sr.Failed() {
			s.Failed++
			continue
		}
		s.Statements += sr.Result.StatementCount
		s.Operations += len(sr.Result.Operations)
		s.Warnings += len(sr.Result.Warnings)
		for _, t := range sr.Result.SourceTables {
			sources[t] = struct{}{}
		}
		for _, t := range sr.Result.TargetTables {
			targets[t] = struct{}{}
		}
		for _, t := range sr.Result.VolatileTables {
			volatile[t] = struct{}{}
		}
	}

	s.Sources = len(sources)
	s.Targets = len(targets)
	s.Volatile = len(volatile)
}
