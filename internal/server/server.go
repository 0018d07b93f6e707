// Package server serves analysis results over HTTP: a JSON API over the
// latest batch snapshot plus a small embedded viewer page. In watch mode
// the snapshot is rebuilt whenever a script under the root changes.
package server

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/tracelight-labs/tracelight/internal/batch"
	"github.com/tracelight-labs/tracelight/internal/loader"
	"github.com/tracelight-labs/tracelight/internal/report"
	"github.com/tracelight-labs/tracelight/pkg/lineage"
)

// snapshot is one self-consistent view of the analyzed root. Handlers read
// whole snapshots, never parts, so a refresh can swap them atomically.
type snapshot struct {
	batch  *batch.Result
	report *report.BatchReport
	graph  *report.Graph
}

// Config holds configuration for the viewer server.
type Config struct {
	Addr   string
	Root   string
	Watch  bool
	Runner *batch.Runner
	Logger *slog.Logger
}

// Server is the lineage viewer server.
type Server struct {
	addr   string
	root   string
	watch  bool
	runner *batch.Runner
	logger *slog.Logger

	mu   sync.RWMutex
	snap *snapshot
}

// NewServer creates a viewer server. A nil logger discards.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		addr:   cfg.Addr,
		root:   cfg.Root,
		watch:  cfg.Watch,
		runner: cfg.Runner,
		logger: logger,
	}
}

// Refresh re-analyzes the root and swaps the served snapshot.
func (s *Server) Refresh(ctx context.Context) error {
	res, err := s.runner.Run(ctx, s.root)
	if err != nil {
		return err
	}

	results := make([]*lineage.Result, 0, len(res.Scripts))
	for i := range res.Scripts {
		results = append(results, res.Scripts[i].Result)
	}

	snap := &snapshot{
		batch:  res,
		report: report.BuildBatch(res),
		graph:  report.BuildGraph(results...),
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.logger.Info("snapshot refreshed",
		"run_id", res.RunID,
		"scripts", res.Summary.Scripts,
		"failed", res.Summary.Failed)
	return nil
}

// current returns the latest snapshot, or nil before the first refresh.
func (s *Server) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Serve analyzes the root once, then serves it until the context is
// cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		return fmt.Errorf("initial analysis: %w", err)
	}

	s.logger.Info("starting viewer server", "addr", fmt.Sprintf("http://%s", displayAddr(s.addr)))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchScripts(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down viewer server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchScripts re-analyzes the root when a script changes.
func (s *Server) watchScripts(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, s.root); err != nil {
		s.logger.Error("failed to watch script root", "error", err)
		// Keep serving the initial snapshot without watching.
	}

	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !loader.IsScript(event.Name) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("script changed, re-analyzing", "file", event.Name)
				if err := s.Refresh(context.Background()); err != nil {
					s.logger.Error("re-analysis failed", "error", err)
				}
			})

		case err := <-watcher.Errors:
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
