package server

import (
	"embed"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tracelight-labs/tracelight/internal/report"
)

//go:embed web
var webFS embed.FS

// scriptListing is the /api/scripts row: a script without its lineage
// detail, which stays behind /api/scripts/{name}.
type scriptListing struct {
	Name    string               `json:"name"`
	Path    string               `json:"path"`
	Dialect string               `json:"dialect,omitempty"`
	Tags    []string             `json:"tags,omitempty"`
	Error   string               `json:"error,omitempty"`
	Summary report.ScriptSummary `json:"summary"`
}

type summaryResponse struct {
	RunID   string            `json:"run_id"`
	Root    string            `json:"root"`
	Dialect string            `json:"dialect,omitempty"`
	Summary report.RunSummary `json:"summary"`
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(s.logger),
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/healthz", s.handleHealthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", s.handleSummary)
		r.Get("/scripts", s.handleScripts)
		r.Get("/scripts/{name}", s.handleScript)
		r.Get("/graph", s.handleGraph)
	})
	r.Get("/", s.handleIndex)

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap := s.current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no analysis available yet")
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		RunID:   snap.report.RunID,
		Root:    snap.report.Root,
		Dialect: snap.report.Dialect,
		Summary: snap.report.Summary,
	})
}

func (s *Server) handleScripts(w http.ResponseWriter, r *http.Request) {
	snap := s.current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no analysis available yet")
		return
	}

	listings := make([]scriptListing, 0, len(snap.report.Scripts))
	for _, sc := range snap.report.Scripts {
		listings = append(listings, scriptListing{
			Name:    sc.ScriptName,
			Path:    sc.Path,
			Dialect: sc.Dialect,
			Tags:    sc.Tags,
			Error:   sc.Error,
			Summary: sc.Summary,
		})
	}
	writeJSON(w, http.StatusOK, listings)
}

func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	snap := s.current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no analysis available yet")
		return
	}

	name := chi.URLParam(r, "name")
	for _, sc := range snap.report.Scripts {
		if sc.ScriptName == name {
			writeJSON(w, http.StatusOK, sc)
			return
		}
	}
	writeError(w, http.StatusNotFound, "script not found: "+name)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	snap := s.current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no analysis available yet")
		return
	}
	writeJSON(w, http.StatusOK, snap.graph)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "viewer page missing")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger logs each request through the server's slog logger.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("elapsed", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
