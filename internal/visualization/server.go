// Package visualization serves a local dashboard for a running experiment:
// the I-V chart, parameter readout, derived statistics and the raw data set.
package visualization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nvandessel/photolab/internal/dataset"
	"github.com/nvandessel/photolab/internal/experiment"
	"github.com/nvandessel/photolab/internal/export"
	"github.com/nvandessel/photolab/internal/logging"
	"github.com/nvandessel/photolab/internal/physics"
	"github.com/nvandessel/photolab/internal/plot"
)

// DefaultListenAddr lets the OS pick a free localhost port.
const DefaultListenAddr = "localhost:0"

// Server serves the dashboard and its JSON API for one session.
type Server struct {
	session    *experiment.Session
	listenAddr string
	plotOpts   plot.Options
	refresh    int
	logger     *slog.Logger
	now        func() time.Time

	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
	addr       string
}

// Option configures a Server.
type Option func(*Server)

// WithListenAddr sets the listen address (default localhost:0).
func WithListenAddr(addr string) Option {
	return func(s *Server) { s.listenAddr = addr }
}

// WithPlotOptions sets the chart options.
func WithPlotOptions(o plot.Options) Option {
	return func(s *Server) { s.plotOpts = o }
}

// WithRefresh makes the dashboard reload itself every seconds. Zero disables it.
func WithRefresh(seconds int) Option {
	return func(s *Server) { s.refresh = max(0, seconds) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a dashboard server for session. The session is not
// closed by the server.
func NewServer(session *experiment.Session, opts ...Option) *Server {
	s := &Server{
		session:    session,
		listenAddr: DefaultListenAddr,
		plotOpts:   plot.DefaultOptions(),
		logger:     logging.Discard(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// URL returns the dashboard URL, or empty string before the server starts.
func (s *Server) URL() string {
	if a := s.Addr(); a != "" {
		return "http://" + a + "/"
	}
	return ""
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /plot.png", s.handlePlot(plot.FormatPNG))
	mux.HandleFunc("GET /plot.svg", s.handlePlot(plot.FormatSVG))
	mux.HandleFunc("GET /api/dataset", s.handleDataset)
	mux.HandleFunc("GET /api/groups", s.handleGroups)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/readout", s.handleReadout)
	mux.HandleFunc("GET /api/materials", s.handleMaterials)
	return mux
}

// ListenAndServe starts the HTTP server and blocks until the context is
// cancelled. Returns nil on clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Unlock()

	s.logger.Info("dashboard listening", "url", s.URL())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	err = s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

type dashboardView struct {
	Title          string
	SessionID      string
	Busy           bool
	RefreshSeconds int
	Parameters     experiment.Parameters
	Readout        experiment.Readout
	Stats          experiment.Statistics
	Threshold      string
	Correlation    string
	Groups         []dataset.Group
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	stats, err := s.session.Statistics(r.Context())
	if err != nil {
		s.serverError(w, "statistics", err)
		return
	}
	groups, err := s.session.Groups(r.Context())
	if err != nil {
		s.serverError(w, "groups", err)
		return
	}
	readout, err := s.session.Readout()
	if err != nil {
		s.serverError(w, "readout", err)
		return
	}

	view := dashboardView{
		Title:          s.plotOpts.Title,
		SessionID:      s.session.ID(),
		Busy:           s.session.Busy(),
		RefreshSeconds: s.refresh,
		Parameters:     s.session.Parameters(),
		Readout:        readout,
		Stats:          stats,
		Threshold:      "-",
		Correlation:    "-",
		Groups:         groups,
	}
	if v := stats.ThresholdVoltageV; v != nil {
		view.Threshold = fmt.Sprintf("%.2f V", *v)
	}
	if c := stats.Correlation; c != nil {
		view.Correlation = fmt.Sprintf("%.4f", *c)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, view); err != nil {
		s.logger.Error("rendering dashboard", "error", err)
	}
}

func (s *Server) handlePlot(format plot.Format) http.HandlerFunc {
	contentType := "image/png"
	if format == plot.FormatSVG {
		contentType = "image/svg+xml"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		points, err := s.session.Snapshot(r.Context())
		if err != nil {
			s.serverError(w, "snapshot", err)
			return
		}
		if len(points) == 0 {
			http.Error(w, plot.ErrNoData.Error(), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "no-store")
		if err := plot.Render(w, points, format, s.plotOpts); err != nil {
			s.logger.Error("rendering plot", "format", format, "error", err)
		}
	}
}

// handleDataset returns the data set as JSON, or as the CSV export when
// ?format=csv is given.
func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	points, err := s.session.Snapshot(r.Context())
	if err != nil {
		s.serverError(w, "snapshot", err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, map[string]any{"points": points, "count": len(points)})
	case "csv":
		if len(points) == 0 {
			http.Error(w, export.ErrEmptyDataset.Error(), http.StatusNotFound)
			return
		}
		now := s.now()
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(now)))
		err := export.Write(w, points, export.Metadata{
			ExportedAt: now,
			Constants:  physics.StandardConstants(),
			NoiseLevel: s.session.Parameters().NoiseLevel,
		})
		if err != nil {
			s.logger.Error("writing csv", "error", err)
		}
	default:
		http.Error(w, "unsupported format (want json or csv)", http.StatusBadRequest)
	}
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.session.Groups(r.Context())
	if err != nil {
		s.serverError(w, "groups", err)
		return
	}
	writeJSON(w, groups)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.session.Statistics(r.Context())
	if err != nil {
		s.serverError(w, "statistics", err)
		return
	}
	writeJSON(w, stats)
}

func (s *Server) handleReadout(w http.ResponseWriter, r *http.Request) {
	readout, err := s.session.Readout()
	if err != nil {
		s.serverError(w, "readout", err)
		return
	}
	writeJSON(w, map[string]any{
		"parameters": s.session.Parameters(),
		"readout":    readout,
		"busy":       s.session.Busy(),
	})
}

func (s *Server) handleMaterials(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, physics.Catalog())
}

func (s *Server) serverError(w http.ResponseWriter, what string, err error) {
	s.logger.Error("dashboard request failed", "what", what, "error", err)
	http.Error(w, what+" error: "+err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
