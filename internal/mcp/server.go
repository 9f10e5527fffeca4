// Package mcp provides an MCP (Model Context Protocol) server for photolab.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/photolab/internal/experiment"
	"github.com/nvandessel/photolab/internal/logging"
	"github.com/nvandessel/photolab/internal/ratelimit"
)

// Server wraps the MCP SDK server around one experiment session.
type Server struct {
	server       *sdk.Server
	session      *experiment.Session
	logger       *slog.Logger
	auditLogger  *AuditLogger
	toolLimiters ratelimit.ToolLimiters
	exportDir    string
	now          func() time.Time

	closeOnce sync.Once
	closeErr  error
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "photolab")
	Version string // Server version

	// ExportDir is where photolab_export writes files given as bare names.
	// Empty means the working directory.
	ExportDir string

	// AuditDir receives audit.jsonl. Empty disables auditing.
	AuditDir string

	Logger *slog.Logger
}

// NewServer creates an MCP server exposing session through photolab tools.
// The server takes ownership of session and closes it on Close.
func NewServer(session *experiment.Session, cfg *Config) (*Server, error) {
	if session == nil {
		return nil, errors.New("mcp: nil session")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		session:      session,
		logger:       logger,
		toolLimiters: ratelimit.NewToolLimiters(),
		exportDir:    cfg.ExportDir,
		now:          time.Now,
	}
	if cfg.AuditDir != "" {
		s.auditLogger = NewAuditLogger(cfg.AuditDir)
	}

	if err := s.registerTools(); err != nil {
		s.auditLogger.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	if err := s.registerResources(); err != nil {
		s.auditLogger.Close()
		return nil, fmt.Errorf("failed to register resources: %w", err)
	}

	return s, nil
}

// Run serves over stdio until the client disconnects, ctx is cancelled or
// the process is interrupted. The session is closed on return.
func (s *Server) Run(ctx context.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.logger.Info("mcp server starting", "session", s.session.ID())
	err := s.server.Run(sigCtx, &sdk.StdioTransport{})
	if sigCtx.Err() != nil && ctx.Err() == nil {
		s.logger.Info("received signal, shutting down mcp server")
	}

	if cerr := s.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Close closes the session and the audit log. Later calls return the
// result of the first.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.auditLogger.Close()
		s.closeErr = s.session.Close()
	})
	return s.closeErr
}

// exportPath resolves a user-supplied export path against the export directory.
func (s *Server) exportPath(name string) string {
	if name == "" || filepath.IsAbs(name) || s.exportDir == "" {
		return name
	}
	return filepath.Join(s.exportDir, name)
}
