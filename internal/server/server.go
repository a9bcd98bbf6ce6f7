// internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"jgrants-mcp/internal/common/config"
	"jgrants-mcp/internal/common/logger"

	jsoniter "github.com/json-iterator/go"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const shutdownTimeout = 10 * time.Second

// Tool is one callable exposed to the MCP host.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	GetToolName() string
	IsEnabled() bool
}

type Server struct {
	config   *config.Config
	logger   logger.Logger
	errorLog *log.Logger
	mcp      *mcpserver.MCPServer
	tools    []string
	ready    atomic.Bool
}

type Options struct {
	Config *config.Config
	Logger logger.Logger
	// ErrorLog receives stdio transport errors from the MCP library.
	ErrorLog *log.Logger
	Tools    []Tool
}

func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewNoOpLogger()
	}
	errorLog := opts.ErrorLog
	if errorLog == nil {
		errorLog = log.New(io.Discard, "", 0)
	}

	mcpServer := mcpserver.NewMCPServer(
		opts.Config.App.Name,
		opts.Config.App.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)

	s := &Server{
		config:   opts.Config,
		logger:   loggerInstance,
		errorLog: errorLog,
		mcp:      mcpServer,
	}

	for _, tool := range opts.Tools {
		if !tool.IsEnabled() {
			loggerInstance.Info("Tool disabled by configuration", map[string]interface{}{
				"tool": tool.GetToolName(),
			})
			continue
		}
		mcpServer.AddTool(tool.Definition(), tool.Handle)
		s.tools = append(s.tools, tool.GetToolName())
	}

	if len(s.tools) == 0 {
		return nil, fmt.Errorf("no tools enabled")
	}

	loggerInstance.Info("Registered MCP tools", map[string]interface{}{
		"tools": s.tools,
	})
	return s, nil
}

// MCPServer exposes the underlying protocol server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// Tools lists the registered tool names in registration order.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

// ServeStdio speaks MCP over the given streams until ctx is cancelled or
// the input is closed. When a metrics address is configured, health and
// metrics endpoints are served alongside.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if addr := s.config.Server.MetricsAddress; addr != "" {
		mux := http.NewServeMux()
		s.registerOpsHandlers(mux)
		go func() {
			if err := s.listen(ctx, addr, mux); err != nil {
				s.logger.Error("Metrics server failed", map[string]interface{}{
					"address": addr,
					"error":   err.Error(),
				})
			}
		}()
	}

	stdio := mcpserver.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(s.errorLog)

	s.ready.Store(true)
	defer s.ready.Store(false)

	s.logger.Info("Serving MCP over stdio", nil)
	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("stdio transport: %w", err)
	}
	return nil
}

// ServeHTTP runs the streamable HTTP transport until ctx is cancelled.
func (s *Server) ServeHTTP(ctx context.Context) error {
	addr := s.config.Server.HTTPAddress
	s.logger.Info("Serving MCP over HTTP", map[string]interface{}{
		"address":  addr,
		"endpoint": s.config.Server.EndpointPath,
	})

	s.ready.Store(true)
	defer s.ready.Store(false)
	return s.listen(ctx, addr, s.Handler())
}

// Handler returns the HTTP mux: the MCP endpoint plus health, readiness and
// metrics.
func (s *Server) Handler() http.Handler {
	path := s.config.Server.EndpointPath
	streamable := mcpserver.NewStreamableHTTPServer(s.mcp, mcpserver.WithEndpointPath(path))

	mux := http.NewServeMux()
	mux.Handle(path, streamable)
	s.registerOpsHandlers(mux)
	return mux
}

func (s *Server) registerOpsHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			writeStatus(w, http.StatusServiceUnavailable, "starting")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) listen(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
