package mcp

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/nudgedev/nudge/pkg/engine"
	"github.com/nudgedev/nudge/pkg/log"
	"github.com/nudgedev/nudge/pkg/version"
)

// RuleSource provides the current rule snapshot.
type RuleSource interface {
	RuleSet() *engine.RuleSet
}

// Server implements the MCP server for nudge.
type Server struct {
	source  RuleSource
	server  *mcp.Server
	logs    *log.CircularBuffer
	tracer  trace.Tracer
	address string
}

// NewServer creates a new MCP server instance. An empty address serves over
// stdio; otherwise a streamable HTTP server listens on the address.
func NewServer(address string, source RuleSource, opts ...ServerOpt) *Server {
	impl := &mcp.Implementation{
		Name:    name,
		Version: version.GetVersion(),
	}

	mcpServer := mcp.NewServer(impl, &mcp.ServerOptions{
		Instructions: instructions,
	})

	s := &Server{
		address: address,
		server:  mcpServer,
		source:  source,
		tracer:  otel.Tracer("mcp"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerTools()

	return s
}

// ServerOpt is a functional option for configuring a [Server].
type ServerOpt func(*Server)

// WithLogBuffer exposes the given log buffer through the get_logs tool.
func WithLogBuffer(buf *log.CircularBuffer) ServerOpt {
	return func(s *Server) {
		s.logs = buf
	}
}

// registerTools registers all available tools with the MCP server.
func (s *Server) registerTools() {
	// Register the list_rules tool.
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_rules",
		Description: "List every loaded trigger rule with its filters, actions, and tags.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, WithTracing(s.tracer, s.handleListRules))

	// Register the check_path tool.
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "check_path",
		Description: "Check which rules would fire for a hypothetical filesystem event. You MUST specify a path.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "The file or directory path, relative to the project root.",
				},
				"kind": {
					Type:        "string",
					Description: "The event kind, e.g. file_create or file_update. Defaults to file_create.",
				},
			},
			Required: []string{"path"},
		},
	}, WithTracing(s.tracer, s.handleCheckPath))

	if s.logs != nil {
		// Register the get_logs tool.
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "get_logs",
			Description: "Get recent engine log output for diagnosing rule matching behavior.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{},
			},
		}, WithTracing(s.tracer, s.handleGetLogs))
	}
}

func (s *Server) Server() *mcp.Server {
	return s.server
}

// Serve starts the MCP server.
func (s *Server) Serve(ctx context.Context) error {
	log.WithContext(ctx).InfoContext(ctx, "starting MCP server")

	if s.address == "" {
		err := s.serveStdio(ctx)
		if err != nil {
			return fmt.Errorf("serve Stdio: %w", err)
		}

		return nil
	}

	err := s.serveHTTP()
	if err != nil {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	return nil
}

func (s *Server) serveHTTP() error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	server := &http.Server{
		Addr:    s.address,
		Handler: handler,

		ReadHeaderTimeout: 10 * time.Second,
	}

	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}

func (s *Server) serveStdio(ctx context.Context) error {
	t := mcp.NewLoggingTransport(mcp.NewStdioTransport(), os.Stderr)
	err := s.server.Run(ctx, t)
	if err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}
