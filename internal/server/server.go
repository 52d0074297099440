// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package server wires the tool registry into an mcp-go server and
// exposes stdio and streamable-HTTP transports.
package server

import (
	"fmt"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/wolfpackai/wolfden-mcp/internal/config"
	"github.com/wolfpackai/wolfden-mcp/internal/registry"
	"github.com/wolfpackai/wolfden-mcp/internal/tools"
)

// Version is the protocol-visible server version
const Version = "1.0.0"

// Server wraps the mcp-go server with the tool registry
type Server struct {
	mcpServer *mcpserver.MCPServer
	registry  *registry.Registry
	config    *config.Config
	logger    *zap.Logger
}

// New creates an MCP server with every tool registered. The registry
// handler performs argument binding and validation, so tools are added
// to the mcp-go server through it rather than directly.
func New(cfg *config.Config, tc *tools.ToolContext, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := mcpserver.NewMCPServer(
		"Wolfden",
		Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)

	reg := registry.New(logger)
	tools.RegisterAll(reg, tc)

	for _, tool := range reg.Tools() {
		mcpServer.AddTool(tool.Definition, reg.Handler(tool))
	}

	logger.Info("tools registered", zap.Int("count", len(reg.Tools())))

	return &Server{
		mcpServer: mcpServer,
		registry:  reg,
		config:    cfg,
		logger:    logger,
	}
}

// Registry returns the tool registry, for installing conversation
// context before serving.
func (s *Server) Registry() *registry.Registry {
	return s.registry
}

// SetAthlete installs a default athlete for tools called without an
// explicit athleteId. Used by stdio mode where one process serves one
// athlete's conversation.
func (s *Server) SetAthlete(athleteID string) {
	s.registry.SetContext(registry.Context{UserID: athleteID})
}

// MCPServer returns the underlying mcp-go server
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// ServeStdio blocks serving JSON-RPC over stdin/stdout. Nothing else
// may write to stdout while this runs.
func (s *Server) ServeStdio() error {
	s.logger.Info("serving MCP over stdio")
	return mcpserver.ServeStdio(s.mcpServer)
}

// ServeHTTP blocks serving the streamable HTTP transport on the
// configured host and port.
func (s *Server) ServeHTTP() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	httpServer := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath("/mcp"),
	)

	s.logger.Info("serving MCP over HTTP",
		zap.String("addr", addr),
		zap.Bool("tls", s.config.Server.TLS.Enabled))

	if s.config.Server.TLS.Enabled {
		return http.ListenAndServeTLS(addr,
			s.config.Server.TLS.CertFile, s.config.Server.TLS.KeyFile,
			httpServer)
	}
	return httpServer.Start(addr)
}
