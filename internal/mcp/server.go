// Package mcp exposes the memory store to agents over the Model Context
// Protocol on stdio. Tools cover storing, fetching, listing, and both
// search modes; administrative operations stay on the HTTP API.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/agentpress/agentpress/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"memory_store": {
		def:     storeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStore },
	},
	"memory_get": {
		def:     getToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGet },
	},
	"memory_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"memory_search": {
		def:     searchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"memory_semantic_search": {
		def:     semanticSearchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSemanticSearch },
	},
}

// AllToolNames returns a list of all registered tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// NewServer creates a new MCP server with the memory tools registered.
func NewServer(entries ops.EntryStore, embedder ops.Embedder, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"agentpress",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(entries, embedder)
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(entries ops.EntryStore, embedder ops.Embedder, version string) error {
	return server.ServeStdio(NewServer(entries, embedder, version))
}
