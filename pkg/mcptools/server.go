// Package mcptools exposes page editing as Model Context Protocol tools.
//
// Every tool works on a page in a store through a pipeline.Service, so an
// assistant gets the same placement, overlap resolution and reflow as the
// CLI and the HTTP API. Tools:
//
//	list_pages     ids of all stored pages
//	list_blocks    blocks of one page with their grid positions
//	add_block      add a block of a kind, optionally at a cell
//	move_block     move a block; blocks it lands on are relocated
//	resize_block   change spans and reflow the page
//	delete_block   remove a block and reflow the page
//	compact_page   reflow a page without other changes
//
// The server speaks MCP over stdio.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/matzehuels/gridpage/pkg/buildinfo"
	"github.com/matzehuels/gridpage/pkg/errors"
	"github.com/matzehuels/gridpage/pkg/pipeline"
)

// Server holds the MCP server and the page service behind it.
type Server struct {
	pages  *pipeline.Service
	logger *log.Logger
	mcp    *server.MCPServer
}

// New creates a server with all tools registered. If logger is nil,
// log.Default is used.
func New(pages *pipeline.Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		pages:  pages,
		logger: logger,
		mcp: server.NewMCPServer(
			"gridpage",
			buildinfo.Version,
			server.WithToolCapabilities(true),
		),
	}
	s.registerPageTools()
	s.registerBlockTools()
	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves on stdin and stdout until the input closes. Pending page
// writes are flushed before it returns.
func (s *Server) ServeStdio() error {
	s.logger.Debug("starting MCP stdio server")
	err := server.ServeStdio(s.mcp)
	if ferr := s.pages.Flush(context.Background()); err == nil {
		err = ferr
	}
	return err
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// errorResult reports err to the model as a failed tool call. Coded errors
// are expected outcomes (unknown block, bad arguments); anything else is
// returned as a protocol error.
func errorResult(err error) (*mcp.CallToolResult, error) {
	code := errors.GetCode(err)
	if code == "" || code == errors.ErrCodeInternal {
		return nil, err
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %s", code, errors.UserMessage(err))), nil
}

// intArg reads a numeric argument. JSON numbers arrive as float64.
func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	}
	return 0
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}
