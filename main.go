package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/krakend/docs-search-index/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	version     = "0.1.0"
	serverName  = "docs-search-index"
	description = "MCP server that builds documentation search indexes"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("%s version %s\n", serverName, version)
		os.Exit(0)
	}

	// Set up logging to stderr (MCP uses stdout for protocol)
	log.SetOutput(os.Stderr)
	log.Printf("%s v%s starting...", serverName, version)

	server := createMCPServer()
	registerTools(server)

	log.Printf("✓ Server ready and waiting for connections")

	// Run server with stdio transport
	ctx := context.Background()
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// createMCPServer initializes the MCP server
func createMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		&mcp.ServerOptions{Instructions: description},
	)

	log.Printf("Server initialized: %s v%s", serverName, version)
	return server
}

// registerTools registers all MCP tools
func registerTools(server *mcp.Server) {
	toolCount := 0

	// Index building tools (2 tools)
	tools.RegisterSearchIndexTools(server)
	toolCount += 2

	// Runtime detection tool (1 tool)
	tools.RegisterRuntimeTools(server)
	toolCount++

	log.Printf("✓ All tools registered: %d tools (search index + runtime)", toolCount)
}
