package tools

import (
	"context"

	"github.com/krakend/docs-search-index/internal/prebuild"
	"github.com/krakend/docs-search-index/internal/runtime"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DetectPrebuildRuntimeInput defines input for detect_prebuild_runtime tool
type DetectPrebuildRuntimeInput struct {
	Config        string `json:"config,omitempty" jsonschema:"Path to an options file or mkdocs.yml (optional)"`
	PrebuildIndex string `json:"prebuild_index,omitempty" jsonschema:"Strategy to check instead of the configured one: false, true, node or python (optional)"`
}

// DetectPrebuildRuntimeOutput defines output for detect_prebuild_runtime tool
type DetectPrebuildRuntimeOutput struct {
	*runtime.RuntimeInfo
	Warnings []string `json:"warnings,omitempty"`
}

// DetectPrebuildRuntime reports whether the configured pre-build strategy can run here
func DetectPrebuildRuntime(ctx context.Context, req *mcp.CallToolRequest, input DetectPrebuildRuntimeInput) (*mcp.CallToolResult, DetectPrebuildRuntimeOutput, error) {
	cfg, warnings, err := resolveConfig(configOverrides{
		path:          input.Config,
		prebuildIndex: input.PrebuildIndex,
	})
	if err != nil {
		return nil, DetectPrebuildRuntimeOutput{}, err
	}

	return nil, DetectPrebuildRuntimeOutput{
		RuntimeInfo: runtime.DetectPrebuildRuntime(cfg.Config, prebuild.Options{
			NodeCommand: cfg.NodeCommand,
			NodeScript:  cfg.NodeScript,
		}),
		Warnings: warnings,
	}, nil
}

// RegisterRuntimeTools registers runtime-related tools with the MCP server
func RegisterRuntimeTools(server *mcp.Server) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "detect_prebuild_runtime",
			Description: "Detects which search index pre-build strategies can run on this machine (node with lunr, or the embedded bleve library), checks the one selected by prebuild_index, and provides configuration recommendations.",
		},
		DetectPrebuildRuntime,
	)
}
