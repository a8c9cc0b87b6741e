package runtime

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/krakend/docs-search-index/internal/indexing"
	"github.com/krakend/docs-search-index/internal/prebuild"
)

// Environment represents the pre-build tooling available on this machine
type Environment struct {
	HasNode     bool   `json:"has_node"`
	NodePath    string `json:"node_path,omitempty"`
	NodeVersion string `json:"node_version,omitempty"`
	// NodeCommand is the custom engine command, when one is configured
	NodeCommand string `json:"node_command,omitempty"`
	// HasLunr reports whether the node engine can start: lunr resolves
	// from the script location, or the custom command is on PATH
	HasLunr     bool   `json:"has_lunr"`
	LunrError   string `json:"lunr_error,omitempty"`
	HasEmbedded bool   `json:"has_embedded"`
}

// RuntimeInfo contains complete pre-build runtime detection information
type RuntimeInfo struct {
	Environment     *Environment      `json:"environment"`
	PrebuildIndex   string            `json:"prebuild_index"`
	Strategy        indexing.Strategy `json:"strategy"`
	Runnable        bool              `json:"runnable"`
	ExecutionMode   string            `json:"execution_mode"` // "node", "embedded", "disabled", "unavailable"
	Recommendations []Recommendation  `json:"recommendations"`
}

// Recommendation represents a pre-build method recommendation
type Recommendation struct {
	Method        string `json:"method"`   // "node" or "python" (embedded)
	Priority      int    `json:"priority"` // 1 = highest
	Reason        string `json:"reason"`
	Warning       string `json:"warning,omitempty"`
	ConfigSnippet string `json:"config_snippet"`
}

var nodeVersionRegex = regexp.MustCompile(`v?(\d+\.\d+\.\d+)`)

// DetectPrebuildRuntime checks the machine for the engine a build with cfg
// and opts would use, and evaluates the configuration
func DetectPrebuildRuntime(cfg indexing.Config, opts prebuild.Options) *RuntimeInfo {
	return Evaluate(DetectEnvironment(&prebuild.ProcessCompiler{
		Command: opts.NodeCommand,
		Script:  opts.NodeScript,
		Logger:  opts.Logger,
	}), cfg)
}

// Evaluate decides whether the configured strategy can run in env
func Evaluate(env *Environment, cfg indexing.Config) *RuntimeInfo {
	strategy := cfg.PrebuildIndex.Strategy()
	prebuildValue := string(cfg.PrebuildIndex)
	if prebuildValue == "" {
		prebuildValue = string(indexing.PrebuildDisabled)
	}

	info := &RuntimeInfo{
		Environment:   env,
		PrebuildIndex: prebuildValue,
		Strategy:      strategy,
	}

	switch strategy {
	case indexing.StrategyNone:
		info.Runnable = true
		info.ExecutionMode = "disabled"
	case indexing.StrategyNode:
		info.Runnable = env.HasNode && env.HasLunr
		info.ExecutionMode = "node"
	case indexing.StrategyEmbedded:
		info.Runnable = env.HasEmbedded
		info.ExecutionMode = "embedded"
	}
	if !info.Runnable {
		info.ExecutionMode = "unavailable"
	}

	info.Recommendations = buildRecommendations(env, strategy)
	return info
}

// buildRecommendations creates ordered list of pre-build recommendations
func buildRecommendations(env *Environment, strategy indexing.Strategy) []Recommendation {
	var recommendations []Recommendation
	priority := 1

	// The embedded library needs no external tooling
	if env.HasEmbedded {
		rec := Recommendation{
			Method:        string(indexing.PrebuildPython),
			Priority:      priority,
			Reason:        "Embedded bleve library is compiled into this binary",
			ConfigSnippet: "prebuild_index: python",
		}
		if strategy == indexing.StrategyEmbedded {
			rec.Reason = "Configured strategy, available in this binary"
		}
		recommendations = append(recommendations, rec)
		priority++
	}

	if env.HasNode {
		reason := fmt.Sprintf("Node.js %s found at %s", env.NodeVersion, env.NodePath)
		if env.NodeCommand != "" {
			reason = fmt.Sprintf("Custom engine %s found at %s", env.NodeCommand, env.NodePath)
		}
		rec := Recommendation{
			Method:        string(indexing.PrebuildNode),
			Priority:      priority,
			Reason:        reason,
			ConfigSnippet: "prebuild_index: node",
		}
		if !env.HasLunr {
			rec.Warning = "The 'lunr' package cannot be loaded. Try installing it in the working directory with 'npm install lunr'"
			if env.LunrError != "" {
				rec.Warning += " (" + env.LunrError + ")"
			}
		}
		recommendations = append(recommendations, rec)
	}

	return recommendations
}

// DetectEnvironment detects available pre-build methods. The node engine
// is checked the way compiler runs it.
func DetectEnvironment(compiler *prebuild.ProcessCompiler) *Environment {
	env := &Environment{HasEmbedded: prebuild.EmbeddedAvailable}
	if compiler == nil {
		compiler = &prebuild.ProcessCompiler{}
	}

	binary := prebuild.DefaultNodeBinary
	if len(compiler.Command) > 0 {
		binary = compiler.Command[0]
		env.NodeCommand = strings.Join(compiler.Command, " ")
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		return env
	}
	env.HasNode = true
	env.NodePath = path

	if env.NodeCommand == "" {
		if v, err := GetLocalNodeVersion(); err == nil {
			env.NodeVersion = v
		}
	}

	if err := compiler.CheckEngine(); err != nil {
		env.LunrError = err.Error()
	} else {
		env.HasLunr = true
	}

	return env
}

// GetLocalNodeVersion gets the version of the local node binary
func GetLocalNodeVersion() (string, error) {
	output, err := exec.Command(prebuild.DefaultNodeBinary, "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to get node version: %w", err)
	}
	return ParseNodeVersion(string(output))
}

// ParseNodeVersion extracts the version from `node --version` output
// Example: "v20.11.1\n" -> "20.11.1"
func ParseNodeVersion(output string) (string, error) {
	matches := nodeVersionRegex.FindStringSubmatch(strings.TrimSpace(output))
	if len(matches) > 1 {
		return matches[1], nil
	}
	return "", fmt.Errorf("could not parse version from: %s", output)
}
