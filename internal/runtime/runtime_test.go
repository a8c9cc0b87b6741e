package runtime_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/krakend/docs-search-index/internal/indexing"
	"github.com/krakend/docs-search-index/internal/prebuild"
	"github.com/krakend/docs-search-index/internal/runtime"
)

func TestParseNodeVersion(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    string
		wantErr bool
	}{
		{name: "plain", output: "v20.11.1\n", want: "20.11.1"},
		{name: "without prefix", output: "18.19.0", want: "18.19.0"},
		{name: "garbage", output: "command not found", wantErr: true},
		{name: "empty", output: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runtime.ParseNodeVersion(tt.output)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseNodeVersion() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseNodeVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func configWith(prebuild indexing.PrebuildIndex) indexing.Config {
	cfg := indexing.DefaultConfig()
	cfg.PrebuildIndex = prebuild
	return cfg
}

func TestEvaluate(t *testing.T) {
	full := &runtime.Environment{HasNode: true, NodePath: "/usr/bin/node", NodeVersion: "20.11.1", HasLunr: true, HasEmbedded: true}
	bare := &runtime.Environment{}
	nodeOnly := &runtime.Environment{HasNode: true, NodePath: "/usr/bin/node", NodeVersion: "20.11.1"}

	tests := []struct {
		name         string
		env          *runtime.Environment
		prebuild     indexing.PrebuildIndex
		wantRunnable bool
		wantMode     string
		wantRecs     int
	}{
		{name: "disabled always runs", env: bare, prebuild: indexing.PrebuildDisabled, wantRunnable: true, wantMode: "disabled", wantRecs: 0},
		{name: "node available", env: full, prebuild: indexing.PrebuildNode, wantRunnable: true, wantMode: "node", wantRecs: 2},
		{name: "true means node", env: full, prebuild: indexing.PrebuildTrue, wantRunnable: true, wantMode: "node", wantRecs: 2},
		{name: "node without lunr", env: nodeOnly, prebuild: indexing.PrebuildNode, wantRunnable: false, wantMode: "unavailable", wantRecs: 1},
		{name: "embedded available", env: full, prebuild: indexing.PrebuildPython, wantRunnable: true, wantMode: "embedded", wantRecs: 2},
		{name: "embedded missing", env: nodeOnly, prebuild: indexing.PrebuildPython, wantRunnable: false, wantMode: "unavailable", wantRecs: 1},
		{name: "unknown value disables", env: bare, prebuild: "java", wantRunnable: true, wantMode: "disabled", wantRecs: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := runtime.Evaluate(tt.env, configWith(tt.prebuild))

			if info.Runnable != tt.wantRunnable {
				t.Errorf("Runnable = %v, want %v", info.Runnable, tt.wantRunnable)
			}
			if info.ExecutionMode != tt.wantMode {
				t.Errorf("ExecutionMode = %q, want %q", info.ExecutionMode, tt.wantMode)
			}
			if len(info.Recommendations) != tt.wantRecs {
				t.Errorf("got %d recommendations, want %d: %+v", len(info.Recommendations), tt.wantRecs, info.Recommendations)
			}
			for i, rec := range info.Recommendations {
				if rec.Priority != i+1 {
					t.Errorf("recommendation %d has priority %d", i, rec.Priority)
				}
			}
		})
	}
}

func TestEvaluateNodeWithoutLunrWarns(t *testing.T) {
	env := &runtime.Environment{HasNode: true, NodePath: "/usr/bin/node", NodeVersion: "20.11.1"}
	info := runtime.Evaluate(env, configWith(indexing.PrebuildNode))

	if len(info.Recommendations) != 1 || info.Recommendations[0].Warning == "" {
		t.Errorf("expected a lunr warning, got %+v", info.Recommendations)
	}
}

func TestDetectPrebuildRuntime(t *testing.T) {
	info := runtime.DetectPrebuildRuntime(configWith(indexing.PrebuildPython), prebuild.Options{})

	if info.Environment == nil {
		t.Fatal("Environment should not be nil")
	}
	if info.Strategy != indexing.StrategyEmbedded {
		t.Errorf("Strategy = %q, want %q", info.Strategy, indexing.StrategyEmbedded)
	}

	t.Logf("Runtime: mode=%s node=%v (%s) lunr=%v embedded=%v",
		info.ExecutionMode, info.Environment.HasNode, info.Environment.NodeVersion,
		info.Environment.HasLunr, info.Environment.HasEmbedded)
}

func TestDetectEnvironmentCustomCommand(t *testing.T) {
	env := runtime.DetectEnvironment(&prebuild.ProcessCompiler{Command: []string{os.Args[0], "--engine"}})

	if !env.HasNode || !env.HasLunr {
		t.Fatalf("custom command on PATH should be runnable: %+v", env)
	}
	if env.NodeCommand != os.Args[0]+" --engine" {
		t.Errorf("NodeCommand = %q", env.NodeCommand)
	}

	info := runtime.Evaluate(env, configWith(indexing.PrebuildNode))
	if !info.Runnable || info.ExecutionMode != "node" {
		t.Errorf("Runnable = %v, ExecutionMode = %q", info.Runnable, info.ExecutionMode)
	}
	last := info.Recommendations[len(info.Recommendations)-1]
	if !strings.HasPrefix(last.Reason, "Custom engine") {
		t.Errorf("Reason = %q", last.Reason)
	}

	missing := runtime.DetectEnvironment(&prebuild.ProcessCompiler{Command: []string{"/nonexistent/prebuild-engine"}})
	if missing.HasNode || missing.HasLunr {
		t.Errorf("missing command should not be runnable: %+v", missing)
	}
}

func TestDetectEnvironmentProjectLunr(t *testing.T) {
	if _, err := exec.LookPath(prebuild.DefaultNodeBinary); err != nil {
		t.Skip("node is not installed")
	}
	t.Setenv("NODE_PATH", "")

	dir := t.TempDir()
	pkg := filepath.Join(dir, "node_modules", "lunr")
	if err := os.MkdirAll(pkg, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pkg, "index.js"), []byte("module.exports = {};"), 0o644); err != nil {
		t.Fatal(err)
	}

	env := runtime.DetectEnvironment(&prebuild.ProcessCompiler{Dir: dir})
	if !env.HasLunr {
		t.Errorf("lunr in the working directory should be found: %s", env.LunrError)
	}
}
