package prebuild_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krakend/docs-search-index/internal/indexing"
	"github.com/krakend/docs-search-index/internal/prebuild"
)

// TestHelperProcess is not a real test: it is the fake indexing engine
// started by helperCompiler
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	input, _ := io.ReadAll(os.Stdin)
	switch os.Getenv("HELPER_MODE") {
	case "count":
		var payload struct {
			Docs []json.RawMessage `json:"docs"`
		}
		if err := json.Unmarshal(input, &payload); err != nil {
			fmt.Fprintf(os.Stderr, "bad input: %v", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stdout, `{"version":"2.3.9","fields":["title","text"],"count":%d}`, len(payload.Docs))
	case "echo":
		fmt.Fprintf(os.Stdout, `{"echo":%s}`, input)
	case "stderr":
		fmt.Fprint(os.Stderr, "Error: Cannot find module 'lunr'")
	case "exit":
		os.Exit(3)
	case "garbage":
		fmt.Fprint(os.Stdout, "this is not json")
	}
	os.Exit(0)
}

func helperCompiler(mode string, logs *bytes.Buffer) *prebuild.ProcessCompiler {
	return &prebuild.ProcessCompiler{
		Command: []string{os.Args[0], "-test.run=TestHelperProcess", "--"},
		Env:     []string{"GO_WANT_HELPER_PROCESS=1", "HELPER_MODE=" + mode},
		Logger:  log.New(logs, "", 0),
	}
}

func testStore(pages int) *indexing.Store {
	store := indexing.NewStore()
	for i := 0; i < pages; i++ {
		loc := fmt.Sprintf("/page-%d/", i)
		store.Add(fmt.Sprintf("Page %d", i), "Hello world from the docs", loc)
		store.Add("Intro", "Hello world", loc+"#intro")
	}
	return store
}

func TestProcessCompiler(t *testing.T) {
	cfg := indexing.DefaultConfig()

	t.Run("reads compiled index from stdout", func(t *testing.T) {
		var logs bytes.Buffer
		store := testStore(2)
		base := []byte(`{"config":{},"docs":[{},{},{},{}]}`)

		out, err := helperCompiler("count", &logs).Compile(store.Entries(), cfg, base)
		require.NoError(t, err)
		assert.JSONEq(t, `{"version":"2.3.9","fields":["title","text"],"count":4}`, string(out))
		assert.Contains(t, logs.String(), "Pre-building search index")
	})

	t.Run("large payload does not deadlock", func(t *testing.T) {
		var logs bytes.Buffer
		base := []byte(`{"blob":"` + strings.Repeat("x", 4<<20) + `"}`)

		out, err := helperCompiler("echo", &logs).Compile(nil, cfg, base)
		require.NoError(t, err)
		assert.Greater(t, len(out), 4<<20)
	})

	failures := []struct {
		mode    string
		wantErr string
	}{
		{mode: "stderr", wantErr: "Cannot find module 'lunr'"},
		{mode: "exit", wantErr: "exit status 3"},
		{mode: "garbage", wantErr: "invalid JSON output"},
	}
	for _, tt := range failures {
		t.Run("fails on "+tt.mode, func(t *testing.T) {
			var logs bytes.Buffer
			_, err := helperCompiler(tt.mode, &logs).Compile(nil, cfg, []byte(`{}`))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("missing executable", func(t *testing.T) {
		c := &prebuild.ProcessCompiler{Command: []string{"/nonexistent/prebuild-engine"}}
		_, err := c.Compile(nil, cfg, []byte(`{}`))
		require.Error(t, err)
	})
}

func TestSerializerWithProcess(t *testing.T) {
	cfg := indexing.DefaultConfig()
	cfg.PrebuildIndex = indexing.PrebuildNode

	t.Run("splices the compiled index", func(t *testing.T) {
		var logs bytes.Buffer
		s := &indexing.Serializer{Config: cfg, Node: helperCompiler("count", &logs), Logger: log.New(&logs, "", 0)}

		data, report := s.Generate(testStore(1))
		require.True(t, report.Prebuilt, logs.String())
		assert.True(t, strings.HasSuffix(data, `"index":{"count":2,"fields":["title","text"],"version":"2.3.9"}}`), data)
	})

	t.Run("failing process falls back to the raw payload", func(t *testing.T) {
		var logs bytes.Buffer
		s := &indexing.Serializer{Config: cfg, Node: helperCompiler("stderr", &logs), Logger: log.New(&logs, "", 0)}
		data, report := s.Generate(testStore(1))

		plain := &indexing.Serializer{Config: cfg, Node: helperCompiler("exit", &bytes.Buffer{}), Logger: log.New(io.Discard, "", 0)}
		want, _ := plain.Generate(testStore(1))

		assert.Equal(t, want, data)
		assert.NotContains(t, data, `"index"`)
		assert.False(t, report.Prebuilt)
		require.Len(t, report.Warnings, 1)
		assert.Contains(t, logs.String(), "Warning: Failed to pre-build search index. Error: Error: Cannot find module 'lunr'")
	})
}

func TestBundledScript(t *testing.T) {
	script := string(prebuild.BundledScript())
	assert.Contains(t, script, "require('lunr')")
	assert.Contains(t, script, "this.ref('location')")
}

const lunrStub = `module.exports = function (config) {
  const refs = [];
  config.call({ ref() {}, field() {}, use() {}, add(doc) { refs.push(doc.location); } });
  return { version: 'stub', refs: refs };
};
`

// nodeProject creates a working directory with a stub lunr package
func nodeProject(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath(prebuild.DefaultNodeBinary); err != nil {
		t.Skip("node is not installed")
	}

	dir := t.TempDir()
	pkg := filepath.Join(dir, "node_modules", "lunr")
	require.NoError(t, os.MkdirAll(pkg, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "package.json"), []byte(`{"name":"lunr","main":"index.js"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "index.js"), []byte(lunrStub), 0o644))
	return dir
}

func TestProcessCompilerNodeModules(t *testing.T) {
	cfg := indexing.DefaultConfig()
	base := []byte(`{"config":{"lang":["en"]},"docs":[{"location":"","text":"hi","title":"Home"},{"location":"#intro","text":"","title":"Intro"}]}`)

	t.Run("bundled script loads lunr from the working directory", func(t *testing.T) {
		t.Setenv("NODE_PATH", "")
		dir := nodeProject(t)
		c := &prebuild.ProcessCompiler{Dir: dir, Logger: log.New(io.Discard, "", 0)}

		require.NoError(t, c.CheckEngine())

		out, err := c.Compile(nil, cfg, base)
		require.NoError(t, err)
		assert.JSONEq(t, `{"version":"stub","refs":["","#intro"]}`, string(out))
	})

	t.Run("custom script outside the project", func(t *testing.T) {
		t.Setenv("NODE_PATH", "")
		dir := nodeProject(t)
		script := filepath.Join(t.TempDir(), "build.js")
		require.NoError(t, os.WriteFile(script, []byte(`require('lunr'); process.stdout.write('{}');`), 0o644))

		c := &prebuild.ProcessCompiler{Dir: dir, Script: script, Logger: log.New(io.Discard, "", 0)}
		require.NoError(t, c.CheckEngine())

		out, err := c.Compile(nil, cfg, []byte(`{}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(out))
	})

	t.Run("inherited NODE_PATH is kept", func(t *testing.T) {
		t.Setenv("NODE_PATH", "/opt/shared/node_modules")
		dir := nodeProject(t)
		script := filepath.Join(t.TempDir(), "env.js")
		require.NoError(t, os.WriteFile(script, []byte(`process.stdout.write(JSON.stringify({path: process.env.NODE_PATH}));`), 0o644))

		c := &prebuild.ProcessCompiler{Dir: dir, Script: script, Logger: log.New(io.Discard, "", 0)}
		out, err := c.Compile(nil, cfg, []byte(`{}`))
		require.NoError(t, err)

		want := filepath.Join(dir, "node_modules") + string(os.PathListSeparator) + "/opt/shared/node_modules"
		var got struct{ Path string }
		require.NoError(t, json.Unmarshal(out, &got))
		assert.Equal(t, want, got.Path)
	})

	t.Run("working directory without lunr", func(t *testing.T) {
		t.Setenv("NODE_PATH", "")
		nodeProject(t)
		dir := t.TempDir()
		if exec.Command(prebuild.DefaultNodeBinary, "-e", "require.resolve('lunr')").Run() == nil {
			t.Skip("lunr is installed globally")
		}

		c := &prebuild.ProcessCompiler{Dir: dir}
		err := c.CheckEngine()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lunr cannot be loaded")
	})

	t.Run("custom command only needs to be on PATH", func(t *testing.T) {
		assert.NoError(t, (&prebuild.ProcessCompiler{Command: []string{os.Args[0]}}).CheckEngine())
		assert.Error(t, (&prebuild.ProcessCompiler{Command: []string{"/nonexistent/prebuild-engine"}}).CheckEngine())
	})
}
