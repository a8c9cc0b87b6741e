package prebuild

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/krakend/docs-search-index/internal/indexing"
)

// DefaultNodeBinary is the interpreter used for the bundled script
const DefaultNodeBinary = "node"

// resolveLunr resolves lunr as if required from the script in argv[1]
const resolveLunr = "require('module').createRequire(process.argv[1]).resolve('lunr')"

// ProcessCompiler pre-builds the index in an external process. The payload
// is written to the process stdin and the compiled index read from stdout.
type ProcessCompiler struct {
	// Command is the program and its arguments. When empty, node runs
	// Script, or the bundled prebuild-index.js if Script is empty too.
	Command []string

	// Script overrides the bundled node script
	Script string

	// Env is appended to the current environment
	Env []string

	// Dir is the working directory of the process. Its node_modules, or
	// the one of the current directory, is added to NODE_PATH when node
	// runs a script.
	Dir string

	Logger *log.Logger
}

// Compile runs the process once. There is no timeout: the call returns when
// the process exits. Stdin, stdout and stderr are pumped concurrently by
// os/exec, so large payloads cannot deadlock the round trip.
func (c *ProcessCompiler) Compile(docs []indexing.Entry, _ indexing.Config, base []byte) (json.RawMessage, error) {
	args, cleanup, err := c.command()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = c.Dir
	if extra := c.environ(); len(extra) > 0 {
		cmd.Env = append(os.Environ(), extra...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(base)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger().Printf("Pre-building search index with %s (%d docs)...", strings.Join(args, " "), len(docs))
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w", msg, err)
		}
		return nil, fmt.Errorf("failed to run %s: %w", args[0], err)
	}

	// Anything on stderr means the engine failed, even on a zero exit status
	if stderr.Len() > 0 {
		return nil, fmt.Errorf("%s", strings.TrimSpace(stderr.String()))
	}

	output := bytes.TrimSpace(stdout.Bytes())
	if !json.Valid(output) {
		return nil, fmt.Errorf("invalid JSON output from %s (%d bytes)", args[0], len(output))
	}

	return json.RawMessage(output), nil
}

// command resolves the program to run
func (c *ProcessCompiler) command() ([]string, func(), error) {
	if len(c.Command) > 0 {
		return c.Command, func() {}, nil
	}
	if c.Script != "" {
		return []string{DefaultNodeBinary, c.Script}, func() {}, nil
	}

	path, cleanup, err := materializeScript()
	if err != nil {
		return nil, nil, err
	}
	return []string{DefaultNodeBinary, path}, cleanup, nil
}

// CheckEngine reports whether Compile can start. A custom command only
// needs to be on PATH. For node scripts, lunr must resolve from the script
// location with the same NODE_PATH Compile uses.
func (c *ProcessCompiler) CheckEngine() error {
	if len(c.Command) > 0 {
		if _, err := exec.LookPath(c.Command[0]); err != nil {
			return fmt.Errorf("command %s not found: %w", c.Command[0], err)
		}
		return nil
	}

	script := c.Script
	if script == "" {
		// materializeScript writes the bundled script here
		script = filepath.Join(os.TempDir(), "prebuild-index.js")
	} else if !filepath.IsAbs(script) {
		dir, err := c.workDir()
		if err != nil {
			return err
		}
		script = filepath.Join(dir, script)
	}

	cmd := exec.Command(DefaultNodeBinary, "-e", resolveLunr, script)
	cmd.Dir = c.Dir
	if extra := c.environ(); len(extra) > 0 {
		cmd.Env = append(os.Environ(), extra...)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := errorLine(stderr.String()); msg != "" {
			return fmt.Errorf("lunr cannot be loaded: %s", msg)
		}
		return fmt.Errorf("lunr cannot be loaded: %w", err)
	}
	return nil
}

// environ is the environment added to the process. Node scripts get the
// node_modules of the working directory on NODE_PATH, ahead of any
// inherited entries; Env still overrides it.
func (c *ProcessCompiler) environ() []string {
	if len(c.Command) > 0 {
		return c.Env
	}

	dir, err := c.workDir()
	if err != nil {
		c.logger().Printf("Warning: %v", err)
		return c.Env
	}

	nodePath := filepath.Join(dir, "node_modules")
	if inherited := os.Getenv("NODE_PATH"); inherited != "" {
		nodePath += string(os.PathListSeparator) + inherited
	}
	return append([]string{"NODE_PATH=" + nodePath}, c.Env...)
}

func (c *ProcessCompiler) workDir() (string, error) {
	dir := c.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to resolve working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return abs, nil
}

// errorLine picks the error message out of a node stack trace
func errorLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for _, line := range lines {
		if strings.Contains(line, "Error:") {
			return strings.TrimSpace(line)
		}
	}
	return strings.TrimSpace(lines[0])
}

func (c *ProcessCompiler) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}
