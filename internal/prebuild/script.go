package prebuild

import (
	_ "embed"
	"fmt"
	"os"
)

// bundledScript is the node program used when no script is configured
//
//go:embed prebuild-index.js
var bundledScript []byte

// BundledScript returns the contents of the bundled prebuild-index.js
func BundledScript() []byte {
	return bundledScript
}

// materializeScript writes the bundled script to a temp file so node can run it.
// The returned cleanup function removes the file.
func materializeScript() (string, func(), error) {
	f, err := os.CreateTemp("", "prebuild-index-*.js")
	if err != nil {
		return "", func() {}, fmt.Errorf("failed to create script file: %w", err)
	}
	path := f.Name()
	cleanup := func() { os.Remove(path) }

	if _, err := f.Write(bundledScript); err != nil {
		f.Close()
		cleanup()
		return "", func() {}, fmt.Errorf("failed to write script file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("failed to close script file: %w", err)
	}
	return path, cleanup, nil
}
