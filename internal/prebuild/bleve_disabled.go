//go:build nobleve

package prebuild

import (
	"log"

	"github.com/krakend/docs-search-index/internal/indexing"
)

// EmbeddedAvailable reports whether the bleve compiler is part of this build
const EmbeddedAvailable = false

// Embedded returns nil: this binary was built without the bleve library
func Embedded(*log.Logger) indexing.Compiler {
	return nil
}
