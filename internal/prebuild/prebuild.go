// Package prebuild provides the strategies that compile raw search entries
// into a ready-to-query index: an external node process or the embedded
// bleve library.
package prebuild

import (
	"log"

	"github.com/krakend/docs-search-index/internal/indexing"
)

// Options configure the compilers wired into a serializer
type Options struct {
	// NodeCommand replaces "node <script>" when set
	NodeCommand []string
	// NodeScript replaces the bundled prebuild-index.js
	NodeScript string
	Logger     *log.Logger
}

// NewSerializer returns a serializer with both strategies available.
// The embedded compiler is nil in builds tagged nobleve.
func NewSerializer(cfg indexing.Config, opts Options) *indexing.Serializer {
	return &indexing.Serializer{
		Config: cfg,
		Node: &ProcessCompiler{
			Command: opts.NodeCommand,
			Script:  opts.NodeScript,
			Logger:  opts.Logger,
		},
		Embedded: Embedded(opts.Logger),
		Logger:   opts.Logger,
	}
}

// BuildIndex runs one build: every page goes through a fresh builder in
// order, then the entries are serialized with the configured strategy.
func BuildIndex(pages []indexing.Page, cfg indexing.Config, opts Options) (string, *indexing.Report) {
	builder := indexing.NewBuilder(cfg)
	for _, page := range pages {
		builder.AddPage(page)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("Indexed %d pages into %d entries (indexing: %s)", len(pages), builder.Store.Len(), cfg.Indexing)

	return NewSerializer(cfg, opts).Generate(builder.Store)
}
