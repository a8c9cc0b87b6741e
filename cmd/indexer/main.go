package main

import (
	"fmt"
	"os"

	"github.com/krakend/docs-search-index/internal/indexing"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Build documentation search indexes",
	Long: `indexer turns a site manifest into a search index: one entry per page and,
depending on the indexing option, one entry per heading linked to the table
of contents. The index can be pre-built with node (lunr) or the embedded
bleve library.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = fmt.Sprintf("schema v%d", indexing.IndexSchemaVersion)
	rootCmd.SetVersionTemplate("indexer {{.Version}}\n")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
