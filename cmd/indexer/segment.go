package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/krakend/docs-search-index/internal/indexing"
	"github.com/spf13/cobra"
)

var segmentCmd = &cobra.Command{
	Use:   "segment <file.html>",
	Short: "Print the heading sections of a rendered page as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		parsed := indexing.ParseContent(string(data))
		sections := parsed.Sections
		if sections == nil {
			sections = []indexing.Section{}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(sections)
	},
}

func init() {
	rootCmd.AddCommand(segmentCmd)
}
