package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/krakend/docs-search-index/internal/config"
	"github.com/krakend/docs-search-index/internal/indexing"
	"github.com/krakend/docs-search-index/internal/prebuild"
	"github.com/krakend/docs-search-index/internal/site"
	"github.com/spf13/cobra"
)

var (
	buildConfig   string
	buildOutput   string
	buildPrebuild string
	buildIndexing string
	buildGzip     bool
)

var buildCmd = &cobra.Command{
	Use:   "build <manifest>",
	Short: "Build the search index of a site manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(args[0])
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildConfig, "config", "c", "", "Options file or mkdocs.yml")
	buildCmd.Flags().StringVarP(&buildOutput, "out", "o", "search_index.json", "Output file (- for stdout)")
	buildCmd.Flags().StringVar(&buildPrebuild, "prebuild", "", "Override prebuild_index (false, true, node, python)")
	buildCmd.Flags().StringVar(&buildIndexing, "indexing", "", "Override indexing (full, sections, titles)")
	buildCmd.Flags().BoolVar(&buildGzip, "gzip", false, "Also write a gzip-compressed copy next to the output")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(manifestPath string) error {
	log.Printf("Search Index Builder (schema v%d)", indexing.IndexSchemaVersion)
	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	cfg, err := config.Load(buildConfig)
	if err != nil {
		return err
	}
	if buildPrebuild != "" {
		cfg.PrebuildIndex = indexing.ParsePrebuildIndex(buildPrebuild)
	}
	if buildIndexing != "" {
		cfg.Indexing = buildIndexing
	}

	warnings, err := config.Validate(cfg)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		log.Printf("Warning: %s", w)
	}

	// Step 1: Load pages
	log.Printf("Loading manifest: %s", manifestPath)
	manifest, err := site.LoadManifest(manifestPath)
	if err != nil {
		return err
	}
	log.Printf("✓ Loaded %d pages", len(manifest.Pages))

	// Step 2: Build and serialize
	index, report := prebuild.BuildIndex(manifest.IndexPages(), cfg.Config, prebuild.Options{
		NodeCommand: cfg.NodeCommand,
		NodeScript:  cfg.NodeScript,
	})

	// Step 3: Write
	if buildOutput == "-" {
		fmt.Fprintln(os.Stdout, index)
	} else {
		if err := writeFileAtomic(buildOutput, []byte(index)); err != nil {
			return err
		}
		if buildGzip {
			compressed, err := gzipIndex([]byte(index))
			if err != nil {
				return err
			}
			if err := writeFileAtomic(buildOutput+".gz", compressed); err != nil {
				return err
			}
			log.Printf("✓ Compressed copy: %s.gz (%d bytes)", buildOutput, len(compressed))
		}
	}

	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Printf("✓ Indexing complete!")
	log.Printf("")
	log.Printf("Index details:")
	log.Printf("  Location:  %s", buildOutput)
	log.Printf("  Entries:   %d", report.Docs)
	log.Printf("  Size:      %d bytes", report.Bytes)
	log.Printf("  Strategy:  %s (pre-built: %v)", report.Strategy, report.Prebuilt)
	return nil
}

// gzipIndex compresses the index for servers that send pre-compressed files
func gzipIndex(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress index: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress index: %w", err)
	}
	return buf.Bytes(), nil
}

// writeFileAtomic writes data next to path and renames it into place, so
// readers never see a partially written index
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".search_index-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set index permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move index into place: %w", err)
	}
	return nil
}
