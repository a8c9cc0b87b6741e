package tools

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/krakend/docs-search-index/internal/config"
	"github.com/krakend/docs-search-index/internal/indexing"
	"github.com/krakend/docs-search-index/internal/prebuild"
	"github.com/krakend/docs-search-index/internal/site"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TOCEntryInput is one table of contents node, listed in document order
type TOCEntryInput struct {
	ID    string `json:"id" jsonschema:"Heading id attribute"`
	Title string `json:"title" jsonschema:"Heading title"`
	URL   string `json:"url" jsonschema:"Anchor URL relative to the page, e.g. #install"`
}

// PageInput is an inline page for build_search_index
type PageInput struct {
	Title     string          `json:"title,omitempty" jsonschema:"Page title (optional, defaults to the first h1 of Markdown content)"`
	URL       string          `json:"url" jsonschema:"Page URL relative to the site root"`
	HTML      string          `json:"html,omitempty" jsonschema:"Rendered HTML body"`
	Markdown  string          `json:"markdown,omitempty" jsonschema:"Markdown source, rendered when html is empty"`
	TOC       []TOCEntryInput `json:"toc,omitempty" jsonschema:"Table of contents (optional for Markdown pages)"`
	Ancestors []string        `json:"ancestors,omitempty" jsonschema:"Navigation sections from the root down (optional)"`
}

// BuildSearchIndexInput defines input for build_search_index tool
type BuildSearchIndexInput struct {
	Manifest        string      `json:"manifest,omitempty" jsonschema:"Path to a site manifest (YAML or JSON)"`
	Pages           []PageInput `json:"pages,omitempty" jsonschema:"Inline pages, used when no manifest is given"`
	Output          string      `json:"output,omitempty" jsonschema:"File to write the index to (optional)"`
	Config          string      `json:"config,omitempty" jsonschema:"Path to an options file or mkdocs.yml (optional)"`
	Indexing        string      `json:"indexing,omitempty" jsonschema:"full, sections or titles (optional)"`
	FullPathInTitle bool        `json:"full_path_in_title,omitempty" jsonschema:"Prefix titles with the navigation path (optional)"`
	PrebuildIndex   string      `json:"prebuild_index,omitempty" jsonschema:"false, true, node or python (optional)"`
	Lang            []string    `json:"lang,omitempty" jsonschema:"Index languages (optional)"`
}

// configOverrides are tool arguments applied over the options file
type configOverrides struct {
	path            string
	indexing        string
	fullPathInTitle bool
	prebuildIndex   string
	lang            []string
}

// BuildSearchIndexOutput defines output for build_search_index tool
type BuildSearchIndexOutput struct {
	Index   string           `json:"index,omitempty"`
	Written string           `json:"written,omitempty"`
	Report  *indexing.Report `json:"report"`
}

// SegmentPageInput defines input for segment_page tool
type SegmentPageInput struct {
	HTML string `json:"html" jsonschema:"Rendered HTML to split into sections"`
}

// SegmentPageOutput defines output for segment_page tool
type SegmentPageOutput struct {
	Sections     []indexing.Section `json:"sections"`
	StrippedText string             `json:"stripped_text"`
}

// BuildSearchIndex builds the search index of a manifest or inline pages
func BuildSearchIndex(ctx context.Context, req *mcp.CallToolRequest, input BuildSearchIndexInput) (*mcp.CallToolResult, BuildSearchIndexOutput, error) {
	cfg, warnings, err := resolveConfig(configOverrides{
		path:            input.Config,
		indexing:        input.Indexing,
		fullPathInTitle: input.FullPathInTitle,
		prebuildIndex:   input.PrebuildIndex,
		lang:            input.Lang,
	})
	if err != nil {
		return nil, BuildSearchIndexOutput{}, err
	}

	var manifest *site.Manifest
	switch {
	case input.Manifest != "":
		manifest, err = site.LoadManifest(input.Manifest)
	case len(input.Pages) > 0:
		manifest, err = inlineManifest(input.Pages)
	default:
		err = fmt.Errorf("either manifest or pages is required")
	}
	if err != nil {
		return nil, BuildSearchIndexOutput{}, err
	}

	index, report := prebuild.BuildIndex(manifest.IndexPages(), cfg.Config, prebuild.Options{
		NodeCommand: cfg.NodeCommand,
		NodeScript:  cfg.NodeScript,
	})
	report.Warnings = append(warnings, report.Warnings...)

	out := BuildSearchIndexOutput{Report: report}
	if input.Output == "" {
		out.Index = index
		return nil, out, nil
	}

	if err := os.WriteFile(input.Output, []byte(index), 0o644); err != nil {
		return nil, BuildSearchIndexOutput{}, fmt.Errorf("failed to write index: %w", err)
	}
	out.Written = input.Output
	log.Printf("✓ Search index written to %s (%d bytes)", input.Output, len(index))
	return nil, out, nil
}

// SegmentPage splits rendered HTML into heading sections
func SegmentPage(ctx context.Context, req *mcp.CallToolRequest, input SegmentPageInput) (*mcp.CallToolResult, SegmentPageOutput, error) {
	parsed := indexing.ParseContent(input.HTML)

	sections := parsed.Sections
	if sections == nil {
		sections = []indexing.Section{}
	}
	return nil, SegmentPageOutput{
		Sections:     sections,
		StrippedText: parsed.StrippedText(),
	}, nil
}

// RegisterSearchIndexTools registers the index building tools with the MCP server
func RegisterSearchIndexTools(server *mcp.Server) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "build_search_index",
			Description: "Builds a documentation search index from a site manifest or inline pages. Every page produces a page entry and, depending on 'indexing', one entry per heading linked to the table of contents. Returns the JSON payload ({config, docs, index}) and a report with the pre-build strategy and any warnings.",
		},
		BuildSearchIndex,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "segment_page",
			Description: "Splits rendered HTML into sections at h1-h6 headings and returns each section id, title and text fragments plus the page text with markup removed. Useful to check why a heading does or does not appear in the search index.",
		},
		SegmentPage,
	)
}

// resolveConfig loads the options file and applies tool overrides
func resolveConfig(o configOverrides) (*config.Config, []string, error) {
	cfg, err := config.Load(o.path)
	if err != nil {
		return nil, nil, err
	}

	if o.indexing != "" {
		cfg.Indexing = o.indexing
	}
	if o.fullPathInTitle {
		cfg.FullPathInTitle = true
	}
	if o.prebuildIndex != "" {
		cfg.PrebuildIndex = indexing.ParsePrebuildIndex(o.prebuildIndex)
	}
	if len(o.lang) > 0 {
		cfg.Lang = o.lang
	}

	warnings, err := config.Validate(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, warnings, nil
}

func inlineManifest(pages []PageInput) (*site.Manifest, error) {
	m := &site.Manifest{Pages: make([]*site.Page, 0, len(pages))}
	for _, p := range pages {
		page := &site.Page{
			Name:     p.Title,
			Location: p.URL,
			HTML:     p.HTML,
			Markdown: p.Markdown,
			Parents:  p.Ancestors,
		}
		if p.HTML != "" {
			page.Markdown = ""
		}
		for _, item := range p.TOC {
			page.Toc = append(page.Toc, &indexing.AnchorLink{ID: item.ID, Title: item.Title, URL: item.URL})
		}
		m.Pages = append(m.Pages, page)
	}

	if err := m.Prepare(); err != nil {
		return nil, err
	}
	return m, nil
}
