// Package site loads the pages to index from a manifest file. Pages carry
// rendered HTML, an HTML file, or Markdown rendered with goldmark.
package site

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/krakend/docs-search-index/internal/indexing"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Manifest lists the pages of a site in navigation order
type Manifest struct {
	SiteURL string  `yaml:"site_url" json:"site_url,omitempty"`
	Pages   []*Page `yaml:"pages" json:"pages"`

	// dir resolves relative page files
	dir string
}

// LoadManifest reads a YAML or JSON manifest and prepares its pages
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	m, err := ParseManifest(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return m, nil
}

// ParseManifest decodes a manifest whose relative files live in dir.
// YAML is a superset of JSON, so both formats go through the same decoder.
func ParseManifest(data []byte, dir string) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	m.dir = dir

	if err := m.Prepare(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Prepare resolves the content of every page. Pages are read and rendered
// concurrently; the first failing page in manifest order is reported.
func (m *Manifest) Prepare() error {
	errs := make([]error, len(m.Pages))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, p := range m.Pages {
		if p == nil {
			errs[i] = fmt.Errorf("page %d is empty", i)
			continue
		}
		g.Go(func() error {
			if err := p.prepare(m.dir); err != nil {
				errs[i] = fmt.Errorf("page %d (%s): %w", i, p.Location, err)
			}
			return nil
		})
	}
	g.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// IndexPages returns the pages as the builder's read interface
func (m *Manifest) IndexPages() []indexing.Page {
	pages := make([]indexing.Page, len(m.Pages))
	for i, p := range m.Pages {
		pages[i] = p
	}
	return pages
}

// Page is one entry of a manifest
type Page struct {
	Name     string `yaml:"title" json:"title"`
	Location string `yaml:"url" json:"url"`

	// Exactly one content source. File is read as Markdown when its
	// extension is .md or .markdown and as HTML otherwise.
	File     string `yaml:"file,omitempty" json:"file,omitempty"`
	HTML     string `yaml:"html,omitempty" json:"html,omitempty"`
	Markdown string `yaml:"markdown,omitempty" json:"markdown,omitempty"`

	Toc indexing.TableOfContents `yaml:"toc,omitempty" json:"toc,omitempty"`

	// Parents lists the navigation sections from the root down
	Parents []string `yaml:"ancestors,omitempty" json:"ancestors,omitempty"`

	content string
}

// ancestor is a navigation section title
type ancestor string

func (a ancestor) Title() string { return string(a) }

func (p *Page) Title() string                 { return p.Name }
func (p *Page) URL() string                   { return p.Location }
func (p *Page) Content() string               { return p.content }
func (p *Page) TOC() indexing.TableOfContents { return p.Toc }

// Ancestors returns the parents nearest first
func (p *Page) Ancestors() []indexing.Ancestor {
	out := make([]indexing.Ancestor, 0, len(p.Parents))
	for i := len(p.Parents) - 1; i >= 0; i-- {
		out = append(out, ancestor(p.Parents[i]))
	}
	return out
}

func (p *Page) prepare(dir string) error {
	sources := 0
	for _, s := range []string{p.File, p.HTML, p.Markdown} {
		if s != "" {
			sources++
		}
	}
	if sources > 1 {
		return fmt.Errorf("only one of file, html or markdown may be set")
	}

	source := p.Markdown
	switch {
	case p.HTML != "":
		p.content = p.HTML
		return nil
	case p.File != "":
		path := p.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p.File, err)
		}
		if !isMarkdown(path) {
			p.content = string(data)
			return nil
		}
		source = string(data)
	}

	if source == "" {
		return nil
	}

	rendered, err := Render([]byte(source))
	if err != nil {
		return err
	}
	p.content = rendered.HTML
	if len(p.Toc) == 0 {
		p.Toc = rendered.TOC
	}
	if p.Name == "" {
		p.Name = rendered.Title
	}
	return nil
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}
