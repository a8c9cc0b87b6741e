package site

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/krakend/docs-search-index/internal/indexing"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Rendered is a Markdown document turned into HTML plus its outline
type Rendered struct {
	HTML  string
	TOC   indexing.TableOfContents
	Title string
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
		parser.WithAttribute(),
	),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// Render converts Markdown to HTML. Headings get slug ids and the table of
// contents nests them by level; the first h1 becomes the title.
func Render(src []byte) (*Rendered, error) {
	ctx := parser.NewContext(parser.WithIDs(newHeadingIDs()))
	doc := markdown.Parser().Parse(text.NewReader(src), parser.WithContext(ctx))

	var buf bytes.Buffer
	if err := markdown.Renderer().Render(&buf, src, doc); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}

	out := &Rendered{HTML: buf.String()}

	type stackEntry struct {
		link  *indexing.AnchorLink
		level int
	}
	var stack []stackEntry

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		heading, ok := n.(*ast.Heading)
		if !ok {
			continue
		}

		title := string(heading.Text(src))
		if heading.Level == 1 && out.Title == "" {
			out.Title = title
		}

		id := headingID(heading)
		if id == "" {
			continue
		}
		link := &indexing.AnchorLink{
			ID:    id,
			Title: title,
			URL:   "#" + id,
			Level: heading.Level,
		}

		// Pop until the top is a shallower heading
		for len(stack) > 0 && stack[len(stack)-1].level >= heading.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			out.TOC = append(out.TOC, link)
		} else {
			parent := stack[len(stack)-1].link
			parent.Children = append(parent.Children, link)
		}
		stack = append(stack, stackEntry{link: link, level: heading.Level})
	}

	return out, nil
}

func headingID(n ast.Node) string {
	v, ok := n.AttributeString("id")
	if !ok {
		return ""
	}
	switch id := v.(type) {
	case []byte:
		return string(id)
	case string:
		return id
	}
	return ""
}

var (
	slugInvalid   = regexp.MustCompile(`[^\p{L}\p{N}_\s-]+`)
	slugSeparator = regexp.MustCompile(`[-\s]+`)
)

// Slugify turns heading text into an anchor id: lowercase, punctuation
// removed, whitespace and hyphen runs collapsed into one hyphen
func Slugify(s string) string {
	s = slugInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
	return strings.Trim(slugSeparator.ReplaceAllString(s, "-"), "-")
}

// headingIDs hands out unique slugs within one document
type headingIDs struct {
	used map[string]bool
}

func newHeadingIDs() *headingIDs {
	return &headingIDs{used: make(map[string]bool)}
}

func (h *headingIDs) Generate(value []byte, _ ast.NodeKind) []byte {
	base := Slugify(string(value))
	if base == "" {
		base = "section"
	}
	id := base
	for i := 1; h.used[id]; i++ {
		id = fmt.Sprintf("%s_%d", base, i)
	}
	h.used[id] = true
	return []byte(id)
}

func (h *headingIDs) Put(value []byte) {
	h.used[string(value)] = true
}
