package indexing

import (
	"strings"

	"golang.org/x/net/html"
)

// scanState tracks where the segmenter is relative to the current heading
type scanState int

const (
	stateOutside scanState = iota // before the first heading
	stateHeading                  // inside a heading element
	stateBody                     // after a heading, collecting section text
)

// ParsedContent holds the sections of one page and every text fragment seen
type ParsedContent struct {
	Sections  []Section
	fragments []string
}

// StrippedText returns all text fragments of the page joined by newlines,
// independent of heading boundaries
func (p *ParsedContent) StrippedText() string {
	return strings.Join(p.fragments, "\n")
}

// ParseContent groups the text of rendered HTML under the preceding heading.
// Text before the first heading only contributes to StrippedText. The scan is
// best effort: malformed markup never fails, tokenization simply stops at the
// first unrecoverable error.
func ParseContent(content string) *ParsedContent {
	parsed := &ParsedContent{}
	z := html.NewTokenizer(strings.NewReader(content))
	state := stateOutside

	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF on a clean end of input
			return parsed

		case html.StartTagToken:
			name, hasAttr := z.TagName()
			if !isHeading(name) {
				continue
			}
			parsed.Sections = append(parsed.Sections, Section{ID: headingID(z, hasAttr)})
			state = stateHeading

		case html.SelfClosingTagToken:
			// <h2 id="x"/> opens a section and closes its heading at once
			name, hasAttr := z.TagName()
			if !isHeading(name) {
				continue
			}
			parsed.Sections = append(parsed.Sections, Section{ID: headingID(z, hasAttr)})
			state = stateBody

		case html.EndTagToken:
			name, _ := z.TagName()
			if isHeading(name) && state == stateHeading {
				state = stateBody
			}

		case html.TextToken:
			data := string(z.Text())
			parsed.fragments = append(parsed.fragments, data)

			if state == stateOutside {
				continue
			}
			current := &parsed.Sections[len(parsed.Sections)-1]
			if state == stateHeading {
				// Last fragment wins: "Foo <code>bar</code>" yields "bar"
				current.Title = data
			} else {
				current.Text = append(current.Text, strings.TrimRight(data, "\n"))
			}
		}
	}
}

// isHeading reports whether a lower-cased tag name is h1-h6
func isHeading(name []byte) bool {
	return len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6'
}

// headingID reads the id attribute of the current tag; the last one wins
func headingID(z *html.Tokenizer, hasAttr bool) string {
	id := ""
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		if string(key) == "id" {
			id = string(val)
		}
	}
	return id
}
