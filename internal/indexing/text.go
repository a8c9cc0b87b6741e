package indexing

import (
	"regexp"
	"strings"
)

var whitespaceRunRegex = regexp.MustCompile(`[ \t\n\r\f\v]+`)

// NormalizeText prepares entry text for the index
// Example: "  Hello\n\tworld  " -> "Hello world"
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\u00a0", " ")
	return whitespaceRunRegex.ReplaceAllString(strings.TrimSpace(text), " ")
}

// composeTitle joins ancestor titles root-first with the page title
func composeTitle(page Page, fullPath bool) string {
	var parts []string
	if title := page.Title(); title != "" {
		parts = append(parts, title)
	}
	if fullPath {
		for _, ancestor := range page.Ancestors() {
			if ancestor == nil || ancestor.Title() == "" {
				continue
			}
			parts = append([]string{ancestor.Title()}, parts...)
		}
	}
	return strings.Join(parts, TitleSeparator)
}
