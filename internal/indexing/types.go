package indexing

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Section is a heading and the text that follows it up to the next heading
type Section struct {
	ID    string   `json:"id,omitempty"`
	Title string   `json:"title,omitempty"`
	Text  []string `json:"text"`
}

// Entry is one indexable record in the search index.
// Fields are declared in key order so the encoded object is sorted.
type Entry struct {
	Location string `json:"location"`
	Text     string `json:"text"`
	Title    string `json:"title"`
}

// AnchorLink is a node of a page's table of contents
type AnchorLink struct {
	ID       string        `json:"id" yaml:"id"`
	Title    string        `json:"title" yaml:"title"`
	URL      string        `json:"url" yaml:"url"`
	Level    int           `json:"level,omitempty" yaml:"level,omitempty"`
	Children []*AnchorLink `json:"children,omitempty" yaml:"children,omitempty"`
}

// TableOfContents is the ordered top level of a page outline
type TableOfContents []*AnchorLink

// Ancestor is a parent section of a page in the site navigation
type Ancestor interface {
	Title() string
}

// Page is the read-only view of a rendered page the builder needs
type Page interface {
	Title() string
	URL() string
	// Ancestors are ordered nearest parent first
	Ancestors() []Ancestor
	// Content is the rendered HTML body
	Content() string
	TOC() TableOfContents
}

// PrebuildIndex selects the pre-build strategy. It round-trips the
// boolean or string form used in site configuration files.
type PrebuildIndex string

const (
	PrebuildDisabled PrebuildIndex = "false"
	PrebuildTrue     PrebuildIndex = "true"
	PrebuildNode     PrebuildIndex = "node"
	PrebuildPython   PrebuildIndex = "python"
)

// Strategy is the compile strategy a PrebuildIndex value selects
type Strategy string

const (
	StrategyNone     Strategy = "none"
	StrategyNode     Strategy = "node"
	StrategyEmbedded Strategy = "embedded"
)

// Strategy maps the configured value to a compile strategy.
// Unrecognized values disable pre-building.
func (p PrebuildIndex) Strategy() Strategy {
	switch p {
	case PrebuildTrue, PrebuildNode:
		return StrategyNode
	case PrebuildPython:
		return StrategyEmbedded
	default:
		return StrategyNone
	}
}

// MarshalJSON emits booleans for "true"/"false" and strings otherwise
func (p PrebuildIndex) MarshalJSON() ([]byte, error) {
	switch p {
	case "", PrebuildDisabled:
		return []byte("false"), nil
	case PrebuildTrue:
		return []byte("true"), nil
	default:
		return json.Marshal(string(p))
	}
}

// UnmarshalJSON accepts a boolean or a string
func (p *PrebuildIndex) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*p = ParsePrebuildIndex(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("prebuild_index must be a boolean or a string: %w", err)
	}
	*p = ParsePrebuildIndex(s)
	return nil
}

// ParsePrebuildIndex converts a decoded config value (bool, string or nil)
func ParsePrebuildIndex(v any) PrebuildIndex {
	switch val := v.(type) {
	case nil:
		return PrebuildDisabled
	case bool:
		if val {
			return PrebuildTrue
		}
		return PrebuildDisabled
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return PrebuildDisabled
		}
		return PrebuildIndex(s)
	default:
		return PrebuildIndex(fmt.Sprint(val))
	}
}

// Config holds the options serialized into the payload's "config" key.
// Fields are declared in key order so the encoded object is sorted.
type Config struct {
	FullPathInTitle bool          `json:"full_path_in_title"`
	Indexing        string        `json:"indexing"`
	Lang            []string      `json:"lang"`
	MinSearchLength int           `json:"min_search_length"`
	PrebuildIndex   PrebuildIndex `json:"prebuild_index"`
	Separator       string        `json:"separator"`
}

// DefaultConfig returns the options used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Indexing:        IndexingFull,
		Lang:            []string{"en"},
		MinSearchLength: DefaultMinSearchLength,
		PrebuildIndex:   PrebuildDisabled,
		Separator:       DefaultSeparator,
	}
}

// indexesSections reports whether section-level entries are emitted
func (c Config) indexesSections() bool {
	return c.Indexing == IndexingFull || c.Indexing == IndexingSections
}

// indexesText reports whether entries carry their text bodies
func (c Config) indexesText() bool {
	return c.Indexing == IndexingFull
}
