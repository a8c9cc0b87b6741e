package indexing

import "strings"

// Store accumulates entries for one index build. It is append-only and
// not safe for concurrent writers; start a new build with NewStore.
type Store struct {
	entries []Entry
}

// NewStore creates an empty entry store
func NewStore() *Store {
	return &Store{}
}

// Add normalizes the entry text and appends the entry
func (s *Store) Add(title, text, location string) {
	s.entries = append(s.entries, Entry{
		Title:    title,
		Text:     NormalizeText(text),
		Location: location,
	})
}

// Entries returns a copy of the entries in insertion order. A nil store
// has no entries.
func (s *Store) Entries() []Entry {
	if s == nil {
		return []Entry{}
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Builder turns pages into entries according to the indexing options
type Builder struct {
	Config Config
	Store  *Store
}

// NewBuilder creates a builder writing into a fresh store
func NewBuilder(cfg Config) *Builder {
	return &Builder{Config: cfg, Store: NewStore()}
}

// AddPage creates one entry for the page and, when sections are indexed,
// one entry per heading that has a matching table of contents node.
// It returns the number of entries added.
func (b *Builder) AddPage(page Page) int {
	before := b.Store.Len()

	pageTitle := composeTitle(page, b.Config.FullPathInTitle)
	parsed := ParseContent(page.Content())
	url := page.URL()

	text := ""
	if b.Config.indexesText() {
		text = strings.TrimRight(parsed.StrippedText(), "\n")
	}
	b.Store.Add(pageTitle, text, url)

	if b.Config.indexesSections() {
		toc := page.TOC()
		for i, section := range parsed.Sections {
			sectionTitle := ""
			if b.Config.FullPathInTitle && i == 0 {
				sectionTitle = pageTitle
			}
			b.addSection(section, toc, url, sectionTitle)
		}
	}

	return b.Store.Len() - before
}

// addSection links a section to its table of contents node. Sections whose
// heading cannot be found in the outline have no anchor and are dropped.
func (b *Builder) addSection(section Section, toc TableOfContents, pageURL, title string) {
	item := toc.FindByID(section.ID)
	if item == nil {
		return
	}
	if title == "" {
		title = item.Title
	}

	text := ""
	if b.Config.indexesText() {
		text = strings.Join(section.Text, " ")
	}
	b.Store.Add(title, text, pageURL+item.URL)
}
