package indexing

// FindByID returns the first node, depth-first in document order, whose ID
// equals id. Headings without an id never match.
func (toc TableOfContents) FindByID(id string) *AnchorLink {
	if id == "" {
		return nil
	}
	return findAnchor(toc, id)
}

func findAnchor(items []*AnchorLink, id string) *AnchorLink {
	for _, item := range items {
		if item == nil {
			continue
		}
		if item.ID == id {
			return item
		}
		if found := findAnchor(item.Children, id); found != nil {
			return found
		}
	}
	return nil
}
