package indexing

// Indexing granularity values for Config.Indexing
const (
	// IndexingFull indexes the full text of pages and sections
	IndexingFull = "full"

	// IndexingSections emits section entries with empty text (navigation-only search)
	IndexingSections = "sections"

	// IndexingTitles keeps only page entries with empty text
	IndexingTitles = "titles"
)

const (
	// TitleSeparator joins ancestor titles when full_path_in_title is enabled
	TitleSeparator = " / "

	// DefaultSeparator is the client-side token separator
	DefaultSeparator = `[\s\-]+`

	// DefaultMinSearchLength is the shortest query the client will run
	DefaultMinSearchLength = 3

	// IndexSchemaVersion increments when the compiled index layout changes
	// v1: lunr-compatible raw docs only, v2: bleve-derived inverted index
	IndexSchemaVersion = 2
)
