//go:build !nobleve

package prebuild

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	index "github.com/blevesearch/bleve_index_api"
	"github.com/krakend/docs-search-index/internal/indexing"

	// Register the language analyzers selectable through "lang"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/de"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/en"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/es"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/fr"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/it"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/nl"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/pt"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/ru"
)

// EmbeddedAvailable reports whether the bleve compiler is part of this build
const EmbeddedAvailable = true

const (
	refField     = "location"
	batchSize    = 100
	standardName = "standard"
)

// indexedFields are the searchable entry fields, in key order
var indexedFields = []string{"text", "title"}

// languageAnalyzers maps lang codes to registered bleve analyzers
var languageAnalyzers = map[string]string{
	"de": "de",
	"en": "en",
	"es": "es",
	"fr": "fr",
	"it": "it",
	"nl": "nl",
	"pt": "pt",
	"ru": "ru",
}

// Embedded returns the in-process compiler
func Embedded(logger *log.Logger) indexing.Compiler {
	return &BleveCompiler{Logger: logger}
}

// BleveCompiler builds an in-memory bleve index from the entries and
// serializes its term dictionaries as an inverted index
type BleveCompiler struct {
	Logger *log.Logger
}

type termInfo struct {
	DF       uint64         `json:"df"`
	Postings map[string]int `json:"postings"`
}

// compiledIndex fields are declared in key order
type compiledIndex struct {
	Analyzer      string                         `json:"analyzer"`
	DocumentCount uint64                         `json:"documentCount"`
	Fields        []string                       `json:"fields"`
	InvertedIndex map[string]map[string]termInfo `json:"invertedIndex"`
	Lang          []string                       `json:"lang"`
	Ref           string                         `json:"ref"`
	Version       int                            `json:"version"`
}

// AnalyzerFor picks the analyzer of the first supported language
func AnalyzerFor(langs []string) (string, error) {
	if len(langs) == 0 {
		return standardName, nil
	}
	for _, lang := range langs {
		code := strings.ToLower(strings.TrimSpace(lang))
		if i := strings.IndexAny(code, "-_"); i > 0 {
			code = code[:i]
		}
		if analyzer, ok := languageAnalyzers[code]; ok {
			return analyzer, nil
		}
	}
	return "", fmt.Errorf("no bleve analyzer available for languages %v", langs)
}

// Compile indexes the entries with title and text as searchable fields
// and location as the document reference. Documents are stored under their
// position in docs, so empty and repeated locations index like any other.
func (c *BleveCompiler) Compile(docs []indexing.Entry, cfg indexing.Config, _ []byte) (json.RawMessage, error) {
	analyzer, err := AnalyzerFor(cfg.Lang)
	if err != nil {
		return nil, err
	}

	idx, err := bleve.NewMemOnly(buildMapping(analyzer))
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	defer idx.Close()

	batch := idx.NewBatch()
	for i, doc := range docs {
		fields := map[string]interface{}{
			"title":  doc.Title,
			"text":   doc.Text,
			refField: doc.Location,
		}
		if err := batch.Index(strconv.Itoa(i), fields); err != nil {
			return nil, fmt.Errorf("failed to add %q to batch: %w", doc.Location, err)
		}

		// Submit batch every 100 documents
		if (i+1)%batchSize == 0 {
			if err := idx.Batch(batch); err != nil {
				return nil, fmt.Errorf("failed to index batch: %w", err)
			}
			batch = idx.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			return nil, fmt.Errorf("failed to index final batch: %w", err)
		}
	}

	count, err := idx.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	compiled := compiledIndex{
		Analyzer:      analyzer,
		DocumentCount: count,
		Fields:        indexedFields,
		InvertedIndex: make(map[string]map[string]termInfo, len(indexedFields)),
		Lang:          cfg.Lang,
		Ref:           refField,
		Version:       indexing.IndexSchemaVersion,
	}
	if compiled.Lang == nil {
		compiled.Lang = []string{}
	}

	advanced, err := idx.Advanced()
	if err != nil {
		return nil, fmt.Errorf("failed to open index internals: %w", err)
	}
	reader, err := advanced.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open index reader: %w", err)
	}
	defer reader.Close()

	for _, field := range indexedFields {
		terms, err := fieldTerms(idx, reader, field, docs)
		if err != nil {
			return nil, err
		}
		compiled.InvertedIndex[field] = terms
	}

	data, err := json.Marshal(compiled)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize index: %w", err)
	}

	c.logger().Printf("✓ Compiled bleve index: %d docs, analyzer %s", count, analyzer)
	return data, nil
}

func buildMapping(analyzer string) mapping.IndexMapping {
	textMapping := func() *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = analyzer
		fm.IncludeTermVectors = true
		fm.Store = false
		return fm
	}

	refMapping := bleve.NewKeywordFieldMapping()
	refMapping.Store = true
	refMapping.IncludeInAll = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("title", textMapping())
	doc.AddFieldMappingsAt("text", textMapping())
	doc.AddFieldMappingsAt(refField, refMapping)

	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = analyzer
	im.DefaultMapping = doc
	return im
}

// fieldTerms walks the term dictionary of a field and records, per term,
// the document frequency and the term frequency in each document
func fieldTerms(idx bleve.Index, reader index.IndexReader, field string, docs []indexing.Entry) (map[string]termInfo, error) {
	dict, err := idx.FieldDict(field)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s dictionary: %w", field, err)
	}
	defer dict.Close()

	terms := make(map[string]termInfo)
	for {
		entry, err := dict.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s dictionary: %w", field, err)
		}
		if entry == nil {
			break
		}

		postings, err := termPostings(reader, field, entry.Term, docs)
		if err != nil {
			return nil, err
		}
		terms[entry.Term] = termInfo{DF: entry.Count, Postings: postings}
	}
	return terms, nil
}

// termPostings reads every posting of a term and keys it by location.
// Entries sharing a location add up their frequencies.
func termPostings(reader index.IndexReader, field, term string, docs []indexing.Entry) (map[string]int, error) {
	tfr, err := reader.TermFieldReader(context.Background(), []byte(term), field, true, false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to read postings for %s:%s: %w", field, term, err)
	}
	defer tfr.Close()

	postings := make(map[string]int)
	var doc *index.TermFieldDoc
	for {
		doc, err = tfr.Next(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to read postings for %s:%s: %w", field, term, err)
		}
		if doc == nil {
			break
		}

		id, err := reader.ExternalID(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve posting of %s:%s: %w", field, term, err)
		}
		pos, err := strconv.Atoi(id)
		if err != nil || pos < 0 || pos >= len(docs) {
			return nil, fmt.Errorf("unexpected document id %q in postings of %s:%s", id, field, term)
		}

		tf := int(doc.Freq)
		if tf == 0 {
			tf = 1
		}
		postings[docs[pos].Location] += tf
	}
	return postings, nil
}

func (c *BleveCompiler) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}
