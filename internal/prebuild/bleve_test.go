//go:build !nobleve

package prebuild_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krakend/docs-search-index/internal/indexing"
	"github.com/krakend/docs-search-index/internal/prebuild"
)

type termEntry struct {
	DF       uint64         `json:"df"`
	Postings map[string]int `json:"postings"`
}

type compiledIndex struct {
	Analyzer      string                          `json:"analyzer"`
	DocumentCount uint64                          `json:"documentCount"`
	Fields        []string                        `json:"fields"`
	InvertedIndex map[string]map[string]termEntry `json:"invertedIndex"`
	Lang          []string                        `json:"lang"`
	Ref           string                          `json:"ref"`
	Version       int                             `json:"version"`
}

func TestAnalyzerFor(t *testing.T) {
	tests := []struct {
		name    string
		langs   []string
		want    string
		wantErr bool
	}{
		{name: "english", langs: []string{"en"}, want: "en"},
		{name: "regional variant", langs: []string{"pt_BR"}, want: "pt"},
		{name: "first supported wins", langs: []string{"xx", "de", "fr"}, want: "de"},
		{name: "upper case", langs: []string{"FR"}, want: "fr"},
		{name: "no languages", langs: nil, want: "standard"},
		{name: "unsupported", langs: []string{"tlh"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := prebuild.AnalyzerFor(tt.langs)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBleveCompiler(t *testing.T) {
	compile := func(t *testing.T, store *indexing.Store) compiledIndex {
		t.Helper()
		out, err := prebuild.Embedded(log.New(io.Discard, "", 0)).Compile(store.Entries(), indexing.DefaultConfig(), nil)
		require.NoError(t, err)

		var idx compiledIndex
		require.NoError(t, json.Unmarshal(out, &idx))
		return idx
	}

	t.Run("terms and frequencies", func(t *testing.T) {
		var logs bytes.Buffer
		compiler := prebuild.Embedded(log.New(&logs, "", 0))
		require.NotNil(t, compiler)

		store := indexing.NewStore()
		store.Add("Install", "Install the gateway. Install it again.", "/install/")
		store.Add("Requirements", "Hello gateway", "/install/#requirements")
		store.Add("Configure", "Nothing to see", "/configure/")

		out, err := compiler.Compile(store.Entries(), indexing.DefaultConfig(), nil)
		require.NoError(t, err)

		var idx compiledIndex
		require.NoError(t, json.Unmarshal(out, &idx))

		assert.Equal(t, "en", idx.Analyzer)
		assert.Equal(t, uint64(3), idx.DocumentCount)
		assert.Equal(t, "location", idx.Ref)
		assert.Equal(t, []string{"text", "title"}, idx.Fields)
		assert.Equal(t, []string{"en"}, idx.Lang)
		assert.Equal(t, indexing.IndexSchemaVersion, idx.Version)

		gateway := lookupTerm(t, idx, "text", "gatewai", "gateway")
		assert.Equal(t, uint64(2), gateway.DF)
		assert.Equal(t, map[string]int{"/install/": 1, "/install/#requirements": 1}, gateway.Postings)

		install := lookupTerm(t, idx, "text", "instal", "install")
		assert.Equal(t, 2, install.Postings["/install/"])

		assert.Contains(t, logs.String(), "Compiled bleve index: 3 docs")
	})

	t.Run("empty and repeated locations", func(t *testing.T) {
		store := indexing.NewStore()
		store.Add("Home", "Welcome hello", "")
		store.Add("Intro", "hello there", "#intro")
		store.Add("Other", "hello again", "other/")
		store.Add("Other", "hello hello", "other/")

		idx := compile(t, store)

		assert.Equal(t, uint64(4), idx.DocumentCount)
		hello := lookupTerm(t, idx, "text", "hello")
		assert.Equal(t, uint64(4), hello.DF)
		assert.Equal(t, map[string]int{"": 1, "#intro": 1, "other/": 3}, hello.Postings)

		home := lookupTerm(t, idx, "title", "home")
		assert.Equal(t, map[string]int{"": 1}, home.Postings)
	})

	t.Run("postings are complete for frequent terms", func(t *testing.T) {
		if testing.Short() {
			t.Skip("indexes more than ten thousand entries")
		}

		const n = 10050
		store := indexing.NewStore()
		for i := 0; i < n; i++ {
			store.Add("Page", "common", fmt.Sprintf("page-%d/", i))
		}

		idx := compile(t, store)

		common := lookupTerm(t, idx, "text", "common")
		assert.Equal(t, uint64(n), common.DF)
		assert.Len(t, common.Postings, n)
		assert.Equal(t, 1, common.Postings[fmt.Sprintf("page-%d/", n-1)])
	})
}

// lookupTerm returns the first of the candidate spellings present, since
// stemming decides which one the dictionary holds
func lookupTerm(t *testing.T, idx compiledIndex, field string, candidates ...string) termEntry {
	t.Helper()
	for _, term := range candidates {
		if info, ok := idx.InvertedIndex[field][term]; ok {
			return info
		}
	}
	require.Failf(t, "term missing", "none of %v in %s: %v", candidates, field, idx.InvertedIndex[field])
	return termEntry{}
}

func TestBleveCompilerUnsupportedLanguage(t *testing.T) {
	cfg := indexing.DefaultConfig()
	cfg.Lang = []string{"tlh"}

	_, err := prebuild.Embedded(nil).Compile(nil, cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no bleve analyzer")
}

func TestSerializerWithEmbedded(t *testing.T) {
	var logs bytes.Buffer
	cfg := indexing.DefaultConfig()
	cfg.PrebuildIndex = indexing.PrebuildPython

	s := prebuild.NewSerializer(cfg, prebuild.Options{Logger: log.New(&logs, "", 0)})
	store := indexing.NewStore()
	store.Add("X", "Intro Hello world", "/x/")
	store.Add("Intro", "Hello world", "/x/#a")

	data, report := s.Generate(store)
	require.True(t, report.Prebuilt, logs.String())
	assert.Empty(t, report.Warnings)
	assert.True(t, strings.Contains(data, `,"index":{"analyzer":"en","documentCount":2,`), data)

	again, _ := s.Generate(store)
	assert.Equal(t, data, again)
}
