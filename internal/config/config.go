// Package config loads the search index options from a YAML file, either a
// bare options mapping or the search plugin block of an mkdocs.yml.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/krakend/docs-search-index/internal/indexing"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values
const (
	EnvIndexing      = "SEARCH_INDEXING"
	EnvPrebuildIndex = "SEARCH_PREBUILD_INDEX"
	EnvLang          = "SEARCH_LANG"
	EnvNodeScript    = "SEARCH_NODE_SCRIPT"
)

const pluginName = "search"

// Config is the index options plus the settings of the node strategy
type Config struct {
	indexing.Config

	// NodeScript replaces the bundled prebuild script
	NodeScript string `json:"node_script,omitempty"`
	// NodeCommand replaces "node <script>" entirely
	NodeCommand []string `json:"node_command,omitempty"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{Config: indexing.DefaultConfig()}
}

// Load reads the options file at path and applies environment overrides.
// An empty path yields the defaults plus the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := cfg.parse(data); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML (or JSON) options over the defaults
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.parse(data); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) parse(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	opts, err := searchOptions(doc)
	if err != nil {
		return err
	}
	if len(opts) == 0 {
		return nil
	}

	if err := validateOptions(opts); err != nil {
		return err
	}
	return c.apply(opts)
}

// searchOptions returns the options mapping of doc. An mkdocs.yml keeps
// them under plugins, where the entry is "search" or {"search": {...}}.
func searchOptions(doc map[string]any) (map[string]any, error) {
	plugins, ok := doc["plugins"]
	if !ok {
		return doc, nil
	}

	list, ok := plugins.([]any)
	if !ok {
		return nil, fmt.Errorf("plugins must be a list, got %T", plugins)
	}
	for _, item := range list {
		switch p := item.(type) {
		case string:
			if p == pluginName {
				return map[string]any{}, nil
			}
		case map[string]any:
			body, ok := p[pluginName]
			if !ok {
				continue
			}
			if body == nil {
				return map[string]any{}, nil
			}
			opts, ok := body.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s plugin options must be a mapping, got %T", pluginName, body)
			}
			return opts, nil
		}
	}
	return map[string]any{}, nil
}

func (c *Config) apply(opts map[string]any) error {
	for key, value := range opts {
		switch key {
		case "indexing":
			c.Indexing = fmt.Sprint(value)
		case "full_path_in_title":
			b, ok := value.(bool)
			if !ok {
				return fmt.Errorf("full_path_in_title must be a boolean")
			}
			c.FullPathInTitle = b
		case "lang":
			langs, err := stringList(value)
			if err != nil {
				return fmt.Errorf("lang: %w", err)
			}
			c.Lang = langs
		case "prebuild_index":
			c.PrebuildIndex = indexing.ParsePrebuildIndex(value)
		case "min_search_length":
			n, ok := value.(int)
			if !ok {
				return fmt.Errorf("min_search_length must be an integer")
			}
			c.MinSearchLength = n
		case "separator":
			c.Separator = fmt.Sprint(value)
		case "node_script":
			c.NodeScript = fmt.Sprint(value)
		case "node_command":
			cmd, err := stringList(value)
			if err != nil {
				return fmt.Errorf("node_command: %w", err)
			}
			c.NodeCommand = cmd
		}
	}
	return nil
}

// ApplyEnv overrides values from the environment read through getenv
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvIndexing); v != "" {
		c.Indexing = v
	}
	if v := getenv(EnvPrebuildIndex); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.PrebuildIndex = indexing.ParsePrebuildIndex(b)
		} else {
			c.PrebuildIndex = indexing.ParsePrebuildIndex(v)
		}
	}
	if v := getenv(EnvLang); v != "" {
		var langs []string
		for _, l := range strings.Split(v, ",") {
			if l = strings.TrimSpace(l); l != "" {
				langs = append(langs, l)
			}
		}
		c.Lang = langs
	}
	if v := getenv(EnvNodeScript); v != "" {
		if _, err := os.Stat(v); err != nil {
			return fmt.Errorf("%s: %w", EnvNodeScript, err)
		}
		c.NodeScript = v
	}
	return nil
}

// Validate checks the effective configuration against the options schema.
// Values that merely disable a feature are reported as warnings.
func Validate(cfg *Config) ([]string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	var opts map[string]any
	if err := json.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	var warnings []string
	switch cfg.Indexing {
	case indexing.IndexingFull, indexing.IndexingSections, indexing.IndexingTitles:
	default:
		warnings = append(warnings, fmt.Sprintf("Unknown indexing %q: only page titles will be indexed", cfg.Indexing))
	}

	switch cfg.PrebuildIndex {
	case "", indexing.PrebuildDisabled, indexing.PrebuildTrue, indexing.PrebuildNode, indexing.PrebuildPython:
	default:
		warnings = append(warnings, fmt.Sprintf("Unknown prebuild_index %q: the index will not be pre-built", cfg.PrebuildIndex))
	}

	if len(cfg.Lang) == 0 && cfg.PrebuildIndex.Strategy() != indexing.StrategyNone {
		warnings = append(warnings, "No lang configured: the pre-built index uses the standard analyzer")
	}

	return warnings, nil
}

func stringList(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected strings, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a string or a list, got %T", value)
	}
}
