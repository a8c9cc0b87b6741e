package indexing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
)

// Compiler pre-builds a ready-to-query index from the raw entries.
// base is the serialized payload without an "index" key.
type Compiler interface {
	Compile(docs []Entry, cfg Config, base []byte) (json.RawMessage, error)
}

// CompilerFunc adapts a function to the Compiler interface
type CompilerFunc func(docs []Entry, cfg Config, base []byte) (json.RawMessage, error)

// Compile calls f
func (f CompilerFunc) Compile(docs []Entry, cfg Config, base []byte) (json.RawMessage, error) {
	return f(docs, cfg, base)
}

// Payload is the search index document.
// Fields are declared in key order so the encoded object is sorted.
type Payload struct {
	Config Config          `json:"config"`
	Docs   []Entry         `json:"docs"`
	Index  json.RawMessage `json:"index,omitempty"`
}

// Report describes how a payload was produced
type Report struct {
	Strategy Strategy `json:"strategy"`
	Prebuilt bool     `json:"prebuilt"`
	Docs     int      `json:"docs"`
	Bytes    int      `json:"bytes"`
	Warnings []string `json:"warnings,omitempty"`
}

// Serializer turns an entry store into the final JSON payload.
// A nil compiler means the strategy is unavailable in this build.
type Serializer struct {
	Config   Config
	Node     Compiler
	Embedded Compiler
	Logger   *log.Logger
}

// Generate serializes the store. A nil store serializes as empty.
// Pre-build failures are logged as warnings and never prevent a payload
// from being returned.
func (s *Serializer) Generate(store *Store) (string, *Report) {
	docs := store.Entries()
	strategy := s.Config.PrebuildIndex.Strategy()
	report := &Report{Strategy: strategy, Docs: len(docs)}

	payload := Payload{Config: s.Config, Docs: docs}
	data, err := encodeJSON(payload)
	if err != nil {
		// Unreachable: config and entries hold only strings
		s.warn(report, fmt.Sprintf("Failed to encode search index: %v", err))
		return "{}", report
	}

	compiler, missing := s.compilerFor(strategy)
	if missing != "" {
		s.warn(report, missing)
		report.Bytes = len(data)
		return string(data), report
	}
	if compiler == nil {
		report.Bytes = len(data)
		return string(data), report
	}

	compiled, err := compiler.Compile(docs, s.Config, data)
	if err == nil {
		compiled, err = canonicalJSON(compiled)
	}
	if err != nil {
		s.warn(report, fmt.Sprintf("Failed to pre-build search index. Error: %v", err))
		report.Bytes = len(data)
		return string(data), report
	}

	payload.Index = compiled
	prebuilt, err := encodeJSON(payload)
	if err != nil {
		s.warn(report, fmt.Sprintf("Failed to pre-build search index. Error: %v", err))
		report.Bytes = len(data)
		return string(data), report
	}

	s.logger().Printf("✓ Pre-built search index created successfully (%s, %d docs)", strategy, len(docs))
	report.Prebuilt = true
	report.Bytes = len(prebuilt)
	return string(prebuilt), report
}

// compilerFor returns the compiler for a strategy (nil for StrategyNone),
// or a warning naming the missing dependency
func (s *Serializer) compilerFor(strategy Strategy) (Compiler, string) {
	switch strategy {
	case StrategyNode:
		if s.Node == nil {
			return nil, "Failed to pre-build search index. The 'node' method was specified; " +
				"however, no node indexing process is configured."
		}
		return s.Node, ""
	case StrategyEmbedded:
		if s.Embedded == nil {
			return nil, "Failed to pre-build search index. The 'python' method was specified; " +
				"however, the embedded 'bleve' indexing library is not compiled into this binary. " +
				"Rebuild without the 'nobleve' build tag."
		}
		return s.Embedded, ""
	default:
		return nil, ""
	}
}

func (s *Serializer) warn(report *Report, msg string) {
	report.Warnings = append(report.Warnings, msg)
	s.logger().Printf("Warning: %s", msg)
}

func (s *Serializer) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Default()
}

// encodeJSON encodes compactly without HTML escaping
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// canonicalJSON re-encodes raw JSON so object keys are sorted at every level
func canonicalJSON(raw json.RawMessage) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid compiled index: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("invalid compiled index: trailing data after JSON value")
	}
	if v == nil {
		return nil, fmt.Errorf("invalid compiled index: empty result")
	}
	return encodeJSON(v)
}
