package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "https://www.krakend.io/schema/search-index.json"

// optionsSchema describes the plugin options. Enumerated values are not
// constrained here: unknown ones disable a feature and are warned about.
const optionsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "indexing": {"type": "string"},
    "full_path_in_title": {"type": "boolean"},
    "lang": {
      "oneOf": [
        {"type": "null"},
        {"type": "string", "minLength": 1},
        {"type": "array", "items": {"type": "string", "minLength": 1}}
      ]
    },
    "prebuild_index": {"type": ["boolean", "string", "null"]},
    "min_search_length": {"type": "integer", "minimum": 1},
    "separator": {"type": "string"},
    "node_script": {"type": "string"},
    "node_command": {
      "oneOf": [
        {"type": "string", "minLength": 1},
        {"type": "array", "items": {"type": "string"}, "minItems": 1}
      ]
    }
  }
}`

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(optionsSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to parse options schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add options schema: %w", err)
	}
	return compiler.Compile(schemaURL)
})

// SchemaError reports the options that violate the schema
type SchemaError struct {
	// Paths of the offending values, e.g. "$.lang"
	Paths   []string
	Message string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid options at %s: %s", strings.Join(e.Paths, ", "), e.Message)
}

// validateOptions checks a decoded options mapping against the schema
func validateOptions(opts map[string]any) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}

	// Round trip through JSON so numbers reach the validator as json.Number
	data, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode options: %w", err)
	}

	if err := schema.Validate(inst); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			return &SchemaError{Paths: violationPaths(validationErr), Message: validationErr.Error()}
		}
		return err
	}
	return nil
}

// violationPaths collects the distinct instance paths of the error leaves
func violationPaths(validationErr *jsonschema.ValidationError) []string {
	var paths []string
	seen := make(map[string]bool)

	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			path := "$"
			if len(e.InstanceLocation) > 0 {
				path = "$." + strings.Join(e.InstanceLocation, ".")
			}
			if !seen[path] {
				seen[path] = true
				paths = append(paths, path)
			}
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(validationErr)
	return paths
}
