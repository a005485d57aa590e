package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaValidationError describes one schema-validation failure.
type SchemaValidationError struct {
	Path    string
	Message string
}

// Error renders the schema-validation failure.
func (e SchemaValidationError) Error() string {
	path := strings.TrimSpace(e.Path)
	if path == "" {
		path = "$"
	}
	return fmt.Sprintf("%s: %s", path, e.Message)
}

const schemaBaseURL = "https://tavla.local/schemas/"

const tasksSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "title", "status"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "title": {"type": "string"},
      "status": {"type": "string"},
      "priority": {"type": "string"},
      "description": {"type": "string"},
      "dueDate": {"type": ["string", "null"]}
    }
  }
}`

const columnsSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["id", "title"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "title": {"type": "string"},
      "style": {
        "type": "object",
        "properties": {
          "accent": {"type": "string"},
          "background": {"type": "string"},
          "text": {"type": "string"},
          "darkBackground": {"type": "string"},
          "darkText": {"type": "string"}
        }
      }
    }
  }
}`

const snapshotSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "columns", "tasks"],
  "properties": {
    "version": {"type": "string"},
    "exported_at": {"type": "string", "format": "date-time"},
    "theme": {"enum": ["light", "dark", ""]},
    "columns": {"$ref": "columns.json"},
    "tasks": {"$ref": "tasks.json"}
  }
}`

// blobSchemas holds the compiled schemas for stored and imported documents.
type blobSchemas struct {
	tasks    *jsonschema.Schema
	columns  *jsonschema.Schema
	snapshot *jsonschema.Schema
}

func compileBlobSchemas() (*blobSchemas, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	resources := map[string]string{
		schemaBaseURL + "tasks.json":    tasksSchemaJSON,
		schemaBaseURL + "columns.json":  columnsSchemaJSON,
		schemaBaseURL + "snapshot.json": snapshotSchemaJSON,
	}
	for name, raw := range resources {
		if err := compiler.AddResource(name, strings.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}
	out := &blobSchemas{}
	var err error
	if out.tasks, err = compiler.Compile(schemaBaseURL + "tasks.json"); err != nil {
		return nil, fmt.Errorf("compile tasks schema: %w", err)
	}
	if out.columns, err = compiler.Compile(schemaBaseURL + "columns.json"); err != nil {
		return nil, fmt.Errorf("compile columns schema: %w", err)
	}
	if out.snapshot, err = compiler.Compile(schemaBaseURL + "snapshot.json"); err != nil {
		return nil, fmt.Errorf("compile snapshot schema: %w", err)
	}
	return out, nil
}

// validateBlob decodes raw JSON and validates it against schema. The returned
// error is either a decode error or a joined list of SchemaValidationError.
func validateBlob(schema *jsonschema.Schema, raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return SchemaValidationError{Path: "$", Message: "empty document"}
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return SchemaValidationError{Path: "$", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	err := schema.Validate(decoded)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	var errs []error
	collectSchemaErrors(&errs, ve)
	return errors.Join(errs...)
}

func collectSchemaErrors(errs *[]error, ve *jsonschema.ValidationError) {
	if ve == nil {
		return
	}
	if len(ve.Causes) == 0 {
		*errs = append(*errs, SchemaValidationError{
			Path:    jsonPointerToPath(ve.InstanceLocation),
			Message: ve.Message,
		})
		return
	}
	for _, cause := range ve.Causes {
		collectSchemaErrors(errs, cause)
	}
}

// jsonPointerToPath renders "/tasks/0/id" as "$.tasks[0].id".
func jsonPointerToPath(pointer string) string {
	if pointer == "" || pointer == "/" {
		return "$"
	}
	var b strings.Builder
	b.WriteString("$")
	for _, part := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		part = strings.ReplaceAll(strings.ReplaceAll(part, "~1", "/"), "~0", "~")
		if isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		b.WriteString("." + part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
