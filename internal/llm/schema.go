package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/phanvandien/ocr-script/constants"
)

// BuildEnvelopeJSONSchema describes the top-level response: an object with an items list.
func BuildEnvelopeJSONSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"items"},
		"properties": map[string]any{
			"items": map[string]any{"type": "array"},
		},
	}
}

// BuildItemJSONSchema returns the per-record schema for mode. Types are loose on
// purpose where the normalizer coerces (numbers as strings and vice versa).
func BuildItemJSONSchema(mode constants.Mode) map[string]any {
	if mode == constants.ModeCertificate {
		optional := map[string]any{"type": []string{"string", "null"}}
		return map[string]any{
			"type": "object",
			"properties": map[string]any{
				"degree_name":         optional,
				"major":               optional,
				"issuing_institution": optional,
				"full_name":           map[string]any{"type": "string"},
				"birth_date":          map[string]any{"type": "string", "minLength": 1},
			},
			"required": []string{"full_name", "birth_date"},
		}
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sbd":   map[string]any{"type": []string{"string", "number"}},
			"score": map[string]any{"type": []string{"number", "string", "null"}},
		},
		"required": []string{"sbd", "score"},
	}
}

// CompileSchema compiles a schema map.
func CompileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	schema, err := CompileSchema(schemaMap)
	if err != nil {
		return err
	}
	v, err := decodeJSON(data)
	if err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

var (
	itemSchemasOnce sync.Once
	itemSchemas     map[constants.Mode]*jsonschema.Schema
	itemSchemasErr  error
)

// itemSchema returns the compiled per-record schema, compiled once per process.
func itemSchema(mode constants.Mode) (*jsonschema.Schema, error) {
	itemSchemasOnce.Do(func() {
		itemSchemas = make(map[constants.Mode]*jsonschema.Schema)
		for _, m := range []constants.Mode{constants.ModeTranscript, constants.ModeCertificate} {
			s, err := CompileSchema(BuildItemJSONSchema(m))
			if err != nil {
				itemSchemasErr = err
				return
			}
			itemSchemas[m] = s
		}
	})
	if itemSchemasErr != nil {
		return nil, itemSchemasErr
	}
	s, ok := itemSchemas[mode]
	if !ok {
		return nil, fmt.Errorf("no schema for mode %q", mode)
	}
	return s, nil
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
