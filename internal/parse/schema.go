package parse

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildPredictionJSONSchema returns the payload-shape contract as a JSON
// Schema (draft 2020-12 subset) generic map. Shape violations are structural
// failures; everything the schema deliberately leaves open (absent keys,
// null values, junk text) degrades to field-level warnings instead.
func BuildPredictionJSONSchema() map[string]any {
	fieldProp := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"polygon": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "array", "items": map[string]any{"type": "number"}},
			},
		},
	}

	lineItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description":  fieldProp,
			"quantity":     fieldProp,
			"unit_price":   fieldProp,
			"total_amount": fieldProp,
		},
		"required": []string{"description", "quantity", "unit_price", "total_amount"},
	}

	return map[string]any{
		"type":          "object",
		"minProperties": 1,
		"properties": map[string]any{
			"line_items": map[string]any{"type": "array", "items": lineItem},
			"locale": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"language":   map[string]any{"type": "string"},
					"country":    map[string]any{"type": "string"},
					"currency":   map[string]any{"type": "string"},
					"confidence": map[string]any{"type": "number"},
				},
			},
		},
	}
}

// validateShape validates the raw prediction payload against the shape schema.
func validateShape(raw []byte) error {
	b, err := json.Marshal(BuildPredictionJSONSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("prediction.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("prediction.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("payload does not match prediction shape: %w", err)
	}
	return nil
}
