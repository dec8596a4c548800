package resolve

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// mlPayloadSchema pins the contract of ToMLDict so dataset consumers can
// rely on the key set staying stable across refactors.
var mlPayloadSchema = map[string]any{
	"type": "object",
	"required": []any{
		"schema_version", "entity", "value", "confidence", "confidence_bucket",
		"doc_id", "page_count", "lang_script", "mode_trace", "winner",
		"winner_margin", "topk_gap", "candidate_count_total",
		"candidate_count_filtered", "top_k", "rejection_stats",
		"feature_flags", "debug_context", "labeling_fields",
	},
	"properties": map[string]any{
		"schema_version":    map[string]any{"const": float64(MLSchemaVersion)},
		"entity":            map[string]any{"type": "string"},
		"confidence":        map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"confidence_bucket": map[string]any{"enum": []any{"HIGH", "MEDIUM", "LOW", "NONE"}},
		"mode_trace":        map[string]any{"type": "array", "minItems": 1},
		"top_k":             map[string]any{"type": "array", "maxItems": topKExportSize},
		"candidate_count_total":    map[string]any{"type": "integer", "minimum": 0},
		"candidate_count_filtered": map[string]any{"type": "integer", "minimum": 0},
		"rejection_stats":          map[string]any{"type": "object"},
		"feature_flags":            map[string]any{"type": "object"},
		"labeling_fields":          map[string]any{"type": "object"},
	},
}

// ValidateMLPayload validates an ML export payload against the embedded
// schema. Meant for tests and for dataset writers that want a hard check
// before shipping rows.
func ValidateMLPayload(payload map[string]any) error {
	b, err := json.Marshal(mlPayloadSchema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("ml_payload.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("ml_payload.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	// round-trip through JSON so the validator sees plain maps/numbers
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("payload does not match schema: %w", err)
	}
	return nil
}
