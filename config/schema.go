package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// configSchema is the structural contract every vendor config must satisfy
// before page processing begins. Field-level regex syntax is checked
// separately in Compile, after the shape is known good.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["header_aliases", "totals_keywords", "items_region"],
  "properties": {
    "header_aliases": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {
        "type": "array",
        "minItems": 1,
        "items": {"type": "string", "minLength": 1}
      }
    },
    "numeric_families": {"type": "array", "items": {"type": "string"}},
    "totals_keywords": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 1}
    },
    "note_keywords": {"type": "array", "items": {"type": "string"}},
    "subtotal_keywords": {"type": "array", "items": {"type": "string"}},
    "items_region": {
      "type": "object",
      "required": ["start_anchors"],
      "properties": {
        "detect_by": {"type": "string"},
        "start_anchors": {
          "type": "array",
          "minItems": 1,
          "items": {"type": "string", "minLength": 1}
        },
        "end_anchors": {"type": "array", "items": {"type": "string"}},
        "case_sensitive": {"type": "boolean"},
        "margins": {
          "type": "object",
          "properties": {
            "top": {"type": "number"},
            "bottom": {"type": "number"},
            "left": {"type": "number"},
            "right": {"type": "number"}
          }
        },
        "min_height": {"type": "number", "minimum": 0},
        "x_policy": {"enum": ["full_width", "margins"]}
      }
    },
    "ranking": {
      "type": "object",
      "properties": {
        "weights": {"type": "object"},
        "overlap_threshold": {"type": "number", "minimum": 0, "maximum": 1},
        "max_candidates": {"type": "integer", "minimum": 1},
        "use_region": {"type": "boolean"},
        "default_row_limit": {"type": "integer", "minimum": 1}
      }
    },
    "row_fix": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "shadow_mode": {"type": "boolean"},
        "continuation_gap_pts": {"type": "number", "minimum": 0},
        "header_margin_pts": {"type": "number", "minimum": 0},
        "numeric_band_tolerance_pts": {"type": "number", "minimum": 0},
        "numeric_column_min_x_frac": {"type": "number", "minimum": 0, "maximum": 1},
        "continuation_gap_factor": {"type": "number", "minimum": 0},
        "part_number_patterns": {"type": "array", "items": {"type": "string"}},
        "arithmetic_tolerance": {"type": "object"},
        "subtotal_tolerance": {"type": "object"},
        "column_overrides": {"type": "array"},
        "cache_enabled": {"type": "boolean"},
        "debug": {"type": "boolean"}
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("itemfix-config.json", configSchema)

// validateSchema checks raw config bytes against the embedded schema and
// flattens every violation into a single error.
func validateSchema(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("config is not valid JSON: %w", err)
	}
	err := compiledSchema.Validate(v)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return fmt.Errorf("config validation: %w", err)
	}
	var problems []string
	collectLeaves(ve, &problems)
	return fmt.Errorf("config validation failed: %s", strings.Join(problems, "; "))
}

// collectLeaves walks the validation error tree and keeps only leaf causes,
// which name the individual offending fields.
func collectLeaves(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, fmt.Sprintf("%s: %s", loc, ve.Message))
		return
	}
	for _, c := range ve.Causes {
		collectLeaves(c, out)
	}
}
