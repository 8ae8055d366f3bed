package discovery

import "encoding/json"

// Schema for structured discovery output, enforced by the API so the
// response is guaranteed to match Result.
var techDiscoverySchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "challenge_summary": {
      "type": "string",
      "description": "Brief restatement of the challenge being addressed"
    },
    "core_functions": {
      "type": "array",
      "items": {"type": "string"},
      "description": "List of core functions that must be performed (what must happen)"
    },
    "underlying_principles": {
      "type": "array",
      "items": {"type": "string"},
      "description": "Physical, chemical, or mechanical principles that enable these functions"
    },
    "technology_paths": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "path_name": {"type": "string"},
          "principles_used": {"type": "array", "items": {"type": "string"}},
          "technology_classes": {"type": "array", "items": {"type": "string"}},
          "why_this_is_plausible": {"type": "string"},
          "estimated_cost_band_eur": {"type": "string"},
          "risks_and_unknowns": {"type": "array", "items": {"type": "string"}}
        },
        "required": [
          "path_name",
          "principles_used",
          "technology_classes",
          "why_this_is_plausible",
          "estimated_cost_band_eur",
          "risks_and_unknowns"
        ]
      },
      "minItems": 1,
      "maxItems": 3,
      "description": "2-3 plausible technology paths under the budget constraint"
    },
    "confidence": {
      "type": "number",
      "minimum": 0.0,
      "maximum": 1.0,
      "description": "Confidence in the feasibility of these paths (0.0-1.0)"
    }
  },
  "required": [
    "challenge_summary",
    "core_functions",
    "underlying_principles",
    "technology_paths",
    "confidence"
  ]
}`)
