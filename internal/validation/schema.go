package validation

// resultSchema is the JSON Schema (draft-07) every comparison payload must
// satisfy before the pipeline trusts it. Dynamic-key maps (priority_scores,
// spec values) accept any key but pin the value type. Numeric ranges are
// enforced by type only.
const resultSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "ComparisonResult",
  "type": "object",
  "required": [
    "selected_phone",
    "phone_evaluations",
    "trade_offs",
    "spec_comparisons",
    "budget_analysis",
    "summary"
  ],
  "properties": {
    "selected_phone": {"$ref": "#/definitions/pick"},
    "runner_up": {
      "anyOf": [{"$ref": "#/definitions/pick"}, {"type": "null"}]
    },
    "phone_evaluations": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["phone_id", "phone_name", "strengths", "weaknesses", "priority_scores"],
        "properties": {
          "phone_id": {"type": "string"},
          "phone_name": {"type": "string"},
          "strengths": {"type": "array", "items": {"type": "string"}},
          "weaknesses": {"type": "array", "items": {"type": "string"}},
          "priority_scores": {
            "type": "object",
            "additionalProperties": {"type": "number"}
          }
        }
      }
    },
    "trade_offs": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["phone_a", "phone_b", "analysis"],
        "properties": {
          "phone_a": {"type": "string"},
          "phone_b": {"type": "string"},
          "analysis": {"type": "string"}
        }
      }
    },
    "spec_comparisons": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["specification", "values", "winner", "analysis"],
        "properties": {
          "specification": {"type": "string"},
          "values": {
            "type": "object",
            "additionalProperties": {"type": "string"}
          },
          "winner": {"type": "string"},
          "analysis": {"type": "string"}
        }
      }
    },
    "budget_analysis": {
      "type": "object",
      "required": ["within_budget", "analysis"],
      "properties": {
        "within_budget": {"type": "boolean"},
        "analysis": {"type": "string"},
        "above_budget_pick": {
          "anyOf": [{"$ref": "#/definitions/pick"}, {"type": "null"}]
        }
      }
    },
    "summary": {"type": "string"}
  },
  "definitions": {
    "pick": {
      "type": "object",
      "required": ["phone_id", "phone_name", "justification"],
      "properties": {
        "phone_id": {"type": "string"},
        "phone_name": {"type": "string"},
        "justification": {"type": "string"}
      }
    }
  }
}`
