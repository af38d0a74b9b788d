package provider

// flagSchema validates local flag documents before they reach the store.
const flagSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["flags"],
  "properties": {
    "flags": {
      "type": "object",
      "additionalProperties": { "$ref": "#/definitions/flag" }
    },
    "metadata": { "type": "object" }
  },
  "definitions": {
    "flag": {
      "type": "object",
      "required": ["state", "variants", "defaultVariant"],
      "properties": {
        "state": { "enum": ["ENABLED", "DISABLED"] },
        "variants": { "type": "object", "minProperties": 1 },
        "defaultVariant": { "type": "string" },
        "targeting": { "type": "object" },
        "metadata": { "type": "object" }
      }
    }
  }
}`
