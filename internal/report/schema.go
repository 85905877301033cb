package report

// Schema is the JSON Schema (Draft 2020-12) for the duplication
// analysis JSON output. It documents the structure returned by
// WriteJSON.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/overlap/duplication-report.schema.json",
  "title": "Test Duplication Report",
  "description": "Output schema for overlap analyze --format=json",
  "type": "object",
  "required": [
    "version", "threshold", "exact_duplicates", "subset_duplicates",
    "similar_tests", "summary", "score", "recommendations"
  ],
  "properties": {
    "version": {
      "type": "string",
      "description": "Schema version (semver)"
    },
    "threshold": {
      "type": "number",
      "minimum": 0,
      "maximum": 1,
      "description": "Jaccard similarity threshold used for the run"
    },
    "exact_duplicates": {
      "type": "array",
      "description": "Groups of tests with identical coverage",
      "items": {
        "type": "array",
        "minItems": 2,
        "items": { "type": "string" }
      }
    },
    "subset_duplicates": {
      "type": "array",
      "description": "[subset, superset, ratio] triples",
      "items": {
        "type": "array",
        "minItems": 3,
        "maxItems": 3,
        "prefixItems": [
          { "type": "string" },
          { "type": "string" },
          { "type": "number", "minimum": 0, "maximum": 1 }
        ]
      }
    },
    "similar_tests": {
      "type": "array",
      "description": "[test a, test b, similarity] triples",
      "items": {
        "type": "array",
        "minItems": 3,
        "maxItems": 3,
        "prefixItems": [
          { "type": "string" },
          { "type": "string" },
          { "type": "number", "minimum": 0, "maximum": 1 }
        ]
      }
    },
    "summary": { "$ref": "#/$defs/Statistics" },
    "score": { "$ref": "#/$defs/Score" },
    "recommendations": {
      "type": "array",
      "items": { "$ref": "#/$defs/Recommendation" }
    }
  },
  "$defs": {
    "Statistics": {
      "type": "object",
      "required": [
        "total_tests", "exact_duplicates", "duplicate_groups",
        "subset_duplicates", "similar_pairs"
      ],
      "properties": {
        "total_tests": { "type": "integer", "minimum": 0 },
        "exact_duplicates": {
          "type": "integer",
          "minimum": 0,
          "description": "Excess tests across all duplicate groups"
        },
        "duplicate_groups": { "type": "integer", "minimum": 0 },
        "subset_duplicates": { "type": "integer", "minimum": 0 },
        "similar_pairs": { "type": "integer", "minimum": 0 }
      }
    },
    "Score": {
      "type": "object",
      "required": [
        "overall_score", "duplication_score",
        "coverage_efficiency_score", "uniqueness_score", "grade"
      ],
      "properties": {
        "overall_score": { "type": "number", "minimum": 0, "maximum": 100 },
        "duplication_score": { "type": "number", "minimum": 0, "maximum": 100 },
        "coverage_efficiency_score": { "type": "number", "minimum": 0, "maximum": 100 },
        "uniqueness_score": { "type": "number", "minimum": 0, "maximum": 100 },
        "grade": {
          "type": "string",
          "enum": ["A+", "A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D+", "D", "F"]
        },
        "recommendations": {
          "oneOf": [
            { "type": "array", "items": { "type": "string" } },
            { "type": "null" }
          ],
          "description": "Short score improvement hints, if any"
        }
      }
    },
    "Recommendation": {
      "type": "object",
      "required": ["priority", "message"],
      "properties": {
        "priority": {
          "type": "string",
          "enum": ["high", "medium", "low"]
        },
        "message": { "type": "string" }
      }
    }
  }
}`
