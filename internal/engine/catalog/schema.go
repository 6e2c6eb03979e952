// internal/engine/catalog/schema.go
package catalog

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// rawSchema is the structural contract a raw catalog document must satisfy
// before semantic validation runs. Semantic rules (threshold ordering,
// weight sums, score bounds) live in Validate.
const rawSchema = `{
  "type": "object",
  "required": ["stages", "classificationThresholds", "defaultBand"],
  "properties": {
    "version": {"type": "string"},
    "defaultBand": {"type": "string", "minLength": 1},
    "weightEpsilon": {"type": "number", "minimum": 0},
    "stages": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["index", "title", "minScoreRequired", "maxPossibleScore", "questions"],
        "properties": {
          "index": {"type": "integer", "minimum": 0},
          "title": {"type": "string", "minLength": 1},
          "minScoreRequired": {"type": "integer", "minimum": 0},
          "maxPossibleScore": {"type": "integer", "minimum": 1},
          "questions": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["id", "kind", "prompt", "weight"],
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "kind": {"enum": ["single_choice", "multi_choice", "numeric_slider", "free_text"]},
                "prompt": {"type": "string"},
                "weight": {"type": "number", "minimum": 0, "maximum": 1},
                "required": {"type": "boolean"},
                "options": {
                  "type": "array",
                  "items": {
                    "type": "object",
                    "required": ["label", "rawScore"],
                    "properties": {
                      "label": {"type": "string"},
                      "rawScore": {"type": "integer", "minimum": 0, "maximum": 10}
                    }
                  }
                },
                "maxSelections": {"type": "integer", "minimum": 1},
                "min": {"type": "number"},
                "max": {"type": "number"},
                "step": {"type": "number"},
                "bucketDivisor": {"type": "number"},
                "minWords": {"type": "integer", "minimum": 0},
                "maxWords": {"type": "integer", "minimum": 0},
                "baseScore": {"type": "integer", "minimum": 0, "maximum": 10},
                "aspects": {
                  "type": "array",
                  "items": {
                    "type": "object",
                    "required": ["aspect", "maxScore"],
                    "properties": {
                      "aspect": {"type": "string"},
                      "maxScore": {"type": "integer"}
                    }
                  }
                },
                "signalRules": {
                  "type": "array",
                  "items": {
                    "type": "object",
                    "required": ["delta"],
                    "properties": {
                      "name": {"type": "string"},
                      "pattern": {"type": "string"},
                      "minWords": {"type": "integer", "minimum": 1},
                      "delta": {"type": "integer"}
                    }
                  }
                }
              }
            }
          }
        }
      }
    },
    "bonusRules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["sourceQuestionId", "scoreThreshold", "bonusPoints"],
        "properties": {
          "sourceQuestionId": {"type": "string", "minLength": 1},
          "scoreThreshold": {"type": "integer", "minimum": 0, "maximum": 10},
          "bonusPoints": {"type": "integer"},
          "exclusiveGroup": {"type": "string"}
        }
      }
    },
    "classificationThresholds": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["minTotalScore", "label"],
        "properties": {
          "minTotalScore": {"type": "integer", "minimum": 0},
          "label": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

func validateRawDocument(raw []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(rawSchema)
	documentLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed to run: %w", err)
	}
	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return fmt.Errorf("catalog document invalid: %s", strings.Join(issues, "; "))
}
