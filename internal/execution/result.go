package execution

import (
	"encoding/json"

	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/common/validation"
	"insight-workers/internal/models"
)

// ResultSchema is the JSON Schema every execution service response must
// satisfy. Cross-field rules live in ExecutionResult.Validate.
const ResultSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["summary", "findings", "recommendations", "metadata"],
  "properties": {
    "summary": {"type": "string"},
    "findings": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type", "description", "confidence"],
        "properties": {
          "type": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    },
    "recommendations": {"type": "array", "items": {"type": "string"}},
    "metadata": {
      "type": "object",
      "required": ["analyzed_records", "flagged_items"],
      "properties": {
        "analyzed_records": {"type": "integer", "minimum": 0},
        "flagged_items": {"type": "integer", "minimum": 0}
      }
    }
  }
}`

var resultSchema = validation.MustCompile(ResultSchema)

// ValidateResult decodes a raw service response. Anything that is not a
// well-formed result is RESULT_SCHEMA_INVALID.
func ValidateResult(raw []byte) (models.ExecutionResult, error) {
	res, err := resultSchema.ValidateBytes(raw)
	if err != nil {
		return models.ExecutionResult{}, apperrors.NewResultSchemaError([]string{"result is not valid JSON"})
	}
	if !res.Valid {
		return models.ExecutionResult{}, apperrors.NewResultSchemaError(res.GetErrorMessages())
	}

	var result models.ExecutionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return models.ExecutionResult{}, apperrors.NewResultSchemaError([]string{err.Error()})
	}
	if err := result.Validate(); err != nil {
		return models.ExecutionResult{}, err
	}
	return result, nil
}
