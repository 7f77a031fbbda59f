package api

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// constraintsSchema describes the body of POST /papers.
const constraintsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["total_marks", "num_questions"],
  "additionalProperties": false,
  "properties": {
    "total_marks": {"type": "integer", "minimum": 1},
    "num_questions": {"type": "integer", "minimum": 1},
    "unit_distribution": {
      "type": "object",
      "additionalProperties": {"type": "number", "minimum": 0}
    },
    "bloom_distribution": {
      "type": "object",
      "propertyNames": {
        "enum": ["Remember", "Understand", "Apply", "Analyze", "Evaluate", "Create"]
      },
      "additionalProperties": {"type": "number", "minimum": 0, "maximum": 100}
    }
  }
}`

func compileConstraintsSchema() (*gojsonschema.Schema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(constraintsSchema))
	if err != nil {
		return nil, fmt.Errorf("compiling constraints schema: %w", err)
	}
	return schema, nil
}

// validateBody checks a JSON document against schema and returns one
// message per violation.
func validateBody(schema *gojsonschema.Schema, body []byte) ([]string, error) {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, strings.TrimPrefix(e.String(), "(root): "))
	}
	return problems, nil
}
