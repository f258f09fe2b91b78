package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/pyquest-go-api/internal/models"
)

// ErrInvalidDefinition marks an exercise definition that cannot be graded.
var ErrInvalidDefinition = errors.New("invalid exercise definition")

// exerciseSchema captures the structural contract per exercise type: code and
// debug_fix need tests, debug_fix needs a changed-line budget, explain needs a
// rubric, trace_reading needs questions.
const exerciseSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["title", "type"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "type": {"enum": ["code", "debug_fix", "predict_output", "explain", "trace_reading"]},
    "tests": {"type": "array", "items": {
      "type": "object",
      "required": ["type", "description"],
      "properties": {
        "type": {"enum": ["output", "variable_exists", "variable_type", "variable_value", "function_call", "list_contains", "list_length"]},
        "description": {"type": "string", "minLength": 1}
      }
    }},
    "rubric": {"type": "array", "items": {
      "type": "object",
      "required": ["description", "keywords", "weight"],
      "properties": {
        "keywords": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}},
        "weight": {"type": "integer", "minimum": 1}
      }
    }},
    "questions": {"type": "array", "items": {
      "type": "object",
      "required": ["id", "prompt", "points"],
      "properties": {
        "points": {"type": "integer", "minimum": 1}
      }
    }},
    "max_changed_lines": {"type": "integer", "minimum": 0}
  },
  "allOf": [
    {"if": {"properties": {"type": {"enum": ["code", "debug_fix"]}}},
     "then": {"required": ["tests"], "properties": {"tests": {"minItems": 1}}}},
    {"if": {"properties": {"type": {"const": "debug_fix"}}},
     "then": {"required": ["max_changed_lines"], "properties": {"max_changed_lines": {"minimum": 1}}}},
    {"if": {"properties": {"type": {"const": "explain"}}},
     "then": {"required": ["rubric"], "properties": {"rubric": {"minItems": 1}}}},
    {"if": {"properties": {"type": {"const": "trace_reading"}}},
     "then": {"required": ["questions"], "properties": {"questions": {"minItems": 1}}}}
  ]
}`

var compiled = jsonschema.MustCompileString("exercise.json", exerciseSchema)

// ValidateExercise checks an exercise definition before it reaches an
// evaluator. A failing definition is a grading fault for that request, never
// a silent default.
func ValidateExercise(exercise models.Exercise) error {
	raw, err := json.Marshal(exercise)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	// The reference solution is never serialized, so it gets a direct check.
	if exercise.Type == models.ExerciseTypePredictOutput && strings.TrimSpace(exercise.ReferenceSolution) == "" {
		return fmt.Errorf("%w: predict_output requires a reference solution", ErrInvalidDefinition)
	}

	return nil
}
