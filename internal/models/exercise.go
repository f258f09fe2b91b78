package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gorm.io/datatypes"
)

// ExerciseType enumerates the supported exercise shapes. Each type maps to
// exactly one grading policy.
type ExerciseType string

const (
	ExerciseTypeCode          ExerciseType = "code"
	ExerciseTypeDebugFix      ExerciseType = "debug_fix"
	ExerciseTypePredictOutput ExerciseType = "predict_output"
	ExerciseTypeExplain       ExerciseType = "explain"
	ExerciseTypeTraceReading  ExerciseType = "trace_reading"
)

// Valid reports whether the type is one of the known exercise shapes.
func (t ExerciseType) Valid() bool {
	switch t {
	case ExerciseTypeCode, ExerciseTypeDebugFix, ExerciseTypePredictOutput, ExerciseTypeExplain, ExerciseTypeTraceReading:
		return true
	default:
		return false
	}
}

// RequiresExecution reports whether grading this type involves the runner.
func (t ExerciseType) RequiresExecution() bool {
	switch t {
	case ExerciseTypeCode, ExerciseTypeDebugFix, ExerciseTypePredictOutput:
		return true
	default:
		return false
	}
}

// Exercise is an immutable exercise definition authored by the content
// collaborator. The grading core only ever reads it.
type Exercise struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Title              string         `gorm:"size:255;not null" json:"title"`
	Type               ExerciseType   `gorm:"size:32;not null" json:"type"`
	Prompt             string         `gorm:"type:text" json:"prompt"`
	StarterCode        string         `gorm:"type:text" json:"starter_code"`
	ReferenceSolution  string         `gorm:"type:text" json:"-"`
	Tests              datatypes.JSON `gorm:"type:jsonb" json:"tests,omitempty"`
	Rubric             datatypes.JSON `gorm:"type:jsonb" json:"rubric,omitempty"`
	Questions          datatypes.JSON `gorm:"type:jsonb" json:"questions,omitempty"`
	Hints              datatypes.JSON `gorm:"type:jsonb" json:"hints,omitempty"`
	Dataset            datatypes.JSON `gorm:"type:jsonb" json:"dataset,omitempty"`
	MaxChangedLines    int            `json:"max_changed_lines,omitempty"`
	HintUnlockInterval int            `json:"hint_unlock_interval,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// TestKind enumerates the typed assertion kinds the runner understands.
type TestKind string

const (
	TestKindOutput         TestKind = "output"
	TestKindVariableExists TestKind = "variable_exists"
	TestKindVariableType   TestKind = "variable_type"
	TestKindVariableValue  TestKind = "variable_value"
	TestKindFunctionCall   TestKind = "function_call"
	TestKindListContains   TestKind = "list_contains"
	TestKindListLength     TestKind = "list_length"
)

// TestSpec is a single typed assertion. Expected is kept raw because the wire
// format carries strings for most kinds and numbers for list_length.
type TestSpec struct {
	ID           string          `json:"id,omitempty"`
	Kind         TestKind        `json:"type"`
	Description  string          `json:"description"`
	Variable     string          `json:"variable,omitempty"`
	Expected     json.RawMessage `json:"expected,omitempty"`
	ExpectedType string          `json:"expectedType,omitempty"`
}

// ExpectedString decodes the expected value as text. Numeric expectations are
// rendered in their literal form.
func (s TestSpec) ExpectedString() string {
	if len(s.Expected) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(s.Expected, &text); err == nil {
		return text
	}

	var number float64
	if err := json.Unmarshal(s.Expected, &number); err == nil {
		if number == float64(int64(number)) {
			return strconv.FormatInt(int64(number), 10)
		}
		return strconv.FormatFloat(number, 'f', -1, 64)
	}

	return string(s.Expected)
}

// ExpectedInt decodes the expected value as an integer (list_length).
func (s TestSpec) ExpectedInt() (int, error) {
	if len(s.Expected) == 0 {
		return 0, fmt.Errorf("expected value missing")
	}

	var number int
	if err := json.Unmarshal(s.Expected, &number); err == nil {
		return number, nil
	}

	var text string
	if err := json.Unmarshal(s.Expected, &text); err == nil {
		return strconv.Atoi(text)
	}

	return 0, fmt.Errorf("expected value %q is not a number", string(s.Expected))
}

// RubricGroup is an atomic weighted keyword group: the full weight is awarded
// only when every keyword appears in the explanation.
type RubricGroup struct {
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Weight      int      `json:"weight"`
}

// QuizQuestionKind distinguishes exact-match from keyword questions.
type QuizQuestionKind string

const (
	QuizQuestionMultipleChoice QuizQuestionKind = "multiple_choice"
	QuizQuestionFreeText       QuizQuestionKind = "free_text"
)

// QuizQuestion is one trace-reading question with its point weight.
type QuizQuestion struct {
	ID       string           `json:"id"`
	Kind     QuizQuestionKind `json:"kind"`
	Prompt   string           `json:"prompt"`
	Answer   string           `json:"answer,omitempty"`
	Keywords []string         `json:"keywords,omitempty"`
	Points   int              `json:"points"`
}

// Hint is one tiered hint. Tiers unlock with repeated attempts.
type Hint struct {
	Tier int    `json:"tier"`
	Text string `json:"text"`
}

// DatasetFile is a small named input file made available to executed code.
type DatasetFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// TestSpecs decodes the stored test assertions.
func (e Exercise) TestSpecs() ([]TestSpec, error) {
	return decodeJSONColumn[TestSpec](e.Tests)
}

// RubricGroups decodes the stored rubric.
func (e Exercise) RubricGroups() ([]RubricGroup, error) {
	return decodeJSONColumn[RubricGroup](e.Rubric)
}

// QuizQuestions decodes the stored trace-reading questions.
func (e Exercise) QuizQuestions() ([]QuizQuestion, error) {
	return decodeJSONColumn[QuizQuestion](e.Questions)
}

// HintList decodes the stored hints.
func (e Exercise) HintList() ([]Hint, error) {
	return decodeJSONColumn[Hint](e.Hints)
}

// DatasetFiles decodes the optional dataset attached to the exercise.
func (e Exercise) DatasetFiles() ([]DatasetFile, error) {
	return decodeJSONColumn[DatasetFile](e.Dataset)
}

func decodeJSONColumn[T any](raw datatypes.JSON) ([]T, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode exercise column: %w", err)
	}
	return items, nil
}
