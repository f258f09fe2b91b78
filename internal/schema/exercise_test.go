package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/pyquest-go-api/internal/models"
)

func column(t *testing.T, value interface{}) datatypes.JSON {
	t.Helper()
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	return datatypes.JSON(raw)
}

func validTests(t *testing.T) datatypes.JSON {
	return column(t, []map[string]interface{}{
		{"type": "output", "description": "prints the greeting", "expected": "hi"},
	})
}

func TestValidateCodeExercise(t *testing.T) {
	exercise := models.Exercise{
		Title: "Hello",
		Type:  models.ExerciseTypeCode,
		Tests: validTests(t),
	}
	require.NoError(t, ValidateExercise(exercise))
}

func TestValidateCodeExerciseWithoutTests(t *testing.T) {
	exercise := models.Exercise{Title: "Hello", Type: models.ExerciseTypeCode}
	require.ErrorIs(t, ValidateExercise(exercise), ErrInvalidDefinition)
}

func TestValidateRejectsUnknownType(t *testing.T) {
	exercise := models.Exercise{Title: "Hello", Type: "essay"}
	require.ErrorIs(t, ValidateExercise(exercise), ErrInvalidDefinition)
}

func TestValidateRejectsUnknownTestKind(t *testing.T) {
	exercise := models.Exercise{
		Title: "Hello",
		Type:  models.ExerciseTypeCode,
		Tests: column(t, []map[string]interface{}{
			{"type": "telepathy", "description": "reads minds"},
		}),
	}
	require.ErrorIs(t, ValidateExercise(exercise), ErrInvalidDefinition)
}

func TestValidateDebugFixNeedsChangeBudget(t *testing.T) {
	exercise := models.Exercise{
		Title: "Fix it",
		Type:  models.ExerciseTypeDebugFix,
		Tests: validTests(t),
	}
	require.ErrorIs(t, ValidateExercise(exercise), ErrInvalidDefinition)

	exercise.MaxChangedLines = 4
	require.NoError(t, ValidateExercise(exercise))
}

func TestValidateExplainNeedsRubric(t *testing.T) {
	exercise := models.Exercise{Title: "Explain", Type: models.ExerciseTypeExplain}
	require.ErrorIs(t, ValidateExercise(exercise), ErrInvalidDefinition)

	exercise.Rubric = column(t, []models.RubricGroup{
		{Description: "mentions loops", Keywords: []string{"loop"}, Weight: 100},
	})
	require.NoError(t, ValidateExercise(exercise))
}

func TestValidateTraceReadingNeedsQuestions(t *testing.T) {
	exercise := models.Exercise{Title: "Trace", Type: models.ExerciseTypeTraceReading}
	require.ErrorIs(t, ValidateExercise(exercise), ErrInvalidDefinition)

	exercise.Questions = column(t, []models.QuizQuestion{
		{ID: "q1", Prompt: "What prints?", Answer: "3", Points: 1},
	})
	require.NoError(t, ValidateExercise(exercise))
}

func TestValidatePredictOutputNeedsReferenceSolution(t *testing.T) {
	exercise := models.Exercise{Title: "Predict", Type: models.ExerciseTypePredictOutput}
	require.ErrorIs(t, ValidateExercise(exercise), ErrInvalidDefinition)

	exercise.ReferenceSolution = "print(3)"
	require.NoError(t, ValidateExercise(exercise))
}

func TestValidateRejectsZeroWeightRubric(t *testing.T) {
	exercise := models.Exercise{
		Title: "Explain",
		Type:  models.ExerciseTypeExplain,
		Rubric: column(t, []models.RubricGroup{
			{Description: "weightless", Keywords: []string{"loop"}, Weight: 0},
		}),
	}
	require.ErrorIs(t, ValidateExercise(exercise), ErrInvalidDefinition)
}
