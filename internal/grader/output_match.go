package grader

import (
	"context"
	"fmt"
	"strings"

	"github.com/noah-isme/pyquest-go-api/internal/checks"
	"github.com/noah-isme/pyquest-go-api/internal/models"
)

// Normalize folds CRLF line endings to LF and trims surrounding whitespace,
// so trailing-newline-only differences never fail a prediction. Idempotent.
func Normalize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}

// evaluateOutputMatch grades predict_output submissions. The exercise's
// reference solution is executed, never the learner's text; this is the one
// evaluator where the sandbox runs trusted content.
func (d *Dispatcher) evaluateOutputMatch(ctx context.Context, exercise models.Exercise, sub Submission) (Result, error) {
	if strings.TrimSpace(exercise.ReferenceSolution) == "" {
		return Result{}, fmt.Errorf("%w: reference solution missing", ErrInvalidExercise)
	}

	exec, err := d.execute(ctx, exercise, exercise.ReferenceSolution, nil, sub)
	if err != nil {
		return Result{}, err
	}

	expected := Normalize(exec.Stdout)
	actual := Normalize(sub.PredictedOutput)
	matched := expected == actual

	result := Result{
		Passed: matched,
		Breakdown: []checks.Result{{
			Description: "Predicted output matches the program output",
			Passed:      matched,
			Expected:    expected,
			Actual:      actual,
		}},
		Diagnostics: Diagnostics{
			Stdout:          exec.Stdout,
			Stderr:          exec.Stderr,
			TruncatedStdout: exec.TruncatedStdout,
			TruncatedStderr: exec.TruncatedStderr,
			WallTimeMs:      exec.WallTimeMs,
		},
	}

	if matched {
		result.Score = 100
		result.Feedback = "Correct! Your prediction matches the program output."
	} else {
		result.Score = 0
		result.Feedback = "Your prediction does not match the actual output. Trace through the code again."
	}

	return result, nil
}
