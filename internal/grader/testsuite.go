package grader

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/noah-isme/pyquest-go-api/internal/checks"
	"github.com/noah-isme/pyquest-go-api/internal/models"
)

// evaluateTestSuite grades code and debug_fix submissions: one execution via
// the transport client, then every assertion checked against that single
// run's output and the submitted source text.
func (d *Dispatcher) evaluateTestSuite(ctx context.Context, exercise models.Exercise, sub Submission, withDiffPenalty bool) (Result, error) {
	if strings.TrimSpace(sub.Code) == "" {
		return Result{}, fmt.Errorf("%w: code is required", ErrWrongSubmission)
	}

	tests, err := exercise.TestSpecs()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidExercise, err)
	}
	if len(tests) == 0 {
		return Result{}, fmt.Errorf("%w: no tests defined", ErrInvalidExercise)
	}

	exec, err := d.execute(ctx, exercise, sub.Code, tests, sub)
	if err != nil {
		return Result{}, err
	}

	// The runner reports its own testResults for the wire contract, but the
	// grading contract lives here: recompute from the redacted streams so the
	// score never depends on runner-side evaluation being present.
	breakdown, allPassed := checks.EvaluateAll(sub.Code, exec.Stdout, exec.Stderr, tests)

	passedCount := 0
	for _, outcome := range breakdown {
		if outcome.Passed {
			passedCount++
		}
	}

	result := Result{
		Score:     percentage(passedCount, len(tests)),
		Passed:    allPassed,
		Breakdown: breakdown,
		Diagnostics: Diagnostics{
			Stdout:          exec.Stdout,
			Stderr:          exec.Stderr,
			TruncatedStdout: exec.TruncatedStdout,
			TruncatedStderr: exec.TruncatedStderr,
			WallTimeMs:      exec.WallTimeMs,
		},
	}

	if withDiffPenalty {
		applyDiffPenalty(&result, exercise, sub, allPassed, passedCount, len(tests))
		return result, nil
	}

	if allPassed {
		result.Feedback = "All tests passed!"
	} else {
		result.Feedback = fmt.Sprintf("%d of %d tests passed.", passedCount, len(tests))
		if strings.TrimSpace(exec.Stderr) != "" {
			result.Feedback += "\n" + strings.TrimSpace(exec.Stderr)
		}
	}

	return result, nil
}

// applyDiffPenalty bounds how far a debug fix may stray from the starter
// code. The penalty is only consulted once every test passes; a failing
// suite keeps its plain test score.
func applyDiffPenalty(result *Result, exercise models.Exercise, sub Submission, allPassed bool, passedCount, total int) {
	changed := ChangedLines(exercise.StarterCode, sub.Code)
	result.Diagnostics.ChangedLines = changed

	if !allPassed {
		result.Passed = false
		result.Feedback = fmt.Sprintf("%d of %d tests passed.", passedCount, total)
		return
	}

	maxChanged := exercise.MaxChangedLines
	if maxChanged <= 0 || changed <= maxChanged {
		result.Score = 100
		result.Passed = true
		result.Feedback = fmt.Sprintf("All tests passed with %d changed lines.", changed)
		return
	}

	result.Score = int(math.Round(float64(maxChanged) / float64(changed) * 100))
	result.Passed = false
	result.Feedback = fmt.Sprintf(
		"All tests passed, but the fix changed %d lines (limit %d). Try a smaller change.",
		changed, maxChanged,
	)
}
