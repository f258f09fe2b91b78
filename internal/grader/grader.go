package grader

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/noah-isme/pyquest-go-api/internal/checks"
	"github.com/noah-isme/pyquest-go-api/internal/models"
	"github.com/noah-isme/pyquest-go-api/internal/transport"
)

// Errors surfaced by the dispatcher. The handler layer maps these onto the
// HTTP boundary (400/500/503/504).
var (
	// ErrInvalidExercise marks a structurally broken exercise definition.
	// Fatal for the request; never silently defaulted to a passing score.
	ErrInvalidExercise = errors.New("invalid exercise definition")

	// ErrWrongSubmission marks a payload that does not carry the field the
	// exercise type requires.
	ErrWrongSubmission = errors.New("submission does not match exercise type")

	// ErrExecutorTimeout means the runner did not answer within the caller
	// deadline. Distinct from a learner program hitting the runner's own
	// execution ceiling, which is a normal graded outcome.
	ErrExecutorTimeout = errors.New("executor timed out")

	// ErrExecutorUnavailable means the runner could not be reached or
	// answered with a transport-level failure.
	ErrExecutorUnavailable = errors.New("executor unavailable")
)

// Runner abstracts the transport client so tests can substitute a stub.
type Runner interface {
	Execute(ctx context.Context, req transport.RunRequest, opts transport.CallOptions) (transport.ExecutionResult, error)
}

// Submission is one validated learner attempt. Exactly one payload field is
// set, matching the exercise type.
type Submission struct {
	Code            string
	PredictedOutput string
	Explanation     string
	Answers         map[string]string
	Identity        string
	RequestID       string
}

// Diagnostics carries the raw (redacted, truncated) execution evidence.
type Diagnostics struct {
	Stdout          string `json:"stdout,omitempty"`
	Stderr          string `json:"stderr,omitempty"`
	TruncatedStdout bool   `json:"truncated_stdout,omitempty"`
	TruncatedStderr bool   `json:"truncated_stderr,omitempty"`
	WallTimeMs      int64  `json:"wall_time_ms,omitempty"`
	ChangedLines    int    `json:"changed_lines,omitempty"`
}

// Result is the normalized grading outcome shared by all five evaluators.
type Result struct {
	Score       int             `json:"score"`
	Passed      bool            `json:"passed"`
	Feedback    string          `json:"feedback"`
	Breakdown   []checks.Result `json:"breakdown,omitempty"`
	Diagnostics Diagnostics     `json:"diagnostics"`
}

// Dispatcher routes a submission to the evaluator for its exercise type.
type Dispatcher struct {
	runner Runner
	logger zerolog.Logger
}

// NewDispatcher builds a grading dispatcher.
func NewDispatcher(runner Runner, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		runner: runner,
		logger: logger.With().Str("component", "grader").Logger(),
	}
}

// Grade evaluates one submission. Dispatch over the exercise type is
// exhaustive; an unknown type is an invalid definition.
func (d *Dispatcher) Grade(ctx context.Context, exercise models.Exercise, sub Submission) (Result, error) {
	var (
		result Result
		err    error
	)

	switch exercise.Type {
	case models.ExerciseTypeCode:
		result, err = d.evaluateTestSuite(ctx, exercise, sub, false)
	case models.ExerciseTypeDebugFix:
		result, err = d.evaluateTestSuite(ctx, exercise, sub, true)
	case models.ExerciseTypePredictOutput:
		result, err = d.evaluateOutputMatch(ctx, exercise, sub)
	case models.ExerciseTypeExplain:
		result, err = d.evaluateRubric(exercise, sub)
	case models.ExerciseTypeTraceReading:
		result, err = d.evaluateQuiz(exercise, sub)
	default:
		return Result{}, fmt.Errorf("%w: unknown type %q", ErrInvalidExercise, exercise.Type)
	}

	if err != nil {
		return Result{}, err
	}

	result.Score = clampScore(result.Score)
	return result, nil
}

// execute runs code through the transport client and converts transport
// failures into typed errors.
func (d *Dispatcher) execute(ctx context.Context, exercise models.Exercise, code string, tests []models.TestSpec, sub Submission) (transport.ExecutionResult, error) {
	req := transport.RunRequest{Code: code, Tests: tests}

	files, err := exercise.DatasetFiles()
	if err != nil {
		return transport.ExecutionResult{}, fmt.Errorf("%w: %v", ErrInvalidExercise, err)
	}
	if len(files) > 0 {
		req.Dataset = &transport.Dataset{Files: files}
	}

	exec, err := d.runner.Execute(ctx, req, transport.CallOptions{
		Identity:  sub.Identity,
		RequestID: sub.RequestID,
	})
	if err != nil {
		return transport.ExecutionResult{}, err
	}

	switch exec.Status {
	case transport.StatusOK:
		return exec, nil
	case transport.StatusTimeout:
		return exec, fmt.Errorf("%w: %s", ErrExecutorTimeout, exec.Message)
	default:
		return exec, fmt.Errorf("%w: %s", ErrExecutorUnavailable, exec.Message)
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func percentage(earned, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(earned) / float64(total) * 100))
}
