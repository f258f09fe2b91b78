package dto

import (
	"github.com/noah-isme/pyquest-go-api/internal/checks"
	"github.com/noah-isme/pyquest-go-api/internal/grader"
	"github.com/noah-isme/pyquest-go-api/internal/models"
)

// GradeRequest is one learner submission. Exactly one payload field must be
// set, matching the exercise type; the service enforces the pairing.
type GradeRequest struct {
	ExerciseID      uint              `json:"exercise_id" validate:"required"`
	Code            string            `json:"code,omitempty"`
	PredictedOutput string            `json:"predicted_output,omitempty"`
	Explanation     string            `json:"explanation,omitempty"`
	Answers         map[string]string `json:"answers,omitempty"`
}

// DiagnosticsResponse mirrors grader.Diagnostics on the wire.
type DiagnosticsResponse struct {
	Stdout          string `json:"stdout,omitempty"`
	Stderr          string `json:"stderr,omitempty"`
	TruncatedStdout bool   `json:"truncated_stdout"`
	TruncatedStderr bool   `json:"truncated_stderr"`
	WallTimeMs      int64  `json:"wall_time_ms,omitempty"`
	ChangedLines    int    `json:"changed_lines,omitempty"`
}

// GradeResponse is the normalized grading outcome for any exercise type.
type GradeResponse struct {
	ExerciseID  uint                `json:"exercise_id"`
	Type        models.ExerciseType `json:"type"`
	Score       int                 `json:"score"`
	Passed      bool                `json:"passed"`
	Feedback    string              `json:"feedback"`
	TestResults []checks.Result     `json:"test_results,omitempty"`
	Diagnostics DiagnosticsResponse `json:"diagnostics"`
}

// NewGradeResponse converts a grader result into the wire shape.
func NewGradeResponse(exercise models.Exercise, result grader.Result) GradeResponse {
	return GradeResponse{
		ExerciseID:  exercise.ID,
		Type:        exercise.Type,
		Score:       result.Score,
		Passed:      result.Passed,
		Feedback:    result.Feedback,
		TestResults: result.Breakdown,
		Diagnostics: DiagnosticsResponse{
			Stdout:          result.Diagnostics.Stdout,
			Stderr:          result.Diagnostics.Stderr,
			TruncatedStdout: result.Diagnostics.TruncatedStdout,
			TruncatedStderr: result.Diagnostics.TruncatedStderr,
			WallTimeMs:      result.Diagnostics.WallTimeMs,
			ChangedLines:    result.Diagnostics.ChangedLines,
		},
	}
}
