package dto

import (
	"time"

	"github.com/noah-isme/pyquest-go-api/internal/models"
)

// ExerciseResponse is the learner-facing view of an exercise. The reference
// solution and the test expectations stay server-side.
type ExerciseResponse struct {
	ID                 uint                `json:"id"`
	Title              string              `json:"title"`
	Type               models.ExerciseType `json:"type"`
	Prompt             string              `json:"prompt"`
	StarterCode        string              `json:"starter_code,omitempty"`
	MaxChangedLines    int                 `json:"max_changed_lines,omitempty"`
	HintUnlockInterval int                 `json:"hint_unlock_interval,omitempty"`
	Questions          []QuestionView      `json:"questions,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
}

// QuestionView is a quiz question without its answer or keywords.
type QuestionView struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
	Points int    `json:"points"`
}

// NewExerciseResponse strips grading internals from an exercise definition.
func NewExerciseResponse(exercise models.Exercise) ExerciseResponse {
	resp := ExerciseResponse{
		ID:                 exercise.ID,
		Title:              exercise.Title,
		Type:               exercise.Type,
		Prompt:             exercise.Prompt,
		StarterCode:        exercise.StarterCode,
		MaxChangedLines:    exercise.MaxChangedLines,
		HintUnlockInterval: exercise.HintUnlockInterval,
		CreatedAt:          exercise.CreatedAt,
	}

	if questions, err := exercise.QuizQuestions(); err == nil {
		for _, q := range questions {
			resp.Questions = append(resp.Questions, QuestionView{ID: q.ID, Prompt: q.Prompt, Points: q.Points})
		}
	}

	return resp
}

// HintsResponse lists the hints a learner has unlocked so far.
type HintsResponse struct {
	ExerciseID   uint          `json:"exercise_id"`
	Attempts     int64         `json:"attempts"`
	UnlockedTier int           `json:"unlocked_tier"`
	TotalHints   int           `json:"total_hints"`
	Hints        []models.Hint `json:"hints"`
}

// AttemptResponse is one recorded attempt in a learner's history.
type AttemptResponse struct {
	ID         uint                `json:"id"`
	ExerciseID uint                `json:"exercise_id"`
	Type       models.ExerciseType `json:"type"`
	Score      int                 `json:"score"`
	Passed     bool                `json:"passed"`
	Feedback   string              `json:"feedback"`
	CreatedAt  time.Time           `json:"created_at"`
}

// NewAttemptResponse converts an attempt record into the wire shape.
func NewAttemptResponse(attempt models.Attempt) AttemptResponse {
	return AttemptResponse{
		ID:         attempt.ID,
		ExerciseID: attempt.ExerciseID,
		Type:       attempt.Type,
		Score:      attempt.Score,
		Passed:     attempt.Passed,
		Feedback:   attempt.Feedback,
		CreatedAt:  attempt.CreatedAt,
	}
}
