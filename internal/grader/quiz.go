package grader

import (
	"fmt"
	"strings"

	"github.com/noah-isme/pyquest-go-api/internal/checks"
	"github.com/noah-isme/pyquest-go-api/internal/models"
)

// evaluateQuiz grades trace_reading submissions question by question.
// Multiple-choice answers need a case-insensitive exact match; free-text
// answers pass when any configured keyword appears in the normalized answer.
func (d *Dispatcher) evaluateQuiz(exercise models.Exercise, sub Submission) (Result, error) {
	questions, err := exercise.QuizQuestions()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidExercise, err)
	}
	if len(questions) == 0 {
		return Result{}, fmt.Errorf("%w: no questions defined", ErrInvalidExercise)
	}

	totalPoints := 0
	earnedPoints := 0
	breakdown := make([]checks.Result, 0, len(questions))
	var lines []string

	for _, question := range questions {
		if question.Points <= 0 {
			return Result{}, fmt.Errorf("%w: question %q needs positive points", ErrInvalidExercise, question.ID)
		}
		totalPoints += question.Points

		answer := strings.TrimSpace(sub.Answers[question.ID])
		correct := answerMatches(question, answer)

		if correct {
			earnedPoints += question.Points
			lines = append(lines, fmt.Sprintf("%s: correct (+%d)", question.Prompt, question.Points))
		} else {
			lines = append(lines, fmt.Sprintf("%s: incorrect", question.Prompt))
		}

		breakdown = append(breakdown, checks.Result{
			ID:          question.ID,
			Description: question.Prompt,
			Passed:      correct,
			Expected:    question.Answer,
			Actual:      answer,
		})
	}

	score := percentage(earnedPoints, totalPoints)

	return Result{
		Score:     score,
		Passed:    score >= explainPassThreshold,
		Feedback:  strings.Join(lines, "\n"),
		Breakdown: breakdown,
	}, nil
}

func answerMatches(question models.QuizQuestion, answer string) bool {
	if answer == "" {
		return false
	}

	kind := question.Kind
	if kind == "" {
		// Older definitions omit the kind; keyword sets imply free text.
		if len(question.Keywords) > 0 {
			kind = models.QuizQuestionFreeText
		} else {
			kind = models.QuizQuestionMultipleChoice
		}
	}

	if kind == models.QuizQuestionFreeText {
		normalized := strings.ToLower(answer)
		for _, keyword := range question.Keywords {
			if strings.Contains(normalized, strings.ToLower(keyword)) {
				return true
			}
		}
		return false
	}

	return strings.EqualFold(answer, strings.TrimSpace(question.Answer))
}
