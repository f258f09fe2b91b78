package grader

import (
	"fmt"
	"strings"

	"github.com/noah-isme/pyquest-go-api/internal/checks"
	"github.com/noah-isme/pyquest-go-api/internal/models"
)

// explainPassThreshold is the minimum score for explain and trace_reading
// exercises to count as passed.
const explainPassThreshold = 80

// evaluateRubric grades free-text explanations against weighted keyword
// groups. A group is atomic: its full weight is earned only when every
// keyword in it appears as a substring of the lower-cased text.
func (d *Dispatcher) evaluateRubric(exercise models.Exercise, sub Submission) (Result, error) {
	groups, err := exercise.RubricGroups()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidExercise, err)
	}
	if len(groups) == 0 {
		return Result{}, fmt.Errorf("%w: rubric is empty", ErrInvalidExercise)
	}

	text := strings.ToLower(sub.Explanation)

	totalWeight := 0
	earnedWeight := 0
	breakdown := make([]checks.Result, 0, len(groups))
	var unmet []string

	for _, group := range groups {
		if group.Weight <= 0 || len(group.Keywords) == 0 {
			return Result{}, fmt.Errorf("%w: rubric group %q needs keywords and a positive weight", ErrInvalidExercise, group.Description)
		}
		totalWeight += group.Weight

		covered := true
		for _, keyword := range group.Keywords {
			if !strings.Contains(text, strings.ToLower(keyword)) {
				covered = false
				break
			}
		}

		if covered {
			earnedWeight += group.Weight
		} else {
			unmet = append(unmet, group.Description)
		}

		breakdown = append(breakdown, checks.Result{
			Description: group.Description,
			Passed:      covered,
		})
	}

	score := percentage(earnedWeight, totalWeight)

	feedback := "Your explanation covers all the key concepts."
	if len(unmet) > 0 {
		feedback = "Your explanation is missing: " + strings.Join(unmet, "; ")
	}

	return Result{
		Score:     score,
		Passed:    score >= explainPassThreshold,
		Feedback:  feedback,
		Breakdown: breakdown,
	}, nil
}
