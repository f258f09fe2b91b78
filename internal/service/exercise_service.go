package service

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/pyquest-go-api/internal/dto"
	"github.com/noah-isme/pyquest-go-api/internal/grader"
	"github.com/noah-isme/pyquest-go-api/internal/models"
	"github.com/noah-isme/pyquest-go-api/internal/repository"
)

// ExerciseService exposes the learner-facing read side: exercise views,
// unlocked hints, and attempt history.
type ExerciseService interface {
	List(ctx context.Context) ([]dto.ExerciseResponse, error)
	Get(ctx context.Context, id uint) (dto.ExerciseResponse, error)
	Hints(ctx context.Context, exerciseID, studentID uint) (dto.HintsResponse, error)
	Attempts(ctx context.Context, studentID uint, limit int) ([]dto.AttemptResponse, error)
}

type exerciseService struct {
	exercises repository.ExerciseRepository
	attempts  repository.AttemptRepository
	logger    zerolog.Logger
}

// NewExerciseService builds the exercise read service.
func NewExerciseService(exercises repository.ExerciseRepository, attempts repository.AttemptRepository, logger zerolog.Logger) ExerciseService {
	return &exerciseService{
		exercises: exercises,
		attempts:  attempts,
		logger:    logger.With().Str("component", "exercise_service").Logger(),
	}
}

func (s *exerciseService) List(ctx context.Context) ([]dto.ExerciseResponse, error) {
	exercises, err := s.exercises.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ExerciseResponse, 0, len(exercises))
	for _, exercise := range exercises {
		responses = append(responses, dto.NewExerciseResponse(exercise))
	}
	return responses, nil
}

func (s *exerciseService) Get(ctx context.Context, id uint) (dto.ExerciseResponse, error) {
	exercise, err := s.exercises.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExerciseResponse{}, ErrExerciseNotFound
		}
		return dto.ExerciseResponse{}, err
	}
	return dto.NewExerciseResponse(exercise), nil
}

// Hints returns the hints unlocked by the caller's attempt count. The count
// is owned by the attempt collaborator; the tier mapping is pure.
func (s *exerciseService) Hints(ctx context.Context, exerciseID, studentID uint) (dto.HintsResponse, error) {
	exercise, err := s.exercises.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.HintsResponse{}, ErrExerciseNotFound
		}
		return dto.HintsResponse{}, err
	}

	hints, err := exercise.HintList()
	if err != nil {
		return dto.HintsResponse{}, err
	}

	count, err := s.attempts.CountForExercise(ctx, exerciseID, studentID)
	if err != nil {
		return dto.HintsResponse{}, err
	}

	tier := grader.UnlockedTier(int(count), exercise.HintUnlockInterval, len(hints))

	unlocked := make([]models.Hint, 0, len(hints))
	for _, hint := range hints {
		if hint.Tier <= tier {
			unlocked = append(unlocked, hint)
		}
	}
	sort.Slice(unlocked, func(i, j int) bool { return unlocked[i].Tier < unlocked[j].Tier })

	return dto.HintsResponse{
		ExerciseID:   exerciseID,
		Attempts:     count,
		UnlockedTier: tier,
		TotalHints:   len(hints),
		Hints:        unlocked,
	}, nil
}

func (s *exerciseService) Attempts(ctx context.Context, studentID uint, limit int) ([]dto.AttemptResponse, error) {
	attempts, err := s.attempts.ListByStudent(ctx, studentID, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AttemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		responses = append(responses, dto.NewAttemptResponse(attempt))
	}
	return responses, nil
}
