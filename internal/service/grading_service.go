package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/pyquest-go-api/internal/dto"
	"github.com/noah-isme/pyquest-go-api/internal/events"
	"github.com/noah-isme/pyquest-go-api/internal/grader"
	"github.com/noah-isme/pyquest-go-api/internal/models"
	"github.com/noah-isme/pyquest-go-api/internal/repository"
	"github.com/noah-isme/pyquest-go-api/internal/schema"
)

// ErrExerciseNotFound indicates the referenced exercise does not exist.
var ErrExerciseNotFound = errors.New("exercise not found")

// ErrSubmissionTooLarge indicates the payload exceeds the configured ceiling.
var ErrSubmissionTooLarge = errors.New("submission too large")

// Caller identifies the submitting learner and their network origin.
type Caller struct {
	StudentID uint
	Origin    string
	RequestID string
}

// GradingService turns a validated submission into a normalized grade.
type GradingService interface {
	Grade(ctx context.Context, caller Caller, payload dto.GradeRequest) (dto.GradeResponse, error)
}

// GradingConfig groups grading service knobs.
type GradingConfig struct {
	MaxSubmissionChars int
}

type gradingService struct {
	exercises  repository.ExerciseRepository
	attempts   repository.AttemptRepository
	dispatcher *grader.Dispatcher
	publisher  events.Publisher
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
	cfg        GradingConfig
}

// NewGradingService constructs the grading orchestrator.
func NewGradingService(
	exercises repository.ExerciseRepository,
	attempts repository.AttemptRepository,
	dispatcher *grader.Dispatcher,
	publisher events.Publisher,
	validate *validator.Validate,
	logger zerolog.Logger,
	cfg GradingConfig,
) GradingService {
	if cfg.MaxSubmissionChars <= 0 {
		cfg.MaxSubmissionChars = 30000
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &gradingService{
		exercises:  exercises,
		attempts:   attempts,
		dispatcher: dispatcher,
		publisher:  publisher,
		validator:  validate,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "grading_service").Logger(),
		cfg:        cfg,
	}
}

// Grade validates, dispatches, records, and publishes one submission. The
// sequence is fixed: the handler's rate limiter has already run, execution
// happens inside the dispatcher, and persistence failures never void a grade.
func (s *gradingService) Grade(ctx context.Context, caller Caller, payload dto.GradeRequest) (dto.GradeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GradeResponse{}, err
	}

	if size := submissionSize(payload); size > s.cfg.MaxSubmissionChars {
		return dto.GradeResponse{}, ErrSubmissionTooLarge
	}

	exercise, err := s.exercises.GetByID(ctx, payload.ExerciseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeResponse{}, ErrExerciseNotFound
		}
		return dto.GradeResponse{}, err
	}

	if err := schema.ValidateExercise(exercise); err != nil {
		s.logger.Error().Err(err).Uint("exercise_id", exercise.ID).Msg("exercise definition rejected")
		return dto.GradeResponse{}, err
	}

	sub, err := s.buildSubmission(exercise, caller, payload)
	if err != nil {
		return dto.GradeResponse{}, err
	}

	result, err := s.dispatcher.Grade(ctx, exercise, sub)
	if err != nil {
		return dto.GradeResponse{}, err
	}

	s.recordAttempt(ctx, exercise, caller, sub, result)

	if err := s.publisher.PublishAttempt(ctx, events.AttemptEvent{
		ExerciseID: exercise.ID,
		StudentID:  caller.StudentID,
		Type:       exercise.Type,
		Score:      result.Score,
		Passed:     result.Passed,
		RequestID:  caller.RequestID,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("exercise_id", exercise.ID).Msg("failed to publish attempt event")
	}

	return dto.NewGradeResponse(exercise, result), nil
}

// buildSubmission pairs the payload with the exercise type. Exactly one
// payload field may be set and it must be the one the type needs.
func (s *gradingService) buildSubmission(exercise models.Exercise, caller Caller, payload dto.GradeRequest) (grader.Submission, error) {
	fields := 0
	if strings.TrimSpace(payload.Code) != "" {
		fields++
	}
	if strings.TrimSpace(payload.PredictedOutput) != "" {
		fields++
	}
	if strings.TrimSpace(payload.Explanation) != "" {
		fields++
	}
	if len(payload.Answers) > 0 {
		fields++
	}
	if fields != 1 {
		return grader.Submission{}, grader.ErrWrongSubmission
	}

	sub := grader.Submission{
		Identity:  callerIdentity(caller),
		RequestID: caller.RequestID,
	}

	switch exercise.Type {
	case models.ExerciseTypeCode, models.ExerciseTypeDebugFix:
		if strings.TrimSpace(payload.Code) == "" {
			return grader.Submission{}, grader.ErrWrongSubmission
		}
		sub.Code = payload.Code
	case models.ExerciseTypePredictOutput:
		if strings.TrimSpace(payload.PredictedOutput) == "" {
			return grader.Submission{}, grader.ErrWrongSubmission
		}
		sub.PredictedOutput = payload.PredictedOutput
	case models.ExerciseTypeExplain:
		if strings.TrimSpace(payload.Explanation) == "" {
			return grader.Submission{}, grader.ErrWrongSubmission
		}
		sub.Explanation = s.sanitizer.Sanitize(payload.Explanation)
	case models.ExerciseTypeTraceReading:
		if len(payload.Answers) == 0 {
			return grader.Submission{}, grader.ErrWrongSubmission
		}
		answers := make(map[string]string, len(payload.Answers))
		for id, answer := range payload.Answers {
			answers[id] = s.sanitizer.Sanitize(answer)
		}
		sub.Answers = answers
	default:
		return grader.Submission{}, grader.ErrInvalidExercise
	}

	return sub, nil
}

func (s *gradingService) recordAttempt(ctx context.Context, exercise models.Exercise, caller Caller, sub grader.Submission, result grader.Result) {
	attempt := models.Attempt{
		ExerciseID:      exercise.ID,
		StudentID:       caller.StudentID,
		Type:            exercise.Type,
		Score:           result.Score,
		Passed:          result.Passed,
		Feedback:        result.Feedback,
		Submitted:       submittedPayload(sub),
		Stdout:          result.Diagnostics.Stdout,
		Stderr:          result.Diagnostics.Stderr,
		TruncatedStdout: result.Diagnostics.TruncatedStdout,
		TruncatedStderr: result.Diagnostics.TruncatedStderr,
		ChangedLines:    result.Diagnostics.ChangedLines,
	}

	if len(result.Breakdown) > 0 {
		if raw, err := json.Marshal(result.Breakdown); err == nil {
			attempt.Breakdown = datatypes.JSON(raw)
		}
	}

	if err := s.attempts.Create(ctx, &attempt); err != nil {
		s.logger.Warn().Err(err).Uint("exercise_id", exercise.ID).Msg("failed to record attempt")
	}
}

func submissionSize(payload dto.GradeRequest) int {
	size := len(payload.Code) + len(payload.PredictedOutput) + len(payload.Explanation)
	for _, answer := range payload.Answers {
		size += len(answer)
	}
	return size
}

func submittedPayload(sub grader.Submission) string {
	switch {
	case sub.Code != "":
		return sub.Code
	case sub.PredictedOutput != "":
		return sub.PredictedOutput
	case sub.Explanation != "":
		return sub.Explanation
	default:
		raw, _ := json.Marshal(sub.Answers)
		return string(raw)
	}
}

func callerIdentity(caller Caller) string {
	if caller.StudentID == 0 {
		return caller.Origin
	}
	return strconv.FormatUint(uint64(caller.StudentID), 10) + "|" + caller.Origin
}
