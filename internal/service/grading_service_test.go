package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/pyquest-go-api/internal/dto"
	"github.com/noah-isme/pyquest-go-api/internal/events"
	"github.com/noah-isme/pyquest-go-api/internal/grader"
	"github.com/noah-isme/pyquest-go-api/internal/models"
	"github.com/noah-isme/pyquest-go-api/internal/transport"
)

type stubExerciseRepo struct {
	exercises map[uint]models.Exercise
}

func (s *stubExerciseRepo) GetByID(_ context.Context, id uint) (models.Exercise, error) {
	exercise, ok := s.exercises[id]
	if !ok {
		return models.Exercise{}, gorm.ErrRecordNotFound
	}
	return exercise, nil
}

func (s *stubExerciseRepo) List(_ context.Context) ([]models.Exercise, error) {
	out := make([]models.Exercise, 0, len(s.exercises))
	for _, exercise := range s.exercises {
		out = append(out, exercise)
	}
	return out, nil
}

type stubAttemptRepo struct {
	created []models.Attempt
	count   int64
}

func (s *stubAttemptRepo) Create(_ context.Context, attempt *models.Attempt) error {
	s.created = append(s.created, *attempt)
	return nil
}

func (s *stubAttemptRepo) CountForExercise(_ context.Context, _, _ uint) (int64, error) {
	return s.count, nil
}

func (s *stubAttemptRepo) ListByStudent(_ context.Context, _ uint, _ int) ([]models.Attempt, error) {
	return s.created, nil
}

type stubPublisher struct {
	events []events.AttemptEvent
}

func (s *stubPublisher) PublishAttempt(_ context.Context, event events.AttemptEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubGradeRunner struct {
	result transport.ExecutionResult
}

func (s *stubGradeRunner) Execute(_ context.Context, _ transport.RunRequest, _ transport.CallOptions) (transport.ExecutionResult, error) {
	return s.result, nil
}

func codeExercise(t *testing.T, id uint) models.Exercise {
	t.Helper()
	tests, err := json.Marshal([]map[string]interface{}{
		{"type": "output", "description": "prints the greeting", "expected": "Hello, World!"},
	})
	require.NoError(t, err)

	return models.Exercise{
		ID:    id,
		Title: "Hello World",
		Type:  models.ExerciseTypeCode,
		Tests: datatypes.JSON(tests),
	}
}

func newGradingFixture(t *testing.T, exercise models.Exercise, runnerResult transport.ExecutionResult) (GradingService, *stubAttemptRepo, *stubPublisher) {
	t.Helper()

	exercises := &stubExerciseRepo{exercises: map[uint]models.Exercise{exercise.ID: exercise}}
	attempts := &stubAttemptRepo{}
	publisher := &stubPublisher{}
	dispatcher := grader.NewDispatcher(&stubGradeRunner{result: runnerResult}, zerolog.Nop())
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewGradingService(exercises, attempts, dispatcher, publisher, validate, zerolog.Nop(), GradingConfig{MaxSubmissionChars: 1000})
	return svc, attempts, publisher
}

func TestGradeHappyPath(t *testing.T) {
	svc, attempts, publisher := newGradingFixture(t, codeExercise(t, 1), transport.ExecutionResult{
		Status: transport.StatusOK,
		Stdout: "Hello, World!",
	})

	resp, err := svc.Grade(context.Background(), Caller{StudentID: 7, Origin: "1.2.3.4", RequestID: "req-1"}, dto.GradeRequest{
		ExerciseID: 1,
		Code:       "print('Hello, World!')",
	})
	require.NoError(t, err)
	require.Equal(t, 100, resp.Score)
	require.True(t, resp.Passed)
	require.Equal(t, models.ExerciseTypeCode, resp.Type)

	require.Len(t, attempts.created, 1)
	require.Equal(t, uint(7), attempts.created[0].StudentID)
	require.Equal(t, 100, attempts.created[0].Score)

	require.Len(t, publisher.events, 1)
	require.Equal(t, "req-1", publisher.events[0].RequestID)
	require.True(t, publisher.events[0].Passed)
}

func TestGradeUnknownExercise(t *testing.T) {
	svc, _, _ := newGradingFixture(t, codeExercise(t, 1), transport.ExecutionResult{Status: transport.StatusOK})

	_, err := svc.Grade(context.Background(), Caller{StudentID: 7}, dto.GradeRequest{ExerciseID: 99, Code: "print(1)"})
	require.ErrorIs(t, err, ErrExerciseNotFound)
}

func TestGradeMissingExerciseID(t *testing.T) {
	svc, _, _ := newGradingFixture(t, codeExercise(t, 1), transport.ExecutionResult{Status: transport.StatusOK})

	_, err := svc.Grade(context.Background(), Caller{StudentID: 7}, dto.GradeRequest{Code: "print(1)"})

	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
}

func TestGradeOversizedSubmission(t *testing.T) {
	svc, _, _ := newGradingFixture(t, codeExercise(t, 1), transport.ExecutionResult{Status: transport.StatusOK})

	_, err := svc.Grade(context.Background(), Caller{StudentID: 7}, dto.GradeRequest{
		ExerciseID: 1,
		Code:       strings.Repeat("a", 1001),
	})
	require.ErrorIs(t, err, ErrSubmissionTooLarge)
}

func TestGradeWrongPayloadField(t *testing.T) {
	svc, _, _ := newGradingFixture(t, codeExercise(t, 1), transport.ExecutionResult{Status: transport.StatusOK})

	// Explanation on a code exercise.
	_, err := svc.Grade(context.Background(), Caller{StudentID: 7}, dto.GradeRequest{
		ExerciseID:  1,
		Explanation: "it loops",
	})
	require.ErrorIs(t, err, grader.ErrWrongSubmission)

	// Two payload fields at once.
	_, err = svc.Grade(context.Background(), Caller{StudentID: 7}, dto.GradeRequest{
		ExerciseID:      1,
		Code:            "print(1)",
		PredictedOutput: "1",
	})
	require.ErrorIs(t, err, grader.ErrWrongSubmission)
}

func TestGradeSanitizesExplanation(t *testing.T) {
	rubric, err := json.Marshal([]models.RubricGroup{
		{Description: "mentions loops", Keywords: []string{"loop"}, Weight: 100},
	})
	require.NoError(t, err)

	exercise := models.Exercise{
		ID:     2,
		Title:  "Explain the loop",
		Type:   models.ExerciseTypeExplain,
		Rubric: datatypes.JSON(rubric),
	}

	svc, attempts, _ := newGradingFixture(t, exercise, transport.ExecutionResult{Status: transport.StatusOK})

	resp, err := svc.Grade(context.Background(), Caller{StudentID: 7}, dto.GradeRequest{
		ExerciseID:  2,
		Explanation: "<script>alert(1)</script>the loop adds numbers",
	})
	require.NoError(t, err)
	require.Equal(t, 100, resp.Score)

	require.Len(t, attempts.created, 1)
	require.NotContains(t, attempts.created[0].Submitted, "<script>")
}

func TestGradeRecordsFailedAttempts(t *testing.T) {
	svc, attempts, publisher := newGradingFixture(t, codeExercise(t, 1), transport.ExecutionResult{
		Status: transport.StatusOK,
		Stdout: "goodbye",
	})

	resp, err := svc.Grade(context.Background(), Caller{StudentID: 7}, dto.GradeRequest{
		ExerciseID: 1,
		Code:       "print('goodbye')",
	})
	require.NoError(t, err)
	require.False(t, resp.Passed)
	require.Equal(t, 0, resp.Score)

	require.Len(t, attempts.created, 1)
	require.False(t, attempts.created[0].Passed)
	require.Len(t, publisher.events, 1)
	require.False(t, publisher.events[0].Passed)
}
