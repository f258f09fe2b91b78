package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pyquest-go-api/internal/dto"
	"github.com/noah-isme/pyquest-go-api/internal/models"
	"github.com/noah-isme/pyquest-go-api/internal/service"
)

type stubExerciseService struct {
	list     []dto.ExerciseResponse
	exercise dto.ExerciseResponse
	hints    dto.HintsResponse
	attempts []dto.AttemptResponse
	err      error
}

func (s *stubExerciseService) List(_ context.Context) ([]dto.ExerciseResponse, error) {
	return s.list, s.err
}

func (s *stubExerciseService) Get(_ context.Context, _ uint) (dto.ExerciseResponse, error) {
	return s.exercise, s.err
}

func (s *stubExerciseService) Hints(_ context.Context, _, _ uint) (dto.HintsResponse, error) {
	return s.hints, s.err
}

func (s *stubExerciseService) Attempts(_ context.Context, _ uint, _ int) ([]dto.AttemptResponse, error) {
	return s.attempts, s.err
}

func newExerciseApp(svc service.ExerciseService) *fiber.App {
	app := fiber.New()
	h := NewExerciseHandler(svc, zerolog.Nop())
	h.Register(app.Group("/api/v1/exercises"))
	h.RegisterAttempts(app.Group("/api/v1/attempts"))
	return app
}

func get(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	return resp
}

func TestListExercises(t *testing.T) {
	svc := &stubExerciseService{list: []dto.ExerciseResponse{
		{ID: 1, Title: "Hello World", Type: models.ExerciseTypeCode},
		{ID: 2, Title: "Fix the loop", Type: models.ExerciseTypeDebugFix},
	}}

	resp := get(t, newExerciseApp(svc), "/api/v1/exercises")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data []dto.ExerciseResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Data, 2)
}

func TestGetExerciseInvalidID(t *testing.T) {
	resp := get(t, newExerciseApp(&stubExerciseService{}), "/api/v1/exercises/banana")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetExerciseNotFound(t *testing.T) {
	svc := &stubExerciseService{err: service.ErrExerciseNotFound}

	resp := get(t, newExerciseApp(svc), "/api/v1/exercises/42")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetHints(t *testing.T) {
	svc := &stubExerciseService{hints: dto.HintsResponse{
		ExerciseID:   1,
		UnlockedTier: 1,
		TotalHints:   3,
		Hints:        []models.Hint{{Tier: 1, Text: "Check the loop bounds."}},
	}}

	resp := get(t, newExerciseApp(svc), "/api/v1/exercises/1/hints")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data dto.HintsResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Data.Hints, 1)
	require.Equal(t, 3, payload.Data.TotalHints)
}

func TestListAttempts(t *testing.T) {
	svc := &stubExerciseService{attempts: []dto.AttemptResponse{
		{ID: 1, ExerciseID: 1, Score: 100, Passed: true},
	}}

	resp := get(t, newExerciseApp(svc), "/api/v1/attempts?limit=10")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data []dto.AttemptResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Data, 1)
}

func TestListAttemptsInvalidLimit(t *testing.T) {
	resp := get(t, newExerciseApp(&stubExerciseService{}), "/api/v1/attempts?limit=soon")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
