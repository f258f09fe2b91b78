package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pyquest-go-api/internal/audit"
	"github.com/noah-isme/pyquest-go-api/internal/dto"
	"github.com/noah-isme/pyquest-go-api/internal/grader"
	"github.com/noah-isme/pyquest-go-api/internal/middleware"
	"github.com/noah-isme/pyquest-go-api/internal/models"
	"github.com/noah-isme/pyquest-go-api/internal/ratelimit"
	"github.com/noah-isme/pyquest-go-api/internal/service"
	"github.com/noah-isme/pyquest-go-api/internal/utils"
)

type stubGradingServiceAdapter struct {
	response dto.GradeResponse
	err      error
	caller   service.Caller
}

func (s *stubGradingServiceAdapter) Grade(_ context.Context, caller service.Caller, _ dto.GradeRequest) (dto.GradeResponse, error) {
	s.caller = caller
	return s.response, s.err
}

func newGradeApp(svc service.GradingService, extra ...fiber.Handler) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/grade")
	for _, mw := range extra {
		group.Use(mw)
	}
	NewGradeHandler(svc, zerolog.Nop()).Register(group)
	return app
}

func postGrade(t *testing.T, app *fiber.App, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/grade", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestGradeEndpointSuccess(t *testing.T) {
	svc := &stubGradingServiceAdapter{response: dto.GradeResponse{
		ExerciseID: 1,
		Type:       models.ExerciseTypeCode,
		Score:      100,
		Passed:     true,
		Feedback:   "All tests passed!",
	}}
	app := newGradeApp(svc)

	resp := postGrade(t, app, dto.GradeRequest{ExerciseID: 1, Code: "print('Hello, World!')"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Success bool              `json:"success"`
		Data    dto.GradeResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.True(t, payload.Success)
	require.Equal(t, 100, payload.Data.Score)
	require.True(t, payload.Data.Passed)
}

func TestGradeEndpointErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"wrong payload", grader.ErrWrongSubmission, fiber.StatusBadRequest},
		{"not found", service.ErrExerciseNotFound, fiber.StatusNotFound},
		{"too large", service.ErrSubmissionTooLarge, fiber.StatusRequestEntityTooLarge},
		{"runner down", grader.ErrExecutorUnavailable, fiber.StatusServiceUnavailable},
		{"runner timeout", grader.ErrExecutorTimeout, fiber.StatusGatewayTimeout},
		{"broken exercise", grader.ErrInvalidExercise, fiber.StatusInternalServerError},
		{"unexpected", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newGradeApp(&stubGradingServiceAdapter{err: tc.err})

			resp := postGrade(t, app, dto.GradeRequest{ExerciseID: 1, Code: "print(1)"})
			require.Equal(t, tc.status, resp.StatusCode)

			var payload utils.APIResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
			require.False(t, payload.Success)
		})
	}
}

func TestGradeEndpointRejectsBadJSON(t *testing.T) {
	app := newGradeApp(&stubGradingServiceAdapter{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/grade", bytes.NewReader([]byte("{broken")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGradeEndpointRateLimited(t *testing.T) {
	sink := audit.NewMemorySink()
	rateLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Limiter: ratelimit.New(),
		Max:     2,
		Window:  time.Minute,
		Sink:    sink,
	})

	app := newGradeApp(&stubGradingServiceAdapter{response: dto.GradeResponse{Score: 100}}, rateLimit)

	payload := dto.GradeRequest{ExerciseID: 1, Code: "print(1)"}
	for i := 0; i < 2; i++ {
		resp := postGrade(t, app, payload)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		require.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	}

	resp := postGrade(t, app, payload)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
	require.NotEmpty(t, resp.Header.Get("X-RateLimit-Reset"))

	var body utils.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "RATE_LIMIT_EXCEEDED", body.Code)

	events := sink.Events()
	require.Len(t, events, 1)
	require.Equal(t, audit.LevelWarn, events[0].Level)
	require.Equal(t, "RATE_LIMIT_EXCEEDED", events[0].Code)
}
