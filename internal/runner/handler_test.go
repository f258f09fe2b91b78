package runner

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pyquest-go-api/internal/transport"
	"github.com/noah-isme/pyquest-go-api/pkg/sandbox"
)

func newTestApp(t *testing.T, executor sandbox.Executor) *fiber.App {
	t.Helper()
	service := NewService(executor, Config{WorkspaceRoot: t.TempDir()}, zerolog.Nop())

	app := fiber.New()
	NewHandler(service, "test", zerolog.Nop()).Register(app)
	return app
}

func TestRunEndpoint(t *testing.T) {
	executor := &stubExecutor{result: sandbox.ExecutionResult{Stdout: "hi\n"}}
	app := newTestApp(t, executor)

	body, err := json.Marshal(transport.RunRequest{Code: "print('hi')"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/run", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload transport.RunResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.True(t, payload.Success)
	require.Equal(t, "hi", payload.Stdout)
}

func TestRunEndpointRejectsBadJSON(t *testing.T) {
	app := newTestApp(t, &stubExecutor{})

	req := httptest.NewRequest(http.MethodPost, "/run", bytes.NewReader([]byte("{nope")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRunEndpointRejectsEmptyCode(t *testing.T) {
	app := newTestApp(t, &stubExecutor{})

	body, _ := json.Marshal(transport.RunRequest{Code: ""})
	req := httptest.NewRequest(http.MethodPost, "/run", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var payload struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.False(t, payload.Success)
	require.Equal(t, "no code provided", payload.Error)
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(t, &stubExecutor{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, "healthy", payload["status"])
	require.Equal(t, ServiceName, payload["service"])
	require.Equal(t, "test", payload["version"])
}
