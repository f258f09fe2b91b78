package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pyquest-go-api/internal/audit"
	"github.com/noah-isme/pyquest-go-api/internal/checks"
	"github.com/noah-isme/pyquest-go-api/internal/models"
)

// Status classifies the transport outcome of one execution request.
type Status string

const (
	StatusOK           Status = "ok"
	StatusTimeout      Status = "timeout"
	StatusHTTPError    Status = "http_error"
	StatusNetworkError Status = "network_error"
)

// Stable error codes surfaced to callers and written to the audit log.
const (
	CodeRunnerTimeout      = "RUNNER_TIMEOUT"
	CodeRunnerHTTPError    = "RUNNER_HTTP_ERROR"
	CodeRunnerNetworkError = "RUNNER_NETWORK_ERROR"
)

// RunRequest is the wire payload for POST /run on the runner service.
type RunRequest struct {
	Code    string            `json:"code"`
	Tests   []models.TestSpec `json:"tests"`
	Dataset *Dataset          `json:"dataset,omitempty"`
}

// Dataset carries small named input files for the executed program.
type Dataset struct {
	Files []models.DatasetFile `json:"files"`
}

// RunResponse is the wire payload returned by the runner service.
type RunResponse struct {
	Success         bool            `json:"success"`
	Stdout          string          `json:"stdout"`
	Stderr          string          `json:"stderr"`
	TestResults     []checks.Result `json:"testResults"`
	ExecutionTimeMs int64           `json:"executionTimeMs"`
	AllPassed       bool            `json:"allPassed"`
	Error           string          `json:"error,omitempty"`
}

// ExecutionResult is the hardened view of one execution attempt. Transport
// failures are expressed through Status and ErrorCode, never as raw errors, so
// the caller always receives a well-typed response.
type ExecutionResult struct {
	Status          Status
	ErrorCode       string
	Message         string
	Stdout          string
	Stderr          string
	TruncatedStdout bool
	TruncatedStderr bool
	WallTimeMs      int64
	TestResults     []checks.Result
	AllPassed       bool
}

// OK reports whether the runner was reached and answered successfully.
func (r ExecutionResult) OK() bool {
	return r.Status == StatusOK
}

// CallOptions identifies the caller for auditing.
type CallOptions struct {
	Identity  string
	RequestID string
}

// Config groups transport client knobs. RequestTimeout is the caller-side
// deadline and must exceed the runner's internal execution timeout by a
// margin, so a slow learner program is distinguishable from a hung service.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	MaxStreamBytes int
}

// Client is the only caller of the runner service. One request per call, no
// automatic retries; a failed attempt is surfaced and the caller may retry
// explicitly.
type Client struct {
	cfg        Config
	httpClient *http.Client
	sink       audit.Sink
	logger     zerolog.Logger
}

// NewClient builds a transport client around the runner base URL.
func NewClient(cfg Config, sink audit.Sink, logger zerolog.Logger) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.MaxStreamBytes <= 0 {
		cfg.MaxStreamBytes = 64 * 1024
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		sink:       sink,
		logger:     logger.With().Str("component", "transport_client").Logger(),
	}
}

// Execute issues one POST /run call under the caller-scoped deadline. Every
// non-success path records exactly one audit event; success records none.
// Output streams and error messages are redacted before they leave the client.
func (c *Client) Execute(ctx context.Context, req RunRequest, opts CallOptions) (ExecutionResult, error) {
	if opts.RequestID == "" {
		opts.RequestID = uuid.NewString()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("marshal run request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/run", bytes.NewReader(body))
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("build run request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return c.failure(ctx, StatusTimeout, CodeRunnerTimeout, "runner did not respond within the deadline", opts), nil
		}
		return c.failure(ctx, StatusNetworkError, CodeRunnerNetworkError, err.Error(), opts), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		message := fmt.Sprintf("runner returned status %d: %s", resp.StatusCode, string(snippet))
		return c.failure(ctx, StatusHTTPError, CodeRunnerHTTPError, message, opts), nil
	}

	var runResp RunResponse
	if err := json.NewDecoder(resp.Body).Decode(&runResp); err != nil {
		return c.failure(ctx, StatusHTTPError, CodeRunnerHTTPError, "runner returned a malformed body", opts), nil
	}

	stdout, truncatedStdout := Truncate(Redact(runResp.Stdout), c.cfg.MaxStreamBytes)
	stderr, truncatedStderr := Truncate(Redact(runResp.Stderr), c.cfg.MaxStreamBytes)

	return ExecutionResult{
		Status:          StatusOK,
		Stdout:          stdout,
		Stderr:          stderr,
		TruncatedStdout: truncatedStdout,
		TruncatedStderr: truncatedStderr,
		WallTimeMs:      runResp.ExecutionTimeMs,
		TestResults:     runResp.TestResults,
		AllPassed:       runResp.AllPassed,
	}, nil
}

// Health probes the runner's GET /health endpoint.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("runner health check returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) failure(ctx context.Context, status Status, code, message string, opts CallOptions) ExecutionResult {
	redacted := Redact(message)

	if c.sink != nil {
		c.sink.Record(ctx, audit.Event{
			Level:     audit.LevelError,
			Code:      code,
			Route:     "/run",
			Identity:  opts.Identity,
			RequestID: opts.RequestID,
			Message:   redacted,
		})
	}

	c.logger.Error().
		Str("code", code).
		Str("request_id", opts.RequestID).
		Msg("runner call failed")

	return ExecutionResult{Status: status, ErrorCode: code, Message: redacted}
}
